// Command stretchinfo prints phase-vocoder hop and latency figures for a
// set of playback rates.
//
// Usage:
//
//	stretchinfo [flags]
//
// Examples:
//
//	stretchinfo
//	stretchinfo -frame 4096 -overlap 4
//	stretchinfo -rate 0.5,0.8,1,1.25 -sr 48000
//	stretchinfo -window hann,hamming,blackman
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/vocoder"
	"github.com/cwbudde/algo-stretch/dsp/window"
)

const defaultRates = "0.25,0.5,0.75,1,1.25,1.5,2,4"

func main() {
	frame := flag.Int("frame", 2048, "STFT frame size (power of two)")
	overlap := flag.Int("overlap", 8, "frame overlap factor: 2, 4, 8 or 16")
	rates := flag.String("rate", defaultRates, "comma-separated playback rates")
	sampleRate := flag.Float64("sr", 44100, "sample rate in Hz")
	windows := flag.String("window", "hann", "comma-separated windows for the overlap table")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stretchinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints synthesis hop, effective rate and latency per playback rate,\n")
		fmt.Fprintf(os.Stderr, "and the overlap-add gain of the squared window at the analysis hop.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stretchinfo -frame 4096 -overlap 4\n")
		fmt.Fprintf(os.Stderr, "  stretchinfo -rate 0.5,1,2 -sr 48000\n")
	}
	flag.Parse()

	list, err := parseRates(*rates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []core.ProcessorOption{core.WithFrameSize(*frame), core.WithOverlap(*overlap)}

	if err := printRates(os.Stdout, list, *sampleRate, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()

	types, err := parseWindows(*windows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := printWindows(os.Stdout, types, *frame, *frame / *overlap); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseRates(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		r, err := strconv.ParseFloat(field, 64)
		if err != nil || !core.IsFinitePositive(r) {
			return nil, fmt.Errorf("invalid rate %q", field)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no rates given")
	}
	return out, nil
}

func parseWindows(s string) ([]window.Type, error) {
	var out []window.Type
	for _, field := range strings.Split(s, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		t, err := window.ParseType(field)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// printRates runs a vocoder over silence at each rate and reports the hop
// figures it settles on. Rates outside the alpha range show the clamped
// effective rate.
func printRates(w io.Writer, rates []float64, sampleRate float64, opts []core.ProcessorOption) error {
	ch, err := vocoder.New(make([]float64, 1), opts...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rate\tAlpha\tHa\tHs\tEffective Rate\tFrames/s\tLatency [ms]\n")
	fmt.Fprintf(tw, "----\t-----\t--\t--\t--------------\t--------\t------------\n")

	for _, rate := range rates {
		ch.SetAlpha(1 / rate)

		fmt.Fprintf(tw, "%.3g\t%.4f\t%d\t%d\t%.4f\t%.1f\t%.1f\n",
			rate,
			ch.Alpha(),
			ch.AnalysisHop(),
			ch.SynthesisHop(),
			1/ch.Alpha(),
			sampleRate/float64(ch.AnalysisHop())/ch.Alpha(),
			1000*float64(ch.Latency())/sampleRate,
		)
	}

	return tw.Flush()
}

// printWindows reports how flat the overlap-add of the squared window is at
// hop. The vocoder windows both analysis and synthesis, so w*w is what sums.
func printWindows(w io.Writer, types []window.Type, size, hop int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tSize\tHop\tENBW [bins]\tSidelobe [dB]\tOLA min\tOLA max\tRipple [dB]\n")
	fmt.Fprintf(tw, "------\t----\t---\t-----------\t-------------\t-------\t-------\t-----------\n")

	for _, t := range types {
		coeffs := window.Generate(t, size, window.WithPeriodic())

		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			return err
		}

		squared := make([]float64, len(coeffs))
		for i, v := range coeffs {
			squared[i] = v * v
		}

		lo, hi, err := window.OverlapGain(squared, hop)
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.1f\t%.4f\t%.4f\t%.3f\n",
			t, size, hop, enbw, window.Info(t).HighestSidelobe, lo, hi, core.LinearToDB(hi/lo))
	}

	return tw.Flush()
}
