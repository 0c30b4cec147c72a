// Command stretchplay plays an audio file at a variable speed without
// changing its pitch.
//
// Usage:
//
//	stretchplay [flags] file
//
// By default the file plays through the system audio device and commands
// are read from stdin (type "help"). With -out the file is rendered offline
// to a WAV file instead.
//
// Examples:
//
//	stretchplay -rate 0.75 song.mp3
//	stretchplay -loop 1:00-1:30 -rate 0.5 solo.wav
//	stretchplay -rate 1.5 -out fast.wav -seconds 30 talk.ogg
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-stretch/dsp/resample"
	"github.com/cwbudde/algo-stretch/internal/config"
	"github.com/cwbudde/algo-stretch/internal/decode"
	"github.com/cwbudde/algo-stretch/internal/device"
	"github.com/cwbudde/algo-stretch/internal/wavout"
	"github.com/cwbudde/algo-stretch/player"
)

const deviceChannels = 2

var errUsage = errors.New("usage")

func main() {
	log.SetFlags(log.Ltime)

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("stretchplay: %v", err)
	}
}

type flags struct {
	config     string
	rate       float64
	start      string
	loop       string
	out        string
	seconds    float64
	frame      int
	overlap    int
	block      int
	sampleRate int
	dither     string
	volume     float64
	verbose    bool
}

func parseFlags(args []string) (*flags, []string, error) {
	f := &flags{}

	fs := flag.NewFlagSet("stretchplay", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "YAML configuration file")
	fs.Float64Var(&f.rate, "rate", 0, "playback rate, 1 = original speed")
	fs.StringVar(&f.start, "start", "", "start position (seconds or m:ss)")
	fs.StringVar(&f.loop, "loop", "", "loop region a-b (seconds or m:ss)")
	fs.StringVar(&f.out, "out", "", "render to this WAV file instead of the audio device")
	fs.Float64Var(&f.seconds, "seconds", 0, "seconds of output to render with -out, 0 = to the end")
	fs.IntVar(&f.frame, "frame", 0, "STFT frame size (power of two)")
	fs.IntVar(&f.overlap, "overlap", 0, "frame overlap factor: 2, 4, 8 or 16")
	fs.IntVar(&f.block, "block", 0, "largest render block in frames")
	fs.IntVar(&f.sampleRate, "sr", 0, "output sample rate in Hz, 0 = the file's rate")
	fs.StringVar(&f.dither, "dither", "", "WAV dither: none, rpdf or tpdf")
	fs.Float64Var(&f.volume, "volume", math.NaN(), "output gain in dB")
	fs.BoolVar(&f.verbose, "v", false, "log every command")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stretchplay [flags] file\n\n")
		fmt.Fprintf(os.Stderr, "Plays an audio file at a variable speed without changing its pitch.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stretchplay -rate 0.75 song.mp3\n")
		fmt.Fprintf(os.Stderr, "  stretchplay -loop 1:00-1:30 -rate 0.5 solo.wav\n")
		fmt.Fprintf(os.Stderr, "  stretchplay -rate 1.5 -out fast.wav talk.ogg\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, nil, errUsage
	}

	return f, fs.Args(), nil
}

// apply layers command-line flags over cfg. Zero values keep the
// configured setting.
func (f *flags) apply(cfg *config.Config) error {
	if f.rate != 0 {
		cfg.Playback.Rate = f.rate
	}
	if f.frame != 0 {
		cfg.Engine.FrameSize = f.frame
	}
	if f.overlap != 0 {
		cfg.Engine.Overlap = f.overlap
	}
	if f.block != 0 {
		cfg.Engine.BlockSize = f.block
	}
	if f.sampleRate != 0 {
		cfg.Output.SampleRate = f.sampleRate
	}
	if f.dither != "" {
		cfg.Output.Dither = f.dither
	}
	if !math.IsNaN(f.volume) {
		cfg.Output.VolumeDB = f.volume
	}
	if f.seconds != 0 {
		cfg.Playback.Duration = f.seconds
	}
	if f.verbose {
		cfg.Logging.Verbose = true
	}

	if f.out != "" {
		cfg.Output.Mode = config.ModeWAV
		cfg.Output.Path = f.out
	}

	if f.start != "" {
		t, err := player.ParseTime(f.start)
		if err != nil {
			return fmt.Errorf("-start: %w", err)
		}
		cfg.Playback.Start = t
	}

	if f.loop != "" {
		a, b, err := parseRegion(f.loop)
		if err != nil {
			return fmt.Errorf("-loop: %w", err)
		}
		cfg.Playback.LoopStart, cfg.Playback.LoopEnd = a, b
	}

	return nil
}

// parseRegion parses "a-b" where both sides are ParseTime values.
func parseRegion(s string) (start, end float64, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q, want start-end", player.ErrInvalidRange, s)
	}

	if start, err = player.ParseTime(a); err != nil {
		return 0, 0, err
	}
	if end, err = player.ParseTime(b); err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

func run(args []string) error {
	f, files, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := f.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctrl, err := openController(files[0], cfg, float64(cfg.Output.SampleRate))
	if err != nil {
		return err
	}

	if cfg.Output.Mode == config.ModeWAV {
		return renderFile(ctrl, cfg)
	}

	return playDevice(ctrl, cfg)
}

// openController decodes path, converts it to outRate unless outRate is 0
// and applies the configured rate, loop and start position.
func openController(path string, cfg *config.Config, outRate float64) (*player.Controller, error) {
	src, err := decode.Load(path)
	if err != nil {
		return nil, err
	}

	log.Printf("loaded %s: %d ch, %.0f Hz, %s", path, src.Channels(), src.SampleRate(), player.FormatTime(src.Duration()))

	if outRate > 0 {
		converted, err := resample.Source(src, outRate)
		if err != nil {
			return nil, err
		}
		if converted != src {
			log.Printf("resampled to %.0f Hz", converted.SampleRate())
		}
		src = converted
	}

	ctrl, err := player.New(src, cfg.ProcessorOptions()...)
	if err != nil {
		return nil, err
	}

	if err := ctrl.SetPlaybackRate(cfg.Playback.Rate); err != nil {
		return nil, err
	}
	if cfg.HasLoop() {
		if err := ctrl.Loop(cfg.Playback.LoopStart, cfg.Playback.LoopEnd); err != nil {
			return nil, err
		}
	}
	ctrl.Seek(cfg.Playback.Start)

	return ctrl, nil
}

func renderFile(ctrl *player.Controller, cfg *config.Config) error {
	if ctrl.Looping() && cfg.Playback.Duration == 0 {
		return fmt.Errorf("%w: a looped render needs -seconds", config.ErrInvalid)
	}

	out, err := os.Create(cfg.Output.Path)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := wavout.NewWriter(out, int(math.Round(ctrl.SampleRate())), ctrl.Channels(), cfg.Output.BitDepth,
		wavout.WithGainDB(cfg.Output.VolumeDB), wavout.WithDither(cfg.DitherOptions()...))
	if err != nil {
		return err
	}

	started := time.Now()
	ctrl.Play()

	frames, err := wavout.Render(ctrl, w, cfg.Playback.Duration, ctrl.MaxBlockSize())
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.Printf("wrote %s: %s of audio in %v (%d samples clipped)",
		cfg.Output.Path, player.FormatTime(float64(frames)/ctrl.SampleRate()), time.Since(started).Round(time.Millisecond), w.Clipped())

	return out.Close()
}

func playDevice(ctrl *player.Controller, cfg *config.Config) error {
	stream, err := device.NewStream(ctrl, deviceChannels, min(512, ctrl.MaxBlockSize()))
	if err != nil {
		return err
	}
	stream.SetVolumeDB(cfg.Output.VolumeDB)

	out, err := device.Open(stream, int(math.Round(ctrl.SampleRate())), time.Duration(cfg.Output.BufferMs)*time.Millisecond)
	if err != nil {
		return err
	}
	defer out.Close()

	log.Printf("audio device opened at %.0f Hz", ctrl.SampleRate())

	s := newSession(ctrl, stream, cfg, os.Stdout)
	out.Start()
	ctrl.Play()

	return s.run(os.Stdin)
}
