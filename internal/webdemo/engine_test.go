package webdemo

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-stretch/internal/testutil"
)

func interleavedSine(freq, sampleRate float64, frames int) []float32 {
	mono := testutil.DeterministicSine(freq, sampleRate, 0.5, frames)
	out := make([]float32, 2*frames)
	for i, v := range mono {
		out[2*i] = float32(v)
		out[2*i+1] = float32(v)
	}
	return out
}

func TestNewEngineValidation(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewEngine(sr); err == nil {
			t.Fatalf("NewEngine(%v) expected error", sr)
		}
	}
}

func TestEngineBeforeLoad(t *testing.T) {
	e, err := NewEngine(48000)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Play(-1); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Play() error = %v, want ErrNotLoaded", err)
	}
	if err := e.SetRate(2); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("SetRate() error = %v, want ErrNotLoaded", err)
	}

	dst := []float32{1, 1, 1}
	e.Render(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}

	if st := e.Status(); st.Loaded || st.Playing {
		t.Fatalf("Status() = %+v, want unloaded", st)
	}
}

func TestEngineLoadResamples(t *testing.T) {
	e, _ := NewEngine(48000)
	if err := e.Load(interleavedSine(440, 44100, 44100), 2, 44100); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st := e.Status(); !st.Loaded || st.Duration != 1 {
		t.Fatalf("Status() = %+v, want 1 s loaded at the context rate", st)
	}

	if err := e.Load(nil, 0, 48000); err == nil {
		t.Fatal("expected channel count error")
	}
}

func TestEnginePlaysStretchedWithPitchKept(t *testing.T) {
	const sr = 48000.0
	freq := 20 * sr / 2048

	e, _ := NewEngine(sr)
	if err := e.Load(interleavedSine(freq, sr, int(4*sr)), 2, sr); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := e.SetRate(0.5); err != nil {
		t.Fatal(err)
	}
	e.SetVolume(2)
	if err := e.Play(0); err != nil {
		t.Fatal(err)
	}

	buf := make([]float32, 2*10000)
	e.Render(buf)
	e.Render(buf)

	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
	}

	st := e.Status()
	if !st.Playing || st.Rate != 0.5 || st.Volume != 1 || st.Error != "" {
		t.Fatalf("Status() = %+v", st)
	}
	if math.Abs(st.Position-20000/sr*0.5) > 1e-9 {
		t.Fatalf("Position = %v, want %v", st.Position, 20000/sr*0.5)
	}

	if got := e.DominantFrequency(); math.Abs(got-freq) > 5 {
		t.Fatalf("DominantFrequency() = %v, want %v", got, freq)
	}
}

func TestEngineLoopAndStop(t *testing.T) {
	const sr = 8000.0

	e, _ := NewEngine(sr)
	if err := e.Load(interleavedSine(440, sr, int(2*sr)), 2, sr); err != nil {
		t.Fatal(err)
	}

	if err := e.SetLoop(0.5, 0.75); err != nil {
		t.Fatalf("SetLoop() error = %v", err)
	}
	if err := e.SetLoop(1, 3); err == nil {
		t.Fatal("expected loop past the end to fail")
	}
	if err := e.Seek(0.5); err != nil {
		t.Fatal(err)
	}
	_ = e.Play(-1)

	buf := make([]float32, 2*4000)
	e.Render(buf)

	st := e.Status()
	if !st.Looping || st.Position < 0.5 || st.Position >= 0.75 {
		t.Fatalf("Status() = %+v, want position inside the loop", st)
	}

	e.Unloop()
	e.Stop()
	if st := e.Status(); st.Playing || st.Looping {
		t.Fatalf("Status() = %+v, want stopped and unlooped", st)
	}

	// The rate survives loading a new file.
	_ = e.SetRate(1.5)
	if err := e.Load(interleavedSine(440, sr, 800), 2, sr); err != nil {
		t.Fatal(err)
	}
	if st := e.Status(); st.Rate != 1.5 || st.Duration != 0.1 {
		t.Fatalf("Status() after reload = %+v", st)
	}
}

func TestAnalyzerSilenceIsZero(t *testing.T) {
	a, err := newAnalyzer(44100)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.dominant(); got != 0 {
		t.Fatalf("dominant() on empty history = %v, want 0", got)
	}

	a.push([][]float64{make([]float64, 1000)})
	if got := a.dominant(); got != 0 {
		t.Fatalf("dominant() on silence = %v, want 0", got)
	}
	if a.history.Size() != 1000 {
		t.Fatalf("history size = %d, want 1000 after a read", a.history.Size())
	}
}
