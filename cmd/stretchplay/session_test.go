package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/internal/config"
	"github.com/cwbudde/algo-stretch/internal/device"
	"github.com/cwbudde/algo-stretch/internal/testutil"
	"github.com/cwbudde/algo-stretch/internal/wavout"
	"github.com/cwbudde/algo-stretch/player"
)

func newTestSession(t *testing.T, seconds float64) (*session, *bytes.Buffer) {
	t.Helper()

	src, err := buffer.NewSource([][]float64{make([]float64, int(seconds*44100))}, 44100)
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := player.New(src)
	if err != nil {
		t.Fatal(err)
	}
	stream, err := device.NewStream(ctrl, 2, 256)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	return newSession(ctrl, stream, config.Default(), &out), &out
}

func writeWAV(t *testing.T, sampleRate int, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "next.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := wavout.NewWriter(f, sampleRate, 1, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBlock([][]float64{testutil.DeterministicSine(440, float64(sampleRate), 0.5, frames)}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSessionCommands(t *testing.T) {
	s, out := newTestSession(t, 120)

	steps := []struct {
		line  string
		check func() bool
	}{
		{line: "play", check: s.ctrl.IsPlaying},
		{line: "stop", check: func() bool { return !s.ctrl.IsPlaying() }},
		{line: "seek 1:05", check: func() bool { return s.ctrl.Position() == 65 }},
		{line: "rate 0.5", check: func() bool { return s.ctrl.PlaybackRate() == 0.5 }},
		{line: "loop 10 20.5", check: func() bool { r, ok := s.ctrl.LoopRegion(); return ok && r.Start == 10 && r.End == 20.5 }},
		{line: "unloop", check: func() bool { return !s.ctrl.Looping() }},
		{line: "PLAY 30", check: func() bool { return s.ctrl.IsPlaying() && s.ctrl.Position() == 30 }},
		{line: "vol -6", check: func() bool { return math.Abs(s.stream.VolumeDB()+6) < 1e-9 }},
		{line: "   ", check: func() bool { return true }},
	}

	for _, step := range steps {
		if err := s.execute(step.line); err != nil {
			t.Fatalf("execute(%q) error = %v", step.line, err)
		}
		if !step.check() {
			t.Fatalf("execute(%q) did not take effect", step.line)
		}
	}

	if err := s.execute("pos"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "0:30 / 2:00  rate 0.5  playing") {
		t.Fatalf("pos output = %q", got)
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	s, _ := newTestSession(t, 10)

	tests := []struct {
		line string
		want error
	}{
		{line: "rate 0", want: player.ErrInvalidRate},
		{line: "rate fast", want: player.ErrInvalidRate},
		{line: "seek", want: player.ErrInvalidTime},
		{line: "seek 1:5", want: player.ErrInvalidTime},
		{line: "loop 5 2", want: player.ErrInvalidRange},
		{line: "loop 5 20", want: player.ErrInvalidRange},
	}

	for _, tt := range tests {
		if err := s.execute(tt.line); !errors.Is(err, tt.want) {
			t.Fatalf("execute(%q) error = %v, want %v", tt.line, err, tt.want)
		}
	}

	if err := s.execute("dance"); err == nil {
		t.Fatal("expected unknown command error")
	}
	if s.ctrl.PlaybackRate() != 1 || s.ctrl.Looping() {
		t.Fatal("rejected commands changed controller state")
	}
}

func TestSessionSeekForms(t *testing.T) {
	s, _ := newTestSession(t, 120)

	tests := []struct {
		line string
		want float64
	}{
		{line: "seek 1:00", want: 60},
		{line: "seek +5", want: 65},
		{line: "seek -10", want: 55},
		{line: "seek +0:30", want: 85},
		{line: "seek 25%", want: 30},
		{line: "seek 12.5%", want: 15},
		{line: "seek -1:00", want: 0},
		{line: "seek 100%", want: 120},
		{line: "seek +10", want: 120},
	}

	for _, tt := range tests {
		if err := s.execute(tt.line); err != nil {
			t.Fatalf("execute(%q) error = %v", tt.line, err)
		}
		if got := s.ctrl.Position(); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("execute(%q) position = %v, want %v", tt.line, got, tt.want)
		}
	}

	for _, line := range []string{"seek 150%", "seek -5%", "seek half%", "seek +", "seek -1:5"} {
		if err := s.execute(line); !errors.Is(err, player.ErrInvalidTime) {
			t.Fatalf("execute(%q) error = %v, want ErrInvalidTime", line, err)
		}
	}
	if s.ctrl.Position() != 120 {
		t.Fatalf("rejected seeks moved the position to %v", s.ctrl.Position())
	}
}

func TestSessionMarkLoop(t *testing.T) {
	s, out := newTestSession(t, 60)

	for _, line := range []string{"seek 10", "mark", "seek 4", "mark"} {
		if err := s.execute(line); err != nil {
			t.Fatalf("execute(%q) error = %v", line, err)
		}
	}

	r, ok := s.ctrl.LoopRegion()
	if !ok || r.Start != 4 || r.End != 10 {
		t.Fatalf("LoopRegion() = %+v, %v; want [4, 10]", r, ok)
	}
	if !s.ctrl.IsPlaying() || s.ctrl.Position() != 4 {
		t.Fatalf("after mark: playing %v at %v, want playing at 4", s.ctrl.IsPlaying(), s.ctrl.Position())
	}
	if got := out.String(); !strings.Contains(got, "mark 0:10") || !strings.Contains(got, "loop 0:04-0:10") {
		t.Fatalf("mark output = %q", got)
	}

	// Two marks at the same position make an empty loop; the old one stays.
	if err := s.execute("mark"); err != nil {
		t.Fatal(err)
	}
	if err := s.execute("mark"); !errors.Is(err, player.ErrInvalidRange) {
		t.Fatalf("empty mark loop error = %v, want ErrInvalidRange", err)
	}
	if r, _ := s.ctrl.LoopRegion(); r.Start != 4 || r.End != 10 {
		t.Fatalf("LoopRegion() = %+v after rejected mark, want [4, 10]", r)
	}

	// The mark resets after the failure, so the next one starts over.
	if err := s.execute("mark"); err != nil || s.mark != 4 {
		t.Fatalf("mark after failure: err %v, mark %v; want a fresh mark at 4", err, s.mark)
	}
}

func TestSessionQuit(t *testing.T) {
	s, _ := newTestSession(t, 10)
	s.ctrl.Play()

	if err := s.run(strings.NewReader("play\nquit\nstop\n")); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if s.ctrl.IsPlaying() {
		t.Fatal("quit should stop playback")
	}
}

func TestSessionLoad(t *testing.T) {
	s, _ := newTestSession(t, 10)
	first := s.ctrl

	if err := s.execute("rate 2"); err != nil {
		t.Fatal(err)
	}
	s.ctrl.Play()

	if err := s.execute("load " + writeWAV(t, 44100, 22050)); err != nil {
		t.Fatalf("load error = %v", err)
	}

	if s.ctrl == first || first.IsPlaying() {
		t.Fatal("load should replace and stop the previous controller")
	}
	if !s.ctrl.IsPlaying() || s.ctrl.PlaybackRate() != 2 || s.ctrl.Duration() != 0.5 {
		t.Fatalf("new controller: playing=%v rate=%v duration=%v", s.ctrl.IsPlaying(), s.ctrl.PlaybackRate(), s.ctrl.Duration())
	}

	if err := s.execute("load " + writeWAV(t, 22050, 11025)); err != nil {
		t.Fatalf("load at another rate error = %v", err)
	}
	if s.ctrl.SampleRate() != 44100 || s.ctrl.Duration() != 0.5 {
		t.Fatalf("resampled controller: %v Hz, %v s; want 44100 Hz, 0.5 s", s.ctrl.SampleRate(), s.ctrl.Duration())
	}

	if err := s.execute("load " + filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestParseRegion(t *testing.T) {
	a, b, err := parseRegion("1:00-1:30.5")
	if err == nil {
		t.Fatalf("parseRegion() = %v, %v; fractional m:ss should fail", a, b)
	}

	a, b, err = parseRegion("1:00-1:30")
	if err != nil || a != 60 || b != 90 {
		t.Fatalf("parseRegion() = %v, %v, %v; want 60, 90, nil", a, b, err)
	}

	if _, _, err := parseRegion("12"); !errors.Is(err, player.ErrInvalidRange) {
		t.Fatalf("parseRegion() error = %v, want ErrInvalidRange", err)
	}
}

func TestFlagsApply(t *testing.T) {
	f, files, err := parseFlags([]string{"-rate", "0.8", "-loop", "2-4", "-out", "x.wav", "-start", "1:00", "in.mp3"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if len(files) != 1 || files[0] != "in.mp3" {
		t.Fatalf("files = %v", files)
	}

	cfg := config.Default()
	if err := f.apply(cfg); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	if cfg.Playback.Rate != 0.8 || cfg.Playback.Start != 60 || cfg.Output.Mode != config.ModeWAV || cfg.Output.Path != "x.wav" {
		t.Fatalf("config after flags = %+v", cfg)
	}
	if cfg.Playback.LoopStart != 2 || cfg.Playback.LoopEnd != 4 {
		t.Fatalf("loop = %v-%v, want 2-4", cfg.Playback.LoopStart, cfg.Playback.LoopEnd)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
