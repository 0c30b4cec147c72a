package stretch

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/buffer"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/internal/testutil"
)

const testSampleRate = 44100.0

func newTestEngine(t *testing.T, channels [][]float64, opts ...core.ProcessorOption) *Engine {
	t.Helper()

	src, err := buffer.NewSource(channels, testSampleRate)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	e, err := New(src, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return e
}

func pullAll(t *testing.T, e *Engine, block, total int) [][]float64 {
	t.Helper()

	out := make([][]float64, e.Channels())
	dst := buffer.NewBlock(e.Channels(), block)
	for len(out[0]) < total {
		if err := e.Pull(dst.Planes()); err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		for c, p := range dst.Planes() {
			out[c] = append(out[c], p...)
		}
	}

	return out
}

func TestNewRejectsNilSource(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, buffer.ErrNoChannels) {
		t.Fatalf("New(nil) error = %v, want ErrNoChannels", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	src, _ := buffer.NewSource([][]float64{make([]float64, 10)}, testSampleRate)
	if _, err := New(src, core.WithFrameSize(1000)); err == nil {
		t.Fatal("expected frame size error")
	}
}

func TestPullReturnsExactBlockSizes(t *testing.T) {
	e := newTestEngine(t, testutil.StereoSine(440, 660, testSampleRate, 0.5, 88200))
	e.RequestAlpha(1.37)

	for _, n := range []int{1, 7, 128, 4096, 333, 2, 1024, 4096, 4096, 17} {
		dst := buffer.NewBlock(2, n)
		for _, p := range dst.Planes() {
			for i := range p {
				p[i] = math.NaN()
			}
		}

		if err := e.Pull(dst.Planes()); err != nil {
			t.Fatalf("Pull(%d) error = %v", n, err)
		}
		for _, p := range dst.Planes() {
			if len(p) != n {
				t.Fatalf("Pull(%d) plane length = %d", n, len(p))
			}
			testutil.RequireFinite(t, p)
		}
	}
}

func TestPassThroughAlignment(t *testing.T) {
	left := testutil.DeterministicNoise(11, 0.5, 32768)
	right := testutil.DeterministicSine(1234, testSampleRate, 0.3, 32768)
	e := newTestEngine(t, [][]float64{left, right})

	out := pullAll(t, e, 512, 24576)

	lo, hi := 2048, 24576
	testutil.RequireSliceNearlyEqual(t, out[0][lo:hi], left[lo:hi], 1e-9)
	testutil.RequireSliceNearlyEqual(t, out[1][lo:hi], right[lo:hi], 1e-9)

	if got := e.Playhead(); got != float64(len(out[0])) {
		t.Fatalf("Playhead() = %v, want %d", got, len(out[0]))
	}
}

func TestRepositionLastWriteWins(t *testing.T) {
	src := testutil.DeterministicNoise(5, 0.5, 44100)
	e := newTestEngine(t, [][]float64{src})

	pullAll(t, e, 256, 4096)

	e.RequestReposition(1000)
	e.RequestReposition(10000)
	if !e.pendingReposition.Pending() {
		t.Fatal("reposition should be pending before Pull")
	}

	out := pullAll(t, e, 512, 8192)
	if e.pendingReposition.Pending() {
		t.Fatal("reposition should be consumed by Pull")
	}

	if got, want := e.Playhead(), 10000.0+8192; got != want {
		t.Fatalf("Playhead() = %v, want %v", got, want)
	}

	// Stale lookahead from before the jump must not leak into the output.
	testutil.RequireSliceNearlyEqual(t, out[0][2048:8192], src[12048:18192], 1e-9)
}

func TestRepositionClamps(t *testing.T) {
	e := newTestEngine(t, [][]float64{make([]float64, 1000)})
	dst := buffer.NewBlock(1, 16)

	e.RequestReposition(-50)
	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if got := e.Playhead(); got != 16 {
		t.Fatalf("Playhead() = %v, want 16", got)
	}

	e.RequestReposition(1e9)
	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if got := e.Playhead(); got != 1016 {
		t.Fatalf("Playhead() = %v, want 1016", got)
	}
}

func TestAlphaLatch(t *testing.T) {
	e := newTestEngine(t, [][]float64{testutil.DeterministicSine(440, testSampleRate, 0.5, 44100)})
	dst := buffer.NewBlock(1, 441)

	e.RequestAlpha(2)
	e.RequestAlpha(0.5)
	if e.Alpha() != 1 {
		t.Fatalf("Alpha() = %v before Pull, want 1", e.Alpha())
	}

	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if e.Alpha() != 0.5 {
		t.Fatalf("Alpha() = %v, want 0.5 (last write wins)", e.Alpha())
	}
	if got := e.Playhead(); got != 882 {
		t.Fatalf("Playhead() = %v, want 882", got)
	}
	if e.pendingAlpha.Pending() {
		t.Fatal("alpha latch should be cleared")
	}

	// Alpha changes never reposition.
	before := e.ReadPosition()
	e.RequestAlpha(1)
	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if e.ReadPosition() < before {
		t.Fatalf("ReadPosition went backwards: %v -> %v", before, e.ReadPosition())
	}
}

func TestPullUnderrunOnOversizeBlock(t *testing.T) {
	e := newTestEngine(t, [][]float64{testutil.Ones(8192)}, core.WithBlockSize(256))

	dst := buffer.NewBlock(1, 256+e.frameSize+1)
	for i := range dst.Planes()[0] {
		dst.Planes()[0][i] = 1
	}

	err := e.Pull(dst.Planes())
	if !errors.Is(err, ErrUnderrun) {
		t.Fatalf("Pull() error = %v, want ErrUnderrun", err)
	}
	for i, v := range dst.Planes()[0] {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want silence on underrun", i, v)
		}
	}

	ok := buffer.NewBlock(1, 256)
	if err := e.Pull(ok.Planes()); err != nil {
		t.Fatalf("Pull(max block) error = %v", err)
	}
}

func TestPullChannelMismatch(t *testing.T) {
	e := newTestEngine(t, testutil.StereoSine(440, 660, testSampleRate, 0.5, 4096))

	if err := e.Pull(buffer.NewBlock(1, 64).Planes()); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("mono dst error = %v, want ErrChannelMismatch", err)
	}

	ragged := [][]float64{make([]float64, 64), make([]float64, 32)}
	if err := e.Pull(ragged); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("ragged dst error = %v, want ErrChannelMismatch", err)
	}
}

func TestPullZeroLengthConsumesLatches(t *testing.T) {
	e := newTestEngine(t, [][]float64{make([]float64, 4096)})
	e.RequestReposition(100)

	if err := e.Pull([][]float64{{}}); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if e.Playhead() != 100 {
		t.Fatalf("Playhead() = %v, want 100", e.Playhead())
	}
}

func TestLatchValues(t *testing.T) {
	for _, v := range []float64{0, math.Copysign(0, -1), 1, -3.5, math.Inf(1), math.Inf(-1), math.MaxFloat64} {
		var l latch
		if _, ok := l.Take(); ok {
			t.Fatal("zero latch should be empty")
		}

		l.Store(v)
		got, ok := l.Take()
		if !ok || math.Float64bits(got) != math.Float64bits(v) {
			t.Fatalf("Take() = %v, %v, want %v", got, ok, v)
		}
		if l.Pending() {
			t.Fatalf("latch still pending after Take of %v", v)
		}
	}

	var l latch
	l.Store(math.NaN())
	if got, ok := l.Take(); !ok || !math.IsNaN(got) {
		t.Fatalf("Take() = %v, %v, want NaN", got, ok)
	}
}

func TestLatchDoesNotAllocate(t *testing.T) {
	var l latch
	allocs := testing.AllocsPerRun(100, func() {
		l.Store(1234.5)
		l.StoreIfEmpty(1)
		l.Take()
	})
	if allocs != 0 {
		t.Fatalf("allocs per Store/Take = %v, want 0", allocs)
	}
}

func TestTryRepositionDefersToPendingRequest(t *testing.T) {
	e := newTestEngine(t, [][]float64{testutil.DeterministicNoise(9, 0.5, 44100)})
	dst := buffer.NewBlock(1, 256)

	e.RequestReposition(10000)
	if e.TryReposition(500) {
		t.Fatal("TryReposition() = true with a request pending")
	}
	if !e.RepositionPending() {
		t.Fatal("RepositionPending() = false, want true")
	}

	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if got := e.Playhead(); got != 10256 {
		t.Fatalf("Playhead() = %v, want 10256", got)
	}

	if !e.TryReposition(500) {
		t.Fatal("TryReposition() = false on an empty latch")
	}
	e.RequestReposition(2000)
	if err := e.Pull(dst.Planes()); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if got := e.Playhead(); got != 2256 {
		t.Fatalf("Playhead() = %v, want 2256 (explicit request overrides)", got)
	}
}

func TestRepositionOutputIsFullyOverlapped(t *testing.T) {
	src := testutil.DeterministicNoise(13, 0.5, 44100)
	e := newTestEngine(t, [][]float64{src})

	pullAll(t, e, 512, 4096)
	e.RequestReposition(20000)
	out := pullAll(t, e, 512, 2048)

	// No ramp-in after a jump: the very first block already matches.
	testutil.RequireSliceNearlyEqual(t, out[0], src[20000:22048], 1e-9)
}

func BenchmarkPull(b *testing.B) {
	src, _ := buffer.NewSource(testutil.StereoSine(440, 660, testSampleRate, 0.5, 1<<20), testSampleRate)
	e, err := New(src)
	if err != nil {
		b.Fatal(err)
	}
	e.RequestAlpha(1.25)

	dst := buffer.NewBlock(2, 512)
	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		if e.Playhead() > float64(src.Frames()-8192) {
			e.RequestReposition(0)
		}
		if err := e.Pull(dst.Planes()); err != nil {
			b.Fatal(err)
		}
	}
}
