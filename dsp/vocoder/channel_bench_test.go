package vocoder

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/ring"
	"github.com/cwbudde/algo-stretch/internal/testutil"
)

func BenchmarkProcess(b *testing.B) {
	for _, alpha := range []float64{0.5, 1, 2} {
		b.Run(fmt.Sprintf("alpha=%g", alpha), func(b *testing.B) {
			src := testutil.DeterministicNoise(1, 0.5, 1<<18)

			c, err := New(src)
			if err != nil {
				b.Fatal(err)
			}
			c.SetAlpha(alpha)

			r, _ := ring.New(c.MaxSynthesisHop())
			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				if c.Cursor() >= float64(len(src)) {
					c.Reseat(0)
				}
				if _, err := c.Process(r); err != nil {
					b.Fatal(err)
				}
				r.Reset()
			}
		})
	}
}
