package vocoder_test

import (
	"fmt"

	"github.com/cwbudde/algo-stretch/dsp/ring"
	"github.com/cwbudde/algo-stretch/dsp/vocoder"
)

func ExampleChannel() {
	src := make([]float64, 8192)

	ch, err := vocoder.New(src)
	if err != nil {
		panic(err)
	}
	ch.SetAlpha(1.5)

	out, _ := ring.New(ch.MaxSynthesisHop())
	total := 0
	for range 4 {
		n, _ := ch.Process(out)
		total += n
		out.Reset()
	}

	fmt.Println(ch.AnalysisHop(), ch.SynthesisHop(), total, ch.Cursor())
	// Output:
	// 256 384 1536 1024
}
