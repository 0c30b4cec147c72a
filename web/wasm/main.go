//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-stretch/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		e, err := webdemo.NewEngine(sr)
		if err != nil {
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	// load(Float32Array interleaved, channels, sampleRate)
	api.Set("load", export(func(args []js.Value) any {
		if engine == nil || len(args) < 3 {
			return "not initialised"
		}
		arr := args[0]
		samples := make([]float32, arr.Length())
		for i := range samples {
			samples[i] = float32(arr.Index(i).Float())
		}
		return errValue(engine.Load(samples, args[1].Int(), args[2].Float()))
	}))

	api.Set("play", export(func(args []js.Value) any {
		if engine == nil {
			return js.Null()
		}
		offset := -1.0
		if len(args) > 0 && args[0].Type() == js.TypeNumber {
			offset = args[0].Float()
		}
		return errValue(engine.Play(offset))
	}))

	api.Set("stop", export(func(args []js.Value) any {
		if engine != nil {
			engine.Stop()
		}
		return js.Null()
	}))

	api.Set("seek", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.Seek(args[0].Float()))
	}))

	api.Set("loop", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		return errValue(engine.SetLoop(args[0].Float(), args[1].Float()))
	}))

	api.Set("unloop", export(func(args []js.Value) any {
		if engine != nil {
			engine.Unloop()
		}
		return js.Null()
	}))

	api.Set("setRate", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return errValue(engine.SetRate(args[0].Float()))
	}))

	api.Set("setVolume", export(func(args []js.Value) any {
		if engine != nil && len(args) > 0 {
			engine.SetVolume(args[0].Float())
		}
		return js.Null()
	}))

	// render(frames) returns interleaved stereo samples.
	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := 2 * args[0].Int()
		buf := make([]float32, n)
		engine.Render(buf)
		arr := js.Global().Get("Float32Array").New(n)
		for i := 0; i < n; i++ {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	api.Set("state", export(func(args []js.Value) any {
		if engine == nil {
			return js.Null()
		}
		st := engine.Status()
		obj := js.Global().Get("Object").New()
		obj.Set("loaded", st.Loaded)
		obj.Set("playing", st.Playing)
		obj.Set("position", st.Position)
		obj.Set("duration", st.Duration)
		obj.Set("rate", st.Rate)
		obj.Set("looping", st.Looping)
		obj.Set("loopStart", st.LoopStart)
		obj.Set("loopEnd", st.LoopEnd)
		obj.Set("volume", st.Volume)
		obj.Set("error", st.Error)
		return obj
	}))

	api.Set("pitch", export(func(args []js.Value) any {
		if engine == nil {
			return 0
		}
		return engine.DominantFrequency()
	}))

	js.Global().Set("AlgoStretch", api)
	select {}
}

func errValue(err error) any {
	if err != nil {
		return err.Error()
	}
	return js.Null()
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
