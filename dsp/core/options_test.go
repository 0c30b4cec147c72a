package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithFrameSize(1024), WithOverlap(4), WithBlockSize(512), WithAlphaRange(0.25, 2))
	if cfg.FrameSize != 1024 {
		t.Fatalf("frame size = %d, want 1024", cfg.FrameSize)
	}
	if cfg.Overlap != 4 {
		t.Fatalf("overlap = %d, want 4", cfg.Overlap)
	}
	if cfg.BlockSize != 512 {
		t.Fatalf("block size = %d, want 512", cfg.BlockSize)
	}
	if cfg.MinAlpha != 0.25 || cfg.MaxAlpha != 2 {
		t.Fatalf("alpha range = [%v, %v], want [0.25, 2]", cfg.MinAlpha, cfg.MaxAlpha)
	}
	if got := cfg.AnalysisHop(); got != 256 {
		t.Fatalf("AnalysisHop() = %d, want 256", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithFrameSize(0), WithOverlap(-1), WithBlockSize(-1), WithAlphaRange(2, 1), nil)
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProcessorConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*ProcessorConfig) {}},
		{name: "non power of two", mutate: func(c *ProcessorConfig) { c.FrameSize = 1000 }, wantErr: true},
		{name: "too small", mutate: func(c *ProcessorConfig) { c.FrameSize = 32 }, wantErr: true},
		{name: "overlap 3", mutate: func(c *ProcessorConfig) { c.Overlap = 3 }, wantErr: true},
		{name: "overlap 16", mutate: func(c *ProcessorConfig) { c.Overlap = 16 }},
		{name: "zero block", mutate: func(c *ProcessorConfig) { c.BlockSize = 0 }, wantErr: true},
		{name: "inverted alpha", mutate: func(c *ProcessorConfig) { c.MinAlpha, c.MaxAlpha = 4, 1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultProcessorConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveAlphaRange(t *testing.T) {
	tests := []struct {
		name    string
		overlap int
		min     float64
		max     float64
		wantMin float64
		wantMax float64
		wantHop int
	}{
		{name: "defaults", overlap: 8, min: 0.125, max: 4, wantMin: 0.125, wantMax: 4, wantHop: 1024},
		{name: "overlap-4-caps-max", overlap: 4, min: 0.125, max: 4, wantMin: 0.125, wantMax: 2, wantHop: 1024},
		{name: "overlap-2-caps-both", overlap: 2, min: 2, max: 4, wantMin: 1, wantMax: 1, wantHop: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ApplyProcessorOptions(WithOverlap(tt.overlap), WithAlphaRange(tt.min, tt.max))

			gotMin, gotMax := cfg.EffectiveAlphaRange()
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Fatalf("EffectiveAlphaRange() = (%v, %v), want (%v, %v)", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
			if got := cfg.MaxSynthesisHop(); got != tt.wantHop {
				t.Fatalf("MaxSynthesisHop() = %d, want %d", got, tt.wantHop)
			}
		})
	}
}
