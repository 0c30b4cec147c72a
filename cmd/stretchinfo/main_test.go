package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/window"
)

func TestParseRates(t *testing.T) {
	got, err := parseRates(" 0.5, 1,,2 ")
	if err != nil {
		t.Fatalf("parseRates() error = %v", err)
	}
	if len(got) != 3 || got[0] != 0.5 || got[2] != 2 {
		t.Fatalf("parseRates() = %v, want [0.5 1 2]", got)
	}

	for _, bad := range []string{"", "fast", "0", "-1", "1,NaN"} {
		if _, err := parseRates(bad); err == nil {
			t.Fatalf("parseRates(%q) expected error", bad)
		}
	}
}

func TestPrintRates(t *testing.T) {
	var buf bytes.Buffer
	if err := printRates(&buf, []float64{1, 2, 100}, 44100, nil); err != nil {
		t.Fatalf("printRates() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
	}

	// Rate 2 halves the synthesis hop; rate 100 clamps to alpha 1/8.
	if f := strings.Fields(lines[3]); f[3] != "128" {
		t.Fatalf("rate 2 row = %q, want Hs 128", lines[3])
	}
	if f := strings.Fields(lines[4]); f[1] != "0.1250" || f[4] != "8.0000" {
		t.Fatalf("rate 100 row = %q, want clamped alpha", lines[4])
	}
}

func TestPrintWindowsHannIsFlat(t *testing.T) {
	var buf bytes.Buffer
	if err := printWindows(&buf, []window.Type{window.TypeHann}, 2048, 256); err != nil {
		t.Fatalf("printWindows() error = %v", err)
	}

	row := strings.Fields(strings.Split(strings.TrimSpace(buf.String()), "\n")[2])
	if row[5] != "3.0000" || row[6] != "3.0000" || row[7] != "0.000" {
		t.Fatalf("Hann row = %v, want flat gain 3", row)
	}
	if row[4] != "-31.5" {
		t.Fatalf("Hann sidelobe = %q, want -31.5", row[4])
	}
}
