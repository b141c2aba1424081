package padjust

import (
	"math"
	"testing"
)

// TestBenjaminiHochberg_KnownValues checks a hand-computed adjustment
func TestBenjaminiHochberg_KnownValues(t *testing.T) {
	// Sorted p: 0.01, 0.02, 0.03, 0.04 with m=4
	// raw adjusted: 0.04, 0.04, 0.04, 0.04 after the running minimum
	got := BenjaminiHochberg([]float64{0.03, 0.01, 0.04, 0.02})

	want := []float64{0.04, 0.04, 0.04, 0.04}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Index %d: expected %.4f, got %.4f", i, want[i], got[i])
		}
	}
}

// TestBenjaminiHochberg_Properties verifies padj >= p, padj <= 1, and that
// adjusted values preserve the ordering of the raw p-values
func TestBenjaminiHochberg_Properties(t *testing.T) {
	pvalues := []float64{0.001, 0.5, 0.04, 0.9, 0.02, 0.04, 1.0}

	adjusted := BenjaminiHochberg(pvalues)

	if len(adjusted) != len(pvalues) {
		t.Fatalf("Expected %d values, got %d", len(pvalues), len(adjusted))
	}
	for i, p := range pvalues {
		if adjusted[i] < p-1e-12 {
			t.Errorf("padj %f below raw p %f at %d", adjusted[i], p, i)
		}
		if adjusted[i] > 1 {
			t.Errorf("padj %f above 1 at %d", adjusted[i], i)
		}
	}
	for i := range pvalues {
		for j := range pvalues {
			if pvalues[i] < pvalues[j] && adjusted[i] > adjusted[j]+1e-12 {
				t.Errorf("Order violated: p %f -> %f but p %f -> %f",
					pvalues[i], adjusted[i], pvalues[j], adjusted[j])
			}
		}
	}
}

// TestBenjaminiHochberg_Empty verifies the empty family is a no-op
func TestBenjaminiHochberg_Empty(t *testing.T) {
	if got := BenjaminiHochberg(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

// TestBenjaminiHochberg_Single verifies a singleton family is unchanged
func TestBenjaminiHochberg_Single(t *testing.T) {
	got := BenjaminiHochberg([]float64{0.07})
	if len(got) != 1 || math.Abs(got[0]-0.07) > 1e-12 {
		t.Errorf("Expected [0.07], got %v", got)
	}
}
