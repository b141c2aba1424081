package dissim

import (
	"fmt"
	"math"
	"testing"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// TestBrayCurtis_KnownPair checks the pairwise formula on hand-computed values
func TestBrayCurtis_KnownPair(t *testing.T) {
	// sum|x-y| = |1-3|+|2-0| = 4, sum(x+y) = 6, d = 4/6
	got := brayCurtisPair([]float64{1, 2}, []float64{3, 0})

	want := 4.0 / 6.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %.6f, got %.6f", want, got)
	}
}

// TestBrayCurtis_IdenticalSamples verifies d=0 for identical compositions
func TestBrayCurtis_IdenticalSamples(t *testing.T) {
	if got := brayCurtisPair([]float64{1, 2, 3}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("Expected 0 for identical samples, got %f", got)
	}
}

// TestBrayCurtis_DisjointSamples verifies d=1 when samples share no species
func TestBrayCurtis_DisjointSamples(t *testing.T) {
	if got := brayCurtisPair([]float64{5, 0}, []float64{0, 3}); got != 1 {
		t.Errorf("Expected 1 for disjoint samples, got %f", got)
	}
}

// TestBrayCurtis_BothEmpty verifies the degenerate all-zero pair scores 0
func TestBrayCurtis_BothEmpty(t *testing.T) {
	if got := brayCurtisPair([]float64{0, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("Expected 0 for two empty samples, got %f", got)
	}
}

// TestBrayCurtis_MatrixProperties verifies symmetry, zero diagonal, and range
func TestBrayCurtis_MatrixProperties(t *testing.T) {
	values := [][]float64{
		{1, 0, 2.5},
		{0.5, 3, 0},
		{2, 2, 2},
		{0, 0, 1},
	}
	m := ecology.NewAbundanceMatrix()
	species := []core.SpeciesID{"sp1", "sp2", "sp3"}
	for i, row := range values {
		sample := core.SampleID(fmt.Sprintf("s%d", i+1))
		for j, v := range row {
			m.Add(sample, species[j], v)
		}
	}

	d := NewEngine().BrayCurtis(m)

	if d.Size() != 4 {
		t.Fatalf("Expected 4 samples, got %d", d.Size())
	}
	for i := 0; i < d.Size(); i++ {
		if d.At(i, i) != 0 {
			t.Errorf("Expected zero diagonal at %d, got %f", i, d.At(i, i))
		}
		for j := 0; j < d.Size(); j++ {
			if d.At(i, j) != d.At(j, i) {
				t.Errorf("Asymmetry at (%d,%d): %f vs %f", i, j, d.At(i, j), d.At(j, i))
			}
			if d.At(i, j) < 0 || d.At(i, j) > 1 {
				t.Errorf("Value outside [0,1] at (%d,%d): %f", i, j, d.At(i, j))
			}
		}
	}
}
