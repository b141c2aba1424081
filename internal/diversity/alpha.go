package diversity

import (
	"math"

	"ednastats/domain/ecology"
)

// Calculator computes per-sample alpha-diversity indices from an abundance
// matrix: richness, Shannon entropy and the Simpson index.
type Calculator struct{}

// NewCalculator creates a new alpha-diversity calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute returns one row per sample in matrix row order. Samples with no
// recorded group get an empty group label rather than an error; the caller
// decides whether that matters.
func (c *Calculator) Compute(matrix *ecology.AbundanceMatrix, metadata *ecology.SampleMetadata) []ecology.AlphaDiversity {
	rows := make([]ecology.AlphaDiversity, 0, matrix.SampleCount())
	for i, sample := range matrix.Samples {
		group, _ := metadata.GroupOf(sample)
		richness, shannon, simpson := Indices(matrix.Data[i])
		rows = append(rows, ecology.AlphaDiversity{
			Sample:   sample,
			Group:    group,
			Richness: richness,
			Shannon:  shannon,
			Simpson:  simpson,
		})
	}
	return rows
}

// Indices computes richness, Shannon and Simpson for one abundance vector.
// An all-zero vector yields (0, 0, 0); the total is guarded so no index ever
// divides by zero.
func Indices(abundances []float64) (richness int, shannon, simpson float64) {
	total := 0.0
	for _, x := range abundances {
		if x > 0 {
			richness++
			total += x
		}
	}
	if total == 0 {
		return 0, 0, 0
	}

	sumSq := 0.0
	for _, x := range abundances {
		if x <= 0 {
			continue
		}
		p := x / total
		shannon -= p * math.Log(p)
		sumSq += p * p
	}
	simpson = 1 - sumSq
	return richness, shannon, simpson
}
