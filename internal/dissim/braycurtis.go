package dissim

import (
	"math"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// Engine computes pairwise Bray-Curtis dissimilarities over the sample set
type Engine struct{}

// NewEngine creates a new dissimilarity engine
func NewEngine() *Engine {
	return &Engine{}
}

// BrayCurtis builds the full symmetric dissimilarity matrix. The diagonal is
// exactly zero and every entry lies in [0,1] for non-negative input.
func (e *Engine) BrayCurtis(matrix *ecology.AbundanceMatrix) *ecology.DissimilarityMatrix {
	n := matrix.SampleCount()
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := brayCurtisPair(matrix.Data[i], matrix.Data[j])
			data[i][j] = d
			data[j][i] = d
		}
	}

	samples := make([]core.SampleID, len(matrix.Samples))
	copy(samples, matrix.Samples)

	return &ecology.DissimilarityMatrix{Samples: samples, Data: data}
}

// brayCurtisPair computes 1 - 2*sum(min)/sum(x+y). Two all-zero samples are
// defined as identical (distance 0) to avoid 0/0.
func brayCurtisPair(x, y []float64) float64 {
	sumMin := 0.0
	sumTotal := 0.0
	for k := range x {
		sumMin += math.Min(x[k], y[k])
		sumTotal += x[k] + y[k]
	}
	if sumTotal == 0 {
		return 0
	}
	d := 1 - 2*sumMin/sumTotal
	// Clamp tiny float drift back into [0,1]
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
