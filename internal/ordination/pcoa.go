package ordination

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// negEigTolerance separates numerically-zero eigenvalues from genuinely
// negative ones caused by non-Euclidean dissimilarities.
const negEigTolerance = 1e-9

// PCoA performs principal-coordinates analysis (classical MDS) on a
// dissimilarity matrix: Gower double-centering of the squared dissimilarities
// followed by an eigen-decomposition. The two largest positive eigenvalues
// give the retained axes; negative eigenvalues are counted as a diagnostic
// and never treated as an error.
func PCoA(d *ecology.DissimilarityMatrix) (*ecology.OrdinationResult, error) {
	n := d.Size()
	if n < 3 {
		return nil, core.NewInsufficientDataError("PCoA dissimilarity matrix", n)
	}

	// B = -0.5 * J * D^2 * J with J the centering matrix
	b := gowerCenter(d.Data)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Average the off-diagonal pair to keep the matrix exactly symmetric
			sym.SetSym(i, j, (b[i][j]+b[j][i])/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("PCoA eigen-decomposition failed")
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum returns eigenvalues in ascending order; walk from the top
	negEigs := 0
	for _, v := range values {
		if v < -negEigTolerance {
			negEigs++
		}
	}

	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = make([]float64, 2)
	}
	retained := make([]float64, 0, 2)
	axis := 0
	for k := n - 1; k >= 0 && axis < 2; k-- {
		if values[k] <= negEigTolerance {
			break
		}
		scale := math.Sqrt(values[k])
		for i := 0; i < n; i++ {
			coords[i][axis] = vectors.At(i, k) * scale
		}
		retained = append(retained, values[k])
		axis++
	}
	if axis < 2 {
		return nil, fmt.Errorf("%w: only %d positive eigenvalues", core.ErrDegenerateDissimilarity, axis)
	}

	samples := make([]core.SampleID, len(d.Samples))
	copy(samples, d.Samples)

	return &ecology.OrdinationResult{
		Method:       "PCoA",
		Samples:      samples,
		Coordinates:  coords,
		Eigenvalues:  retained,
		NegativeEigs: negEigs,
		Converged:    true,
	}, nil
}

// gowerCenter computes -0.5 * J D^2 J by subtracting row, column and grand
// means of the squared dissimilarities.
func gowerCenter(d [][]float64) [][]float64 {
	n := len(d)
	a := make([][]float64, n)
	rowMean := make([]float64, n)
	grand := 0.0

	for i := range a {
		a[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			a[i][j] = -0.5 * d[i][j] * d[i][j]
			rowMean[i] += a[i][j]
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	b := make([][]float64, n)
	for i := range b {
		b[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			// Row means equal column means for a symmetric input
			b[i][j] = a[i][j] - rowMean[i] - rowMean[j] + grand
		}
	}
	return b
}
