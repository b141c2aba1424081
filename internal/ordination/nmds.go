package ordination

import (
	"math"
	"math/rand"
	"sort"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// NMDSConfig tunes the stress-minimization search
type NMDSConfig struct {
	Tries      int     // random restarts, best stress wins
	MaxIter    int     // iterations per restart
	MaxStress  float64 // acceptable stress; above this the result is non-converged
	Dimensions int
}

// DefaultNMDSConfig returns the standard two-dimensional setup
func DefaultNMDSConfig() NMDSConfig {
	return NMDSConfig{
		Tries:      20,
		MaxIter:    300,
		MaxStress:  0.20,
		Dimensions: 2,
	}
}

// NMDS embeds the dissimilarity matrix into two dimensions by Kruskal
// stress-1 minimization: monotone (isotonic) regression of embedded distances
// on the dissimilarities, alternated with Guttman-transform coordinate
// updates. Each restart draws its initial configuration from rng; the lowest
// stress across restarts is kept. A final stress above MaxStress is reported
// through the Converged flag, never silently accepted.
func NMDS(d *ecology.DissimilarityMatrix, cfg NMDSConfig, rng *rand.Rand) (*ecology.OrdinationResult, error) {
	n := d.Size()
	if n < 3 {
		return nil, core.NewInsufficientDataError("NMDS dissimilarity matrix", n)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 2
	}

	pairs := dissimilarityPairs(d)

	bestStress := math.Inf(1)
	var bestCoords [][]float64
	for try := 0; try < cfg.Tries; try++ {
		coords := randomConfiguration(n, cfg.Dimensions, rng)
		stress := minimizeStress(coords, pairs, cfg.MaxIter)
		if stress < bestStress {
			bestStress = stress
			bestCoords = coords
		}
	}

	samples := make([]core.SampleID, len(d.Samples))
	copy(samples, d.Samples)

	return &ecology.OrdinationResult{
		Method:      "NMDS",
		Samples:     samples,
		Coordinates: bestCoords,
		Stress:      bestStress,
		Converged:   bestStress <= cfg.MaxStress,
		Tries:       cfg.Tries,
	}, nil
}

// pair is one (i,j) dissimilarity, i<j
type pair struct {
	i, j int
	diss float64
}

// dissimilarityPairs extracts the upper triangle sorted by dissimilarity.
// The monotone regression runs over this order; ties keep index order, which
// is stable across runs.
func dissimilarityPairs(d *ecology.DissimilarityMatrix) []pair {
	n := d.Size()
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{i: i, j: j, diss: d.Data[i][j]})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].diss < pairs[b].diss })
	return pairs
}

func randomConfiguration(n, dims int, rng *rand.Rand) [][]float64 {
	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = make([]float64, dims)
		for k := range coords[i] {
			coords[i][k] = rng.Float64()*2 - 1
		}
	}
	return coords
}

// minimizeStress runs the alternating monotone-regression / Guttman-update
// loop in place and returns the final stress-1 value.
func minimizeStress(coords [][]float64, pairs []pair, maxIter int) float64 {
	n := len(coords)
	dist := make([]float64, len(pairs))
	prev := math.Inf(1)

	for iter := 0; iter < maxIter; iter++ {
		for p, pr := range pairs {
			dist[p] = euclidean(coords[pr.i], coords[pr.j])
		}
		dhat := isotonicRegression(dist)
		stress := stress1(dist, dhat)
		if prev-stress < 1e-6 && iter > 0 {
			break
		}
		prev = stress

		guttmanUpdate(coords, pairs, dist, dhat, n)
	}

	// The loop may exit right after a coordinate update; measure stress on
	// the configuration actually returned.
	for p, pr := range pairs {
		dist[p] = euclidean(coords[pr.i], coords[pr.j])
	}
	return stress1(dist, isotonicRegression(dist))
}

// guttmanUpdate moves every point toward the configuration whose distances
// match the disparities dhat.
func guttmanUpdate(coords [][]float64, pairs []pair, dist, dhat []float64, n int) {
	dims := len(coords[0])
	next := make([][]float64, n)
	for i := range next {
		next[i] = make([]float64, dims)
	}

	for p, pr := range pairs {
		ratio := 0.0
		if dist[p] > 1e-12 {
			ratio = dhat[p] / dist[p]
		}
		for k := 0; k < dims; k++ {
			diff := coords[pr.i][k] - coords[pr.j][k]
			next[pr.i][k] += coords[pr.j][k] + ratio*diff
			next[pr.j][k] += coords[pr.i][k] - ratio*diff
		}
	}

	inv := 1 / float64(n-1)
	for i := 0; i < n; i++ {
		for k := 0; k < dims; k++ {
			coords[i][k] = next[i][k] * inv
		}
	}
}

// isotonicRegression fits a non-decreasing sequence to values by pool
// adjacent violators with unit weights.
func isotonicRegression(values []float64) []float64 {
	n := len(values)
	fitted := make([]float64, n)
	copy(fitted, values)
	weight := make([]float64, n)
	index := make([]int, n) // right edge of each block
	blocks := 0

	for i := 0; i < n; i++ {
		blocks++
		fitted[blocks-1] = values[i]
		weight[blocks-1] = 1
		index[blocks-1] = i
		for blocks > 1 && fitted[blocks-2] > fitted[blocks-1] {
			merged := (weight[blocks-2]*fitted[blocks-2] + weight[blocks-1]*fitted[blocks-1]) /
				(weight[blocks-2] + weight[blocks-1])
			weight[blocks-2] += weight[blocks-1]
			fitted[blocks-2] = merged
			index[blocks-2] = index[blocks-1]
			blocks--
		}
	}

	out := make([]float64, n)
	start := 0
	for b := 0; b < blocks; b++ {
		for i := start; i <= index[b]; i++ {
			out[i] = fitted[b]
		}
		start = index[b] + 1
	}
	return out
}

// stress1 computes Kruskal's stress-1: sqrt(sum((d-dhat)^2)/sum(d^2))
func stress1(dist, dhat []float64) float64 {
	num := 0.0
	den := 0.0
	for p := range dist {
		diff := dist[p] - dhat[p]
		num += diff * diff
		den += dist[p] * dist[p]
	}
	if den == 0 {
		return 0
	}
	return math.Sqrt(num / den)
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for k := range a {
		diff := a[k] - b[k]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
