package diffabund

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/semaphore"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/internal"
	"ednastats/internal/padjust"
)

// Engine converts abundance fractions to pseudo-counts and fits a
// dispersion-aware count model per species comparing two groups. Species
// whose model cannot estimate dispersion are reported as NA rows, not errors.
type Engine struct {
	scale   float64
	workers int64
	logger  *internal.Logger
}

// NewEngine creates a differential-abundance engine. scale is the
// pseudo-count multiplier (1e6 by default upstream); workers bounds the
// per-species fit concurrency.
func NewEngine(scale float64, workers int, logger *internal.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{scale: scale, workers: int64(workers), logger: logger}
}

// PseudoCount converts one abundance fraction to an integer pseudo-count.
// The +1 keeps every count positive, which the count model requires.
func (e *Engine) PseudoCount(abundance float64) float64 {
	return math.Round(abundance*e.scale) + 1
}

// Analyze fits every species independently on a fixed-size worker pool and
// adjusts p-values across the species family with Benjamini-Hochberg.
// Output order equals matrix column order; results are keyed by species
// index so pool scheduling cannot reorder them.
func (e *Engine) Analyze(ctx context.Context, matrix *ecology.AbundanceMatrix, metadata *ecology.SampleMetadata, groupA, groupB core.GroupID) ([]ecology.DifferentialAbundance, error) {
	idxA, idxB := groupIndices(matrix, metadata, groupA, groupB)
	if len(idxA) == 0 || len(idxB) == 0 {
		return nil, core.NewInsufficientDataError("differential abundance groups", len(idxA)+len(idxB))
	}

	e.logger.Debug("[DiffAbund] fitting %d species (%d vs %d samples, %d workers)",
		matrix.SpeciesCount(), len(idxA), len(idxB), e.workers)

	results := make([]ecology.DifferentialAbundance, matrix.SpeciesCount())
	sem := semaphore.NewWeighted(e.workers)
	var wg sync.WaitGroup

	for s := 0; s < matrix.SpeciesCount(); s++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(s int) {
			defer sem.Release(1)
			defer wg.Done()
			results[s] = e.fitSpecies(matrix, s, idxA, idxB)
		}(s)
	}
	wg.Wait()

	e.adjustFamily(results)
	return results, nil
}

// fitSpecies runs one species' pseudo-count transform and NB fit
func (e *Engine) fitSpecies(matrix *ecology.AbundanceMatrix, s int, idxA, idxB []int) ecology.DifferentialAbundance {
	species := matrix.Species[s]
	column, err := matrix.Column(species)
	if err != nil {
		e.logger.Warn("[DiffAbund] species %s: %v, recording NA", species, err)
		return ecology.DifferentialAbundance{Species: species, OK: false}
	}

	counts := make([]float64, 0, len(idxA)+len(idxB))
	for _, row := range idxA {
		counts = append(counts, e.PseudoCount(column[row]))
	}
	for _, row := range idxB {
		counts = append(counts, e.PseudoCount(column[row]))
	}
	countsA := counts[:len(idxA)]
	countsB := counts[len(idxA):]

	fit, err := FitTwoGroupNB(countsA, countsB)
	if err != nil {
		e.logger.Warn("[DiffAbund] species %s: %v, recording NA", species, err)
		// The pooled mean is defined even when the model is not
		return ecology.DifferentialAbundance{Species: species, BaseMean: mean(counts), OK: false}
	}

	return ecology.DifferentialAbundance{
		Species:        species,
		BaseMean:       fit.BaseMean,
		Log2FoldChange: fit.Log2FoldChange,
		LfcSE:          fit.LfcSE,
		Stat:           fit.Stat,
		PValue:         fit.PValue,
		OK:             true,
	}
}

// adjustFamily applies BH across the species that produced estimates.
// NA rows are excluded from the family and stay NA.
func (e *Engine) adjustFamily(results []ecology.DifferentialAbundance) {
	var pvalues []float64
	var positions []int
	for i, r := range results {
		if r.OK {
			pvalues = append(pvalues, r.PValue)
			positions = append(positions, i)
		}
	}
	adjusted := padjust.BenjaminiHochberg(pvalues)
	for k, pos := range positions {
		results[pos].PAdj = adjusted[k]
	}
}

// groupIndices collects matrix row indices for the two compared groups
func groupIndices(matrix *ecology.AbundanceMatrix, metadata *ecology.SampleMetadata, groupA, groupB core.GroupID) (idxA, idxB []int) {
	for i, sample := range matrix.Samples {
		group, ok := metadata.GroupOf(sample)
		if !ok {
			continue
		}
		switch group {
		case groupA:
			idxA = append(idxA, i)
		case groupB:
			idxB = append(idxB, i)
		}
	}
	return idxA, idxB
}
