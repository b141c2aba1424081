package classify

import (
	"math/rand"

	"github.com/montanaflynn/stats"

	"ednastats/domain/core"
	"ednastats/domain/survey"
)

// Estimator bootstraps confidence intervals for classification-quality
// metrics derived from a confusion matrix.
type Estimator struct {
	iterations int
}

// NewEstimator creates an estimator running the given number of bootstrap
// replicates (2000 by default upstream).
func NewEstimator(iterations int) *Estimator {
	if iterations < 1 {
		iterations = 1
	}
	return &Estimator{iterations: iterations}
}

// Estimate reconstructs label pairs from the confusion matrix, scores the
// point estimates, then resamples N pairs with replacement per replicate and
// takes the [2.5, 97.5] percentile interval of each metric. Each replicate is
// ephemeral: drawn, scored, discarded.
func (e *Estimator) Estimate(cm *survey.ConfusionMatrix, rng *rand.Rand) (*survey.ClassificationReport, error) {
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	pairs := ReconstructPairs(cm)
	n := len(pairs)
	if n == 0 {
		return nil, core.NewInsufficientDataError("confusion matrix", 0)
	}
	k := len(cm.Labels)

	point := ComputeMetrics(pairs, k)

	accuracy := make([]float64, e.iterations)
	macroF1 := make([]float64, e.iterations)
	weightedF1 := make([]float64, e.iterations)
	mcc := make([]float64, e.iterations)

	resample := make([]survey.LabelPair, n)
	for b := 0; b < e.iterations; b++ {
		for i := range resample {
			resample[i] = pairs[rng.Intn(n)]
		}
		m := ComputeMetrics(resample, k)
		accuracy[b] = m.Accuracy
		macroF1[b] = m.MacroF1
		weightedF1[b] = m.WeightedF1
		mcc[b] = m.MCC
	}

	report := &survey.ClassificationReport{Replicates: e.iterations}
	var err error
	if report.Accuracy, err = estimate("accuracy", point.Accuracy, accuracy); err != nil {
		return nil, err
	}
	if report.MacroF1, err = estimate("macro_f1", point.MacroF1, macroF1); err != nil {
		return nil, err
	}
	if report.WeightedF1, err = estimate("weighted_f1", point.WeightedF1, weightedF1); err != nil {
		return nil, err
	}
	if report.MCC, err = estimate("mcc", point.MCC, mcc); err != nil {
		return nil, err
	}
	return report, nil
}

// estimate wraps a point value with the percentile interval of its replicates
func estimate(name string, value float64, replicates []float64) (survey.MetricEstimate, error) {
	lower, err := percentile(replicates, 2.5)
	if err != nil {
		return survey.MetricEstimate{}, err
	}
	upper, err := percentile(replicates, 97.5)
	if err != nil {
		return survey.MetricEstimate{}, err
	}
	return survey.MetricEstimate{Name: name, Value: value, CILower: lower, CIUpper: upper}, nil
}

// percentile defers to montanaflynn/stats but tolerates replicate sets too
// small for its rank method, which rejects any p with rank below one. Tail
// percentiles of such sets collapse to the extremes.
func percentile(values []float64, p float64) (float64, error) {
	if p/100*float64(len(values)) < 1 {
		if p < 50 {
			return stats.Min(values)
		}
		return stats.Max(values)
	}
	return stats.Percentile(values, p)
}
