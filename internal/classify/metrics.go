package classify

import (
	"math"

	"ednastats/domain/survey"
)

// ReconstructPairs expands a confusion matrix into per-sample (true,
// predicted) label pairs, row-major. All downstream metrics are
// order-invariant aggregates, so the reconstruction order carries no meaning.
func ReconstructPairs(cm *survey.ConfusionMatrix) []survey.LabelPair {
	pairs := make([]survey.LabelPair, 0, cm.Total())
	for i, row := range cm.Counts {
		for j, count := range row {
			for c := 0; c < count; c++ {
				pairs = append(pairs, survey.LabelPair{True: i, Predicted: j})
			}
		}
	}
	return pairs
}

// MetricSet holds the four classification metrics for one pair sample
type MetricSet struct {
	Accuracy   float64
	MacroF1    float64
	WeightedF1 float64
	MCC        float64
}

// ComputeMetrics scores label pairs over k classes: exact-match accuracy,
// one-vs-rest F1 averaged unweighted (macro) and by support (weighted), and
// the multiclass Matthews correlation coefficient.
func ComputeMetrics(pairs []survey.LabelPair, k int) MetricSet {
	n := len(pairs)
	if n == 0 || k == 0 {
		return MetricSet{}
	}

	counts := make([][]float64, k)
	for i := range counts {
		counts[i] = make([]float64, k)
	}
	correct := 0
	for _, p := range pairs {
		counts[p.True][p.Predicted]++
		if p.True == p.Predicted {
			correct++
		}
	}

	trueTotals := make([]float64, k) // row sums: support per class
	predTotals := make([]float64, k) // column sums
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			trueTotals[i] += counts[i][j]
			predTotals[j] += counts[i][j]
		}
	}

	macroF1 := 0.0
	weightedF1 := 0.0
	for c := 0; c < k; c++ {
		f1 := classF1(counts[c][c], predTotals[c], trueTotals[c])
		macroF1 += f1
		weightedF1 += f1 * trueTotals[c]
	}
	macroF1 /= float64(k)
	weightedF1 /= float64(n)

	return MetricSet{
		Accuracy:   float64(correct) / float64(n),
		MacroF1:    macroF1,
		WeightedF1: weightedF1,
		MCC:        multiclassMCC(counts, trueTotals, predTotals, float64(n)),
	}
}

// classF1 computes one-vs-rest F1 from the diagonal cell and the class'
// predicted and true totals. Classes with no true or predicted members score 0.
func classF1(tp, predicted, actual float64) float64 {
	if predicted == 0 || actual == 0 {
		return 0
	}
	precision := tp / predicted
	recall := tp / actual
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// multiclassMCC is the Gorodkin generalization:
// (c*s - sum(p_k*t_k)) / sqrt((s^2 - sum(p_k^2)) * (s^2 - sum(t_k^2)))
func multiclassMCC(counts [][]float64, trueTotals, predTotals []float64, s float64) float64 {
	c := 0.0
	for i := range counts {
		c += counts[i][i]
	}

	sumPT := 0.0
	sumPP := 0.0
	sumTT := 0.0
	for kk := range trueTotals {
		sumPT += predTotals[kk] * trueTotals[kk]
		sumPP += predTotals[kk] * predTotals[kk]
		sumTT += trueTotals[kk] * trueTotals[kk]
	}

	den := math.Sqrt((s*s - sumPP) * (s*s - sumTT))
	if den == 0 {
		// Degenerate margins (single observed class); define as 0
		return 0
	}
	return (c*s - sumPT) / den
}
