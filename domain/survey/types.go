package survey

import (
	"fmt"

	"ednastats/domain/core"
)

// CoverRecord is one row of the categorical-vs-continuous survey dataset:
// a grouping label plus a continuous percentage-cover measurement.
type CoverRecord struct {
	Area  string
	Year  string
	Class string
	Cover float64
}

// GroupKey returns the grouping label used for rank comparisons
func (r CoverRecord) GroupKey() core.GroupID {
	return core.GroupID(r.Class)
}

// ConfusionMatrix is a square matrix over class labels with rows as the true
// class and columns as the predicted class.
type ConfusionMatrix struct {
	Labels []string
	Counts [][]int
}

// NewConfusionMatrix creates a zeroed matrix over the given labels
func NewConfusionMatrix(labels []string) *ConfusionMatrix {
	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	return &ConfusionMatrix{Labels: labels, Counts: counts}
}

// Validate checks squareness and non-negative counts
func (cm *ConfusionMatrix) Validate() error {
	if len(cm.Counts) != len(cm.Labels) {
		return fmt.Errorf("confusion matrix has %d rows for %d labels", len(cm.Counts), len(cm.Labels))
	}
	for i, row := range cm.Counts {
		if len(row) != len(cm.Labels) {
			return fmt.Errorf("confusion matrix row %d has %d columns, want %d", i, len(row), len(cm.Labels))
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("confusion matrix cell (%d,%d) is negative", i, j)
			}
		}
	}
	return nil
}

// Total returns the total number of classified samples
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// LabelPair is one reconstructed (true, predicted) observation
type LabelPair struct {
	True      int
	Predicted int
}

// MetricEstimate is a point estimate with a bootstrap percentile interval
type MetricEstimate struct {
	Name     string
	Value    float64
	CILower  float64
	CIUpper  float64
}

// ClassificationReport bundles the four classification metrics
type ClassificationReport struct {
	Accuracy   MetricEstimate
	MacroF1    MetricEstimate
	WeightedF1 MetricEstimate
	MCC        MetricEstimate
	Replicates int
}

// Metrics returns the report's estimates in a fixed order
func (r ClassificationReport) Metrics() []MetricEstimate {
	return []MetricEstimate{r.Accuracy, r.MacroF1, r.WeightedF1, r.MCC}
}

// PairwiseComparison is one post-hoc group-vs-group test result
type PairwiseComparison struct {
	GroupA core.GroupID
	GroupB core.GroupID
	ZStat  float64
	PValue float64
	PAdj   float64
}

// GroupComparisonResult is the outcome of the rank test with post-hoc letters
type GroupComparisonResult struct {
	HStat    float64
	PValue   float64
	DF       int
	Pairwise []PairwiseComparison
	Letters  map[core.GroupID]string
}
