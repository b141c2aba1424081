package classify

import (
	"math/rand"
	"testing"

	"ednastats/domain/survey"
)

// TestEstimator_PerfectClassifier verifies every resample of a pure diagonal
// is also perfect, collapsing the intervals to [1,1]
func TestEstimator_PerfectClassifier(t *testing.T) {
	cm := survey.NewConfusionMatrix([]string{"a", "b", "c"})
	cm.Counts = [][]int{
		{4, 0, 0},
		{0, 6, 0},
		{0, 0, 5},
	}

	report, err := NewEstimator(200).Estimate(cm, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if report.Replicates != 200 {
		t.Errorf("Expected 200 replicates, got %d", report.Replicates)
	}
	for _, m := range report.Metrics() {
		if m.Value != 1 {
			t.Errorf("%s: expected point estimate 1, got %f", m.Name, m.Value)
		}
		if m.CILower != 1 || m.CIUpper != 1 {
			t.Errorf("%s: expected CI [1,1], got [%f,%f]", m.Name, m.CILower, m.CIUpper)
		}
	}
}

// TestEstimator_FewReplicates verifies iteration counts below the 2.5th
// percentile rank still produce intervals, falling back to the replicate
// extremes
func TestEstimator_FewReplicates(t *testing.T) {
	cm := survey.NewConfusionMatrix([]string{"a", "b"})
	cm.Counts = [][]int{
		{3, 0},
		{0, 2},
	}

	for _, iterations := range []int{2, 20, 39} {
		report, err := NewEstimator(iterations).Estimate(cm, rand.New(rand.NewSource(5)))
		if err != nil {
			t.Fatalf("Estimate with %d iterations failed: %v", iterations, err)
		}
		// Every resample of perfect pairs scores accuracy 1; the other
		// metrics drop when a resample misses a class, but the interval
		// must still be ordered
		if report.Accuracy.CILower != 1 || report.Accuracy.CIUpper != 1 {
			t.Errorf("%d iterations: expected accuracy CI [1,1], got [%f,%f]",
				iterations, report.Accuracy.CILower, report.Accuracy.CIUpper)
		}
		for _, m := range report.Metrics() {
			if m.CILower > m.CIUpper {
				t.Errorf("%d iterations, %s: lower %f above upper %f",
					iterations, m.Name, m.CILower, m.CIUpper)
			}
		}
	}
}

// TestEstimator_IntervalContainsPoint verifies CI ordering and bounds on an
// imperfect matrix
func TestEstimator_IntervalContainsPoint(t *testing.T) {
	cm := survey.NewConfusionMatrix([]string{"reef", "sand"})
	cm.Counts = [][]int{
		{18, 4},
		{6, 12},
	}

	report, err := NewEstimator(2000).Estimate(cm, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	for _, m := range report.Metrics() {
		if m.CILower > m.CIUpper {
			t.Errorf("%s: lower %f above upper %f", m.Name, m.CILower, m.CIUpper)
		}
		if m.Value < m.CILower-0.05 || m.Value > m.CIUpper+0.05 {
			t.Errorf("%s: point %f far outside CI [%f,%f]", m.Name, m.Value, m.CILower, m.CIUpper)
		}
		if m.CIUpper-m.CILower <= 0 {
			t.Errorf("%s: expected a non-degenerate interval, got [%f,%f]", m.Name, m.CILower, m.CIUpper)
		}
	}
	if report.Accuracy.Value != 30.0/40.0 {
		t.Errorf("Expected accuracy 0.75, got %f", report.Accuracy.Value)
	}
}

// TestEstimator_Deterministic verifies a fixed seed reproduces the intervals
func TestEstimator_Deterministic(t *testing.T) {
	cm := survey.NewConfusionMatrix([]string{"a", "b"})
	cm.Counts = [][]int{
		{9, 3},
		{2, 11},
	}

	first, err := NewEstimator(500).Estimate(cm, rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	second, err := NewEstimator(500).Estimate(cm, rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatalf("Estimate rerun failed: %v", err)
	}

	a, b := first.Metrics(), second.Metrics()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Metric %s differs across identical seeds: %+v vs %+v", a[i].Name, a[i], b[i])
		}
	}
}

// TestEstimator_EmptyMatrix verifies the zero-observation guard
func TestEstimator_EmptyMatrix(t *testing.T) {
	cm := survey.NewConfusionMatrix([]string{"a", "b"})

	if _, err := NewEstimator(100).Estimate(cm, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("Expected error for an empty confusion matrix")
	}
}

// TestEstimator_MalformedMatrix verifies validation runs before estimation
func TestEstimator_MalformedMatrix(t *testing.T) {
	cm := &survey.ConfusionMatrix{
		Labels: []string{"a", "b"},
		Counts: [][]int{{1, 2}},
	}

	if _, err := NewEstimator(100).Estimate(cm, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("Expected validation error for a non-square matrix")
	}
}
