// Package padjust provides multiple-comparison p-value corrections shared by
// the differential-abundance and group-comparison engines.
package padjust

import (
	"sort"
)

// BenjaminiHochberg adjusts raw p-values for false discovery rate control.
// The returned slice is aligned with the input; adjusted values are clamped
// to [p, 1] and are monotone non-decreasing when the raw p-values are sorted
// ascending.
func BenjaminiHochberg(pvalues []float64) []float64 {
	n := len(pvalues)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	adjusted := make([]float64, n)
	running := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		idx := order[rank]
		candidate := pvalues[idx] * float64(n) / float64(rank+1)
		if candidate < running {
			running = candidate
		}
		adjusted[idx] = running
	}
	return adjusted
}
