package groupcmp

import (
	"ednastats/domain/core"
	"ednastats/domain/survey"
)

// CompactLetters assigns display letters so that two groups share a letter
// exactly when their adjusted pairwise p-value exceeds alpha (not
// significantly different). Letter classes are built greedily in first-seen
// group order, a repair pass covers non-different pairs the greedy step
// split apart, and subset classes are absorbed. Where several valid
// letterings exist the first one found is accepted.
func CompactLetters(order []core.GroupID, pairwise []survey.PairwiseComparison, alpha float64) map[core.GroupID]string {
	different := make(map[[2]core.GroupID]bool)
	for _, p := range pairwise {
		if p.PAdj <= alpha {
			different[[2]core.GroupID{p.GroupA, p.GroupB}] = true
			different[[2]core.GroupID{p.GroupB, p.GroupA}] = true
		}
	}
	compatible := func(g core.GroupID, members []core.GroupID) bool {
		for _, m := range members {
			if different[[2]core.GroupID{g, m}] {
				return false
			}
		}
		return true
	}

	var classes [][]core.GroupID
	for _, g := range order {
		placed := false
		for c := range classes {
			if compatible(g, classes[c]) {
				classes[c] = append(classes[c], g)
				placed = true
			}
		}
		if !placed {
			classes = append(classes, []core.GroupID{g})
		}
	}

	// Repair: every non-different pair must share at least one class
	shareClass := func(a, b core.GroupID) bool {
		for _, members := range classes {
			hasA, hasB := false, false
			for _, m := range members {
				hasA = hasA || m == a
				hasB = hasB || m == b
			}
			if hasA && hasB {
				return true
			}
		}
		return false
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, b := order[i], order[j]
			if different[[2]core.GroupID{a, b}] || shareClass(a, b) {
				continue
			}
			members := []core.GroupID{a, b}
			for _, g := range order {
				if g == a || g == b {
					continue
				}
				if compatible(g, members) {
					members = append(members, g)
				}
			}
			classes = append(classes, members)
		}
	}

	classes = dropSubsets(classes)

	letters := make(map[core.GroupID]string)
	for c, members := range classes {
		letter := string(rune('a' + c%26))
		for _, g := range members {
			letters[g] += letter
		}
	}
	return letters
}

// dropSubsets removes classes wholly contained in another class so groups do
// not accumulate redundant letters.
func dropSubsets(classes [][]core.GroupID) [][]core.GroupID {
	var kept [][]core.GroupID
	for i, candidate := range classes {
		subset := false
		for j, other := range classes {
			if i == j || len(candidate) > len(other) {
				continue
			}
			if i > j && len(candidate) == len(other) {
				// Equal sets keep only their first occurrence
				if isSubset(candidate, other) {
					subset = true
					break
				}
				continue
			}
			if len(candidate) < len(other) && isSubset(candidate, other) {
				subset = true
				break
			}
		}
		if !subset {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func isSubset(inner, outer []core.GroupID) bool {
	set := make(map[core.GroupID]bool, len(outer))
	for _, g := range outer {
		set[g] = true
	}
	for _, g := range inner {
		if !set[g] {
			return false
		}
	}
	return true
}
