package groupcmp

import (
	"testing"

	"ednastats/domain/core"
	"ednastats/domain/survey"
)

func pair(a, b string, padj float64) survey.PairwiseComparison {
	return survey.PairwiseComparison{
		GroupA: core.GroupID(a),
		GroupB: core.GroupID(b),
		PValue: padj,
		PAdj:   padj,
	}
}

// TestCompactLetters_Chain covers the classic overlapping case: a and c
// differ but b bridges both, so b needs two letters
func TestCompactLetters_Chain(t *testing.T) {
	order := []core.GroupID{"a", "b", "c"}
	pairwise := []survey.PairwiseComparison{
		pair("a", "b", 0.5),
		pair("a", "c", 0.001),
		pair("b", "c", 0.5),
	}

	letters := CompactLetters(order, pairwise, 0.05)

	if sharesLetter(letters[core.GroupID("a")], letters[core.GroupID("c")]) {
		t.Errorf("a and c must not share a letter: %v", letters)
	}
	if !sharesLetter(letters[core.GroupID("a")], letters[core.GroupID("b")]) {
		t.Errorf("a and b must share a letter: %v", letters)
	}
	if !sharesLetter(letters[core.GroupID("b")], letters[core.GroupID("c")]) {
		t.Errorf("b and c must share a letter: %v", letters)
	}
	if len(letters[core.GroupID("b")]) < 2 {
		t.Errorf("Expected the bridging group to carry two letters, got %q", letters[core.GroupID("b")])
	}
}

// TestCompactLetters_AllDifferent verifies fully separated groups get
// distinct single letters
func TestCompactLetters_AllDifferent(t *testing.T) {
	order := []core.GroupID{"a", "b", "c"}
	pairwise := []survey.PairwiseComparison{
		pair("a", "b", 0.001),
		pair("a", "c", 0.001),
		pair("b", "c", 0.001),
	}

	letters := CompactLetters(order, pairwise, 0.05)

	seen := make(map[string]bool)
	for _, g := range order {
		l := letters[g]
		if len(l) != 1 {
			t.Errorf("Expected one letter for %s, got %q", g, l)
		}
		if seen[l] {
			t.Errorf("Letter %q reused across different groups", l)
		}
		seen[l] = true
	}
}

// TestCompactLetters_NoneDifferent verifies indistinguishable groups share
// one letter
func TestCompactLetters_NoneDifferent(t *testing.T) {
	order := []core.GroupID{"a", "b", "c"}
	pairwise := []survey.PairwiseComparison{
		pair("a", "b", 0.9),
		pair("a", "c", 0.9),
		pair("b", "c", 0.9),
	}

	letters := CompactLetters(order, pairwise, 0.05)

	for _, g := range order {
		if letters[g] != "a" {
			t.Errorf("Expected every group lettered %q, got %v", "a", letters)
		}
	}
}

// TestCompactLetters_BoundaryAlpha verifies padj exactly at alpha counts as
// different
func TestCompactLetters_BoundaryAlpha(t *testing.T) {
	order := []core.GroupID{"a", "b"}
	letters := CompactLetters(order, []survey.PairwiseComparison{pair("a", "b", 0.05)}, 0.05)

	if sharesLetter(letters[core.GroupID("a")], letters[core.GroupID("b")]) {
		t.Errorf("padj == alpha must separate the groups: %v", letters)
	}
}
