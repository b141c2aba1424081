package groupcmp

import (
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"ednastats/domain/core"
	"ednastats/domain/survey"
)

// Engine runs the non-parametric group comparison: Kruskal-Wallis across all
// groups, Dunn's pairwise post-hoc tests with BH adjustment, and a compact
// letter display over the resulting adjacency.
type Engine struct {
	alpha float64
}

// NewEngine creates an engine using alpha as the letter-display significance
// threshold (0.05 by default upstream).
func NewEngine(alpha float64) *Engine {
	return &Engine{alpha: alpha}
}

// Compare runs the full comparison over the survey records' Class groups
func (e *Engine) Compare(records []survey.CoverRecord) (*survey.GroupComparisonResult, error) {
	groups, order := splitGroups(records)
	if len(order) < 2 {
		return nil, core.NewInsufficientDataError("comparison groups", len(order))
	}

	ranked := rankAll(groups, order)

	h, df := kruskalWallisH(ranked, order)
	chi := distuv.ChiSquared{K: float64(df)}
	p := chi.Survival(h)
	if p > 1 {
		p = 1
	}

	pairwise := dunnTest(ranked, order)
	adjustPairwise(pairwise)

	return &survey.GroupComparisonResult{
		HStat:    h,
		PValue:   p,
		DF:       df,
		Pairwise: pairwise,
		Letters:  CompactLetters(order, pairwise, e.alpha),
	}, nil
}

// rankedGroups carries the shared mid-ranks split back into groups plus the
// tie structure needed by both the H statistic and Dunn's z.
type rankedGroups struct {
	ranks   map[core.GroupID][]float64
	n       int
	tieTerm float64 // sum(t^3 - t) over tie groups
}

// splitGroups partitions measurements by group, keeping first-seen order
func splitGroups(records []survey.CoverRecord) (map[core.GroupID][]float64, []core.GroupID) {
	groups := make(map[core.GroupID][]float64)
	var order []core.GroupID
	for _, r := range records {
		g := r.GroupKey()
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], r.Cover)
	}
	return groups, order
}

// rankAll pools every measurement, assigns tie-averaged mid-ranks, and splits
// the ranks back into their groups.
func rankAll(groups map[core.GroupID][]float64, order []core.GroupID) rankedGroups {
	type obs struct {
		value float64
		group core.GroupID
		pos   int
	}
	var pooled []obs
	for _, g := range order {
		for i, v := range groups[g] {
			pooled = append(pooled, obs{value: v, group: g, pos: i})
		}
	}
	sort.SliceStable(pooled, func(a, b int) bool { return pooled[a].value < pooled[b].value })

	ranks := make(map[core.GroupID][]float64)
	for _, g := range order {
		ranks[g] = make([]float64, len(groups[g]))
	}

	tieTerm := 0.0
	i := 0
	n := len(pooled)
	for i < n {
		j := i + 1
		for j < n && pooled[j].value == pooled[i].value {
			j++
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		avgRank := float64(i+1) + (t-1)/2
		for k := i; k < j; k++ {
			ranks[pooled[k].group][pooled[k].pos] = avgRank
		}
		i = j
	}

	return rankedGroups{ranks: ranks, n: n, tieTerm: tieTerm}
}

// kruskalWallisH computes the tie-corrected H statistic and its degrees of
// freedom (k-1).
func kruskalWallisH(rg rankedGroups, order []core.GroupID) (float64, int) {
	n := float64(rg.n)

	h := 0.0
	for _, g := range order {
		sum := 0.0
		for _, r := range rg.ranks[g] {
			sum += r
		}
		ng := float64(len(rg.ranks[g]))
		h += sum * sum / ng
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	// Tie correction divides H by 1 - sum(t^3-t)/(n^3-n)
	correction := 1 - rg.tieTerm/(n*n*n-n)
	if correction > 0 {
		h /= correction
	}

	return h, len(order) - 1
}
