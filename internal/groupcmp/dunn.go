package groupcmp

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ednastats/domain/core"
	"ednastats/domain/survey"
	"ednastats/internal/padjust"
)

var dunnNormal = distuv.Normal{Mu: 0, Sigma: 1}

// dunnTest runs Dunn's z test for every group pair on the shared mid-ranks.
// The tie term from ranking enters the pooled variance.
func dunnTest(rg rankedGroups, order []core.GroupID) []survey.PairwiseComparison {
	n := float64(rg.n)
	tieCorrection := rg.tieTerm / (12 * (n - 1))

	meanRank := make(map[core.GroupID]float64)
	for _, g := range order {
		sum := 0.0
		for _, r := range rg.ranks[g] {
			sum += r
		}
		meanRank[g] = sum / float64(len(rg.ranks[g]))
	}

	var out []survey.PairwiseComparison
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, b := order[i], order[j]
			na := float64(len(rg.ranks[a]))
			nb := float64(len(rg.ranks[b]))

			variance := (n*(n+1)/12 - tieCorrection) * (1/na + 1/nb)
			z := 0.0
			p := 1.0
			if variance > 0 {
				z = (meanRank[a] - meanRank[b]) / math.Sqrt(variance)
				p = 2 * dunnNormal.Survival(math.Abs(z))
				if p > 1 {
					p = 1
				}
			}
			out = append(out, survey.PairwiseComparison{
				GroupA: a,
				GroupB: b,
				ZStat:  z,
				PValue: p,
			})
		}
	}
	return out
}

// adjustPairwise applies BH across the pairwise family in place
func adjustPairwise(pairs []survey.PairwiseComparison) {
	pvalues := make([]float64, len(pairs))
	for i, p := range pairs {
		pvalues[i] = p.PValue
	}
	adjusted := padjust.BenjaminiHochberg(pvalues)
	for i := range pairs {
		pairs[i].PAdj = adjusted[i]
	}
}
