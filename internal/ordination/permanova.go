package ordination

import (
	"math/rand"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// Permanova tests whether group membership explains dissimilarity structure
// better than chance, by partitioning the squared dissimilarities into
// between- and within-group components (pseudo-F) and permuting group labels.
// Only the group column of the metadata is consumed; any extra metadata a
// caller carries has no effect on the fit.
func Permanova(d *ecology.DissimilarityMatrix, metadata *ecology.SampleMetadata, permutations int, rng *rand.Rand) (*ecology.PermanovaResult, error) {
	n := d.Size()
	labels := make([]core.GroupID, n)
	for i, sample := range d.Samples {
		group, ok := metadata.GroupOf(sample)
		if !ok {
			return nil, core.NewInsufficientDataError("group metadata for sample "+string(sample), 0)
		}
		labels[i] = group
	}

	groupCount := len(distinctGroups(labels))
	if groupCount < 2 {
		return nil, core.NewInsufficientDataError("PERMANOVA groups", groupCount)
	}
	if n <= groupCount {
		return nil, core.NewInsufficientDataError("PERMANOVA samples", n)
	}

	observed := pseudoF(d.Data, labels, groupCount)

	// Permute labels holding sample identities fixed; count permuted F at
	// least as large as observed.
	exceed := 0
	permuted := make([]core.GroupID, n)
	copy(permuted, labels)
	for p := 0; p < permutations; p++ {
		rng.Shuffle(n, func(i, j int) {
			permuted[i], permuted[j] = permuted[j], permuted[i]
		})
		if pseudoF(d.Data, permuted, groupCount) >= observed {
			exceed++
		}
	}

	return &ecology.PermanovaResult{
		PseudoF:      observed,
		PValue:       float64(1+exceed) / float64(1+permutations),
		Permutations: permutations,
		DFBetween:    groupCount - 1,
		DFWithin:     n - groupCount,
	}, nil
}

// pseudoF computes the PERMANOVA F statistic from squared dissimilarities:
// SS_total over all pairs, SS_within per group, SS_between by difference.
func pseudoF(d [][]float64, labels []core.GroupID, groupCount int) float64 {
	n := len(labels)

	ssTotal := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ssTotal += d[i][j] * d[i][j]
		}
	}
	ssTotal /= float64(n)

	sizes := make(map[core.GroupID]int)
	for _, g := range labels {
		sizes[g]++
	}

	ssWithin := 0.0
	for g, size := range sizes {
		if size < 2 {
			continue
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			if labels[i] != g {
				continue
			}
			for j := i + 1; j < n; j++ {
				if labels[j] == g {
					sum += d[i][j] * d[i][j]
				}
			}
		}
		ssWithin += sum / float64(size)
	}

	ssBetween := ssTotal - ssWithin
	dfBetween := float64(groupCount - 1)
	dfWithin := float64(n - groupCount)
	if ssWithin <= 0 || dfWithin <= 0 {
		// Perfect separation: within-group variance vanished
		return 1e12
	}
	return (ssBetween / dfBetween) / (ssWithin / dfWithin)
}

func distinctGroups(labels []core.GroupID) []core.GroupID {
	seen := make(map[core.GroupID]bool)
	var out []core.GroupID
	for _, g := range labels {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
