package ecology

import (
	"fmt"

	"ednastats/domain/core"
)

// TaxonRecord is one raw row of the wide taxonomic table: a lineage plus one
// percentage-abundance string per sample column. Abundance values are kept as
// raw strings here; parsing happens in the reshaper so that parse failures can
// name the offending cell.
type TaxonRecord struct {
	Lineage    Lineage
	Abundances map[core.SampleID]string
}

// Lineage holds the taxonomic ranks from domain down to species
type Lineage struct {
	Domain  string
	Phylum  string
	Class   string
	Order   string
	Family  string
	Genus   string
	Species string
}

// Key returns the species-level label used as a matrix column.
// Falls back through the ranks so unnamed species still get a stable key.
func (l Lineage) Key() core.SpeciesID {
	for _, rank := range []string{l.Species, l.Genus, l.Family, l.Order, l.Class, l.Phylum, l.Domain} {
		if rank != "" {
			return core.SpeciesID(rank)
		}
	}
	return core.SpeciesID("unclassified")
}

// AbundanceMatrix is a dense sample-by-species matrix of non-negative
// abundances. Rows keep first-seen sample order, columns keep first-seen
// species order; missing combinations are zero-filled.
type AbundanceMatrix struct {
	Samples []core.SampleID
	Species []core.SpeciesID
	Data    [][]float64 // rows=samples, cols=species

	sampleIdx  map[core.SampleID]int
	speciesIdx map[core.SpeciesID]int
}

// NewAbundanceMatrix creates an empty matrix ready for incremental fill
func NewAbundanceMatrix() *AbundanceMatrix {
	return &AbundanceMatrix{
		sampleIdx:  make(map[core.SampleID]int),
		speciesIdx: make(map[core.SpeciesID]int),
	}
}

// Add accumulates abundance into the (sample, species) cell, growing the
// matrix on first sight of either label. Duplicate cells sum, never overwrite.
func (m *AbundanceMatrix) Add(sample core.SampleID, species core.SpeciesID, abundance float64) {
	si, ok := m.sampleIdx[sample]
	if !ok {
		si = len(m.Samples)
		m.sampleIdx[sample] = si
		m.Samples = append(m.Samples, sample)
		m.Data = append(m.Data, make([]float64, len(m.Species)))
	}
	ci, ok := m.speciesIdx[species]
	if !ok {
		ci = len(m.Species)
		m.speciesIdx[species] = ci
		m.Species = append(m.Species, species)
		for i := range m.Data {
			m.Data[i] = append(m.Data[i], 0)
		}
	}
	m.Data[si][ci] += abundance
}

// Row returns the abundance vector for a sample
func (m *AbundanceMatrix) Row(sample core.SampleID) ([]float64, error) {
	si, ok := m.sampleIdx[sample]
	if !ok {
		return nil, fmt.Errorf("sample %s not in abundance matrix", sample)
	}
	return m.Data[si], nil
}

// Column returns the abundance vector for a species across all samples
func (m *AbundanceMatrix) Column(species core.SpeciesID) ([]float64, error) {
	ci, ok := m.speciesIdx[species]
	if !ok {
		return nil, fmt.Errorf("species %s not in abundance matrix", species)
	}
	col := make([]float64, len(m.Samples))
	for i := range m.Data {
		col[i] = m.Data[i][ci]
	}
	return col, nil
}

// SampleCount returns the number of samples (rows)
func (m *AbundanceMatrix) SampleCount() int { return len(m.Samples) }

// SpeciesCount returns the number of species (columns)
func (m *AbundanceMatrix) SpeciesCount() int { return len(m.Species) }

// SampleMetadata maps each sample to exactly one group label
type SampleMetadata struct {
	Order  []core.SampleID
	Groups map[core.SampleID]core.GroupID
}

// NewSampleMetadata creates empty metadata
func NewSampleMetadata() *SampleMetadata {
	return &SampleMetadata{Groups: make(map[core.SampleID]core.GroupID)}
}

// Assign records the group for a sample; repeated assignment is deduplicated
// and must agree with the previous one.
func (md *SampleMetadata) Assign(sample core.SampleID, group core.GroupID) error {
	if prev, ok := md.Groups[sample]; ok {
		if prev != group {
			return fmt.Errorf("sample %s assigned to both group %s and group %s", sample, prev, group)
		}
		return nil
	}
	md.Order = append(md.Order, sample)
	md.Groups[sample] = group
	return nil
}

// GroupOf returns the group for a sample
func (md *SampleMetadata) GroupOf(sample core.SampleID) (core.GroupID, bool) {
	g, ok := md.Groups[sample]
	return g, ok
}

// GroupLabels returns the distinct groups in first-seen order
func (md *SampleMetadata) GroupLabels() []core.GroupID {
	seen := make(map[core.GroupID]bool)
	var out []core.GroupID
	for _, s := range md.Order {
		g := md.Groups[s]
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// DissimilarityMatrix is a symmetric zero-diagonal matrix over the sample set
type DissimilarityMatrix struct {
	Samples []core.SampleID
	Data    [][]float64
}

// At returns the dissimilarity between samples i and j by index
func (d *DissimilarityMatrix) At(i, j int) float64 { return d.Data[i][j] }

// Size returns the number of samples
func (d *DissimilarityMatrix) Size() int { return len(d.Samples) }

// AlphaDiversity holds the per-sample diversity indices
type AlphaDiversity struct {
	Sample   core.SampleID
	Group    core.GroupID
	Richness int
	Shannon  float64
	Simpson  float64
}

// OrdinationResult maps each sample to a fixed-length coordinate vector
type OrdinationResult struct {
	Method      string // "NMDS" or "PCoA"
	Samples     []core.SampleID
	Coordinates [][]float64 // one row per sample, 2 axes

	// NMDS diagnostics
	Stress    float64
	Converged bool
	Tries     int

	// PCoA diagnostics
	Eigenvalues  []float64
	NegativeEigs int
}

// PermanovaResult is the outcome of the distance-based permutation test
type PermanovaResult struct {
	PseudoF      float64
	PValue       float64
	Permutations int
	DFBetween    int
	DFWithin     int
}

// DifferentialAbundance is the per-species outcome of the count model.
// OK is false when dispersion could not be estimated; the numeric fields are
// then undefined and the species is reported as NA.
type DifferentialAbundance struct {
	Species        core.SpeciesID
	BaseMean       float64
	Log2FoldChange float64
	LfcSE          float64
	Stat           float64
	PValue         float64
	PAdj           float64
	OK             bool
}
