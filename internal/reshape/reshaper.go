package reshape

import (
	"strconv"
	"strings"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
)

// GroupResolver maps a sample identifier to its group label
type GroupResolver interface {
	Resolve(sample core.SampleID) (core.GroupID, error)
}

// PrefixResolver resolves groups by matching sample-name prefixes against a
// configured table. Longest prefix wins when prefixes overlap.
type PrefixResolver struct {
	prefixes map[string]string
}

// NewPrefixResolver creates a resolver from a prefix->label table
func NewPrefixResolver(prefixes map[string]string) *PrefixResolver {
	return &PrefixResolver{prefixes: prefixes}
}

// Resolve returns the group for a sample or ErrUnknownGroup
func (r *PrefixResolver) Resolve(sample core.SampleID) (core.GroupID, error) {
	best := ""
	label := ""
	for prefix, l := range r.prefixes {
		if strings.HasPrefix(string(sample), prefix) && len(prefix) > len(best) {
			best = prefix
			label = l
		}
	}
	if best == "" {
		return "", core.NewUnknownGroupError(string(sample))
	}
	return core.GroupID(label), nil
}

// Reshaper normalizes wide taxonomic records into a dense sample-by-species
// abundance matrix plus a sample-to-group metadata mapping. It is a pure
// transform: parse, unpivot, aggregate duplicates by sum, zero-fill.
type Reshaper struct {
	resolver GroupResolver
}

// NewReshaper creates a reshaper with the given group resolver
func NewReshaper(resolver GroupResolver) *Reshaper {
	return &Reshaper{resolver: resolver}
}

// Reshape converts taxon records into the abundance matrix and metadata.
// sampleOrder fixes row order to the input file's column order; records supply
// species in row order, which fixes column order.
func (r *Reshaper) Reshape(records []ecology.TaxonRecord, sampleOrder []core.SampleID) (*ecology.AbundanceMatrix, *ecology.SampleMetadata, error) {
	if len(records) == 0 {
		return nil, nil, core.ErrEmptyTable
	}

	metadata := ecology.NewSampleMetadata()
	for _, sample := range sampleOrder {
		group, err := r.resolver.Resolve(sample)
		if err != nil {
			return nil, nil, err
		}
		if err := metadata.Assign(sample, group); err != nil {
			return nil, nil, err
		}
	}

	matrix := ecology.NewAbundanceMatrix()
	// Seed rows in sample order so the matrix keeps file column order even
	// when the first record lacks some samples.
	for _, record := range records {
		species := record.Lineage.Key()
		for _, sample := range sampleOrder {
			raw, ok := record.Abundances[sample]
			if !ok {
				matrix.Add(sample, species, 0)
				continue
			}
			value, err := ParseAbundance(raw)
			if err != nil {
				return nil, nil, core.NewParseError(string(sample), string(species), raw)
			}
			matrix.Add(sample, species, value)
		}
	}

	return matrix, metadata, nil
}

// ParseAbundance strips a trailing percent sign and surrounding whitespace,
// then parses the residue as a non-negative float.
func ParseAbundance(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, core.ErrParse
	}
	if value < 0 {
		return 0, core.ErrParse
	}
	return value, nil
}
