package ports

import (
	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
)

// ResultSinkPort persists analysis outputs. The CSV adapter is always wired;
// the postgres adapter is optional and archives runs for later comparison.
type ResultSinkPort interface {
	// WriteRunManifest records the run's reproducibility parameters
	WriteRunManifest(manifest core.RunManifest) error

	// WriteDifferentialAbundance writes one row per species; species that
	// failed to fit are emitted with NA statistical fields, not dropped
	WriteDifferentialAbundance(runID core.RunID, results []ecology.DifferentialAbundance) error

	// WriteAlphaDiversity writes the per-sample diversity table
	WriteAlphaDiversity(runID core.RunID, rows []ecology.AlphaDiversity) error

	// WriteClassificationReport writes the bootstrapped classification metrics
	WriteClassificationReport(runID core.RunID, report *survey.ClassificationReport) error
}
