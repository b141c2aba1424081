package ports

import (
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
)

// TaxaReaderPort loads the wide taxonomic abundance table
type TaxaReaderPort interface {
	// ReadTaxa returns the raw taxon records with per-sample abundance strings,
	// plus the sample column names in file order
	ReadTaxa(path string) ([]ecology.TaxonRecord, []string, error)
}

// SurveyReaderPort loads the categorical-vs-continuous cover dataset
type SurveyReaderPort interface {
	ReadSurvey(path string) ([]survey.CoverRecord, error)
}

// ConfusionReaderPort loads a square confusion matrix of classification counts
type ConfusionReaderPort interface {
	ReadConfusion(path string) (*survey.ConfusionMatrix, error)
}
