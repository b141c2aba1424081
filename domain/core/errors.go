package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Ingestion errors: structural, abort the run
	ErrParse        = errors.New("abundance value not numeric")
	ErrUnknownGroup = errors.New("sample matches no known group prefix")
	ErrEmptyTable   = errors.New("input table has no data rows")

	// Statistical errors: recorded per species/iteration, run continues
	ErrNonConvergence          = errors.New("ordination did not converge")
	ErrDispersionNotEstimable  = errors.New("dispersion not estimable")
	ErrInsufficientData        = errors.New("insufficient data for analysis")
	ErrDegenerateDissimilarity = errors.New("degenerate dissimilarity structure")
)

// Error constructors with context
func NewParseError(sample, species, raw string) error {
	return fmt.Errorf("%w: %q for sample %s, species %s", ErrParse, raw, sample, species)
}

func NewUnknownGroupError(sample string) error {
	return fmt.Errorf("%w: %s", ErrUnknownGroup, sample)
}

func NewInsufficientDataError(what string, n int) error {
	return fmt.Errorf("%w: %s has %d observations", ErrInsufficientData, what, n)
}

// IsIngestionError reports whether err should abort the run early
func IsIngestionError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrUnknownGroup) ||
		errors.Is(err, ErrEmptyTable)
}

// IsStatisticalError reports whether err is a recoverable per-unit failure
func IsStatisticalError(err error) bool {
	return errors.Is(err, ErrNonConvergence) ||
		errors.Is(err, ErrDispersionNotEstimable) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateDissimilarity)
}
