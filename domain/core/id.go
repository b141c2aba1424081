package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific identifier types
type (
	RunID     ID
	SampleID  string
	SpeciesID string
	GroupID   string
)

func (id RunID) String() string     { return ID(id).String() }
func (id SampleID) String() string  { return string(id) }
func (id SpeciesID) String() string { return string(id) }
func (id GroupID) String() string   { return string(id) }

// ParseSampleID parses a string into SampleID
func ParseSampleID(s string) (SampleID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("sample ID cannot be empty")
	}
	return SampleID(strings.TrimSpace(s)), nil
}

// ParseSpeciesID parses a string into SpeciesID
func ParseSpeciesID(s string) (SpeciesID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("species ID cannot be empty")
	}
	return SpeciesID(strings.TrimSpace(s)), nil
}
