package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseSampleID tests sample ID parsing and trimming
func TestParseSampleID(t *testing.T) {
	id, err := ParseSampleID("  CFA_01  ")
	if err != nil {
		t.Fatalf("ParseSampleID failed: %v", err)
	}
	if id != SampleID("CFA_01") {
		t.Errorf("Expected trimmed CFA_01, got %q", id)
	}

	if _, err := ParseSampleID("   "); err == nil {
		t.Error("Expected error for a blank sample ID")
	}
}

// TestParseSpeciesID tests species ID parsing
func TestParseSpeciesID(t *testing.T) {
	if _, err := ParseSpeciesID(""); err == nil {
		t.Error("Expected error for an empty species ID")
	}
	id, err := ParseSpeciesID("Vibrio harveyi")
	if err != nil {
		t.Fatalf("ParseSpeciesID failed: %v", err)
	}
	if id.String() != "Vibrio harveyi" {
		t.Errorf("Unexpected species ID: %q", id)
	}
}
