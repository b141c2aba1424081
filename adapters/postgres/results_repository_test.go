package postgres

import (
	"testing"

	"ednastats/internal/errors"
)

// TestNewResultsRepository_BadDSN verifies connection failures surface as
// database errors
func TestNewResultsRepository_BadDSN(t *testing.T) {
	_, err := NewResultsRepository("this is not a connection string")
	if err == nil {
		t.Fatal("Expected error for a malformed connection string")
	}
	if code := errors.GetCode(err); code != errors.CodeDatabaseError {
		t.Errorf("Expected code %s, got %s", errors.CodeDatabaseError, code)
	}
}
