package csvout

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/internal/errors"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return rows
}

// TestWriter_DifferentialAbundance verifies header, value rows, and NA rows
func TestWriter_DifferentialAbundance(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	results := []ecology.DifferentialAbundance{
		{
			Species:        "sp1",
			BaseMean:       100,
			Log2FoldChange: 2.5,
			LfcSE:          0.5,
			Stat:           5,
			PValue:         0.001,
			PAdj:           0.002,
			OK:             true,
		},
		{Species: "sp2", BaseMean: 42, OK: false},
	}
	if err := w.WriteDifferentialAbundance(core.RunID(core.NewID()), results); err != nil {
		t.Fatalf("WriteDifferentialAbundance failed: %v", err)
	}

	rows := readRows(t, filepath.Join(dir, "differential_abundance.csv"))
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Species" || rows[0][1] != "log2FoldChange" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][0] != "sp1" || rows[1][1] != "2.5" {
		t.Errorf("Unexpected fitted row: %v", rows[1])
	}
	// The unfitted row keeps its base mean (column 4) and NAs the rest
	if rows[2][4] != "42" {
		t.Errorf("Expected baseMean 42 in the unfitted row, got %q", rows[2][4])
	}
	for _, col := range []int{1, 2, 3, 5, 6} {
		if rows[2][col] != "NA" {
			t.Errorf("Expected NA in column %d of the unfitted row, got %q", col, rows[2][col])
		}
	}
}

// TestWriter_AlphaDiversity verifies the per-sample table layout
func TestWriter_AlphaDiversity(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	rows := []ecology.AlphaDiversity{
		{Sample: "CFA_01", Group: "Farm", Richness: 12, Shannon: 1.5, Simpson: 0.75},
	}
	if err := w.WriteAlphaDiversity(core.RunID(core.NewID()), rows); err != nil {
		t.Fatalf("WriteAlphaDiversity failed: %v", err)
	}

	got := readRows(t, filepath.Join(dir, "alpha_diversity.csv"))
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	want := []string{"CFA_01", "Farm", "12", "1.5", "0.75"}
	for i, v := range want {
		if got[1][i] != v {
			t.Errorf("Column %d: expected %q, got %q", i, v, got[1][i])
		}
	}
}

// TestNewWriter_CreatesDirectory verifies nested output directories are created
func TestNewWriter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	if _, err := NewWriter(dir); err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to exist as a directory", dir)
	}
}

// TestNewWriter_UncreatableDir verifies directory failures surface as
// output-file errors
func TestNewWriter_UncreatableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write blocker file: %v", err)
	}

	_, err := NewWriter(filepath.Join(blocker, "out"))
	if err == nil {
		t.Fatal("Expected error creating a directory under a regular file")
	}
	if code := errors.GetCode(err); code != errors.CodeOutputFile {
		t.Errorf("Expected code %s, got %s", errors.CodeOutputFile, code)
	}
}
