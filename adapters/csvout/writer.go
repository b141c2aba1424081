// Package csvout persists analysis tables as CSV files, one row per entity
// with an explicit header and no index column.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
	"ednastats/internal/errors"
)

// Writer writes result tables into a target directory
type Writer struct {
	outDir string
}

// NewWriter creates a writer rooted at outDir, creating it if needed
func NewWriter(outDir string) (*Writer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.OutputFile(fmt.Sprintf("failed to create output directory %s: %v", outDir, err))
	}
	return &Writer{outDir: outDir}, nil
}

// WriteRunManifest writes the run's reproducibility parameters
func (w *Writer) WriteRunManifest(manifest core.RunManifest) error {
	rows := [][]string{
		{"RunID", "Seed", "Permutations", "BootstrapIters", "NMDSTries", "StartedAt"},
		{
			manifest.ID.String(),
			strconv.FormatInt(manifest.Seed, 10),
			strconv.Itoa(manifest.Permutations),
			strconv.Itoa(manifest.BootstrapIters),
			strconv.Itoa(manifest.NMDSTries),
			manifest.StartedAt.Time().Format(time.RFC3339),
		},
	}
	return w.writeFile("run_manifest.csv", rows)
}

// WriteDifferentialAbundance writes one row per species. Species whose model
// could not be fit keep their name and baseMean context but carry NA in the
// statistical columns.
func (w *Writer) WriteDifferentialAbundance(runID core.RunID, results []ecology.DifferentialAbundance) error {
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, []string{"Species", "log2FoldChange", "pvalue", "padj", "baseMean", "lfcSE", "stat"})
	for _, r := range results {
		if !r.OK {
			rows = append(rows, []string{string(r.Species), "NA", "NA", "NA", formatFloat(r.BaseMean), "NA", "NA"})
			continue
		}
		rows = append(rows, []string{
			string(r.Species),
			formatFloat(r.Log2FoldChange),
			formatFloat(r.PValue),
			formatFloat(r.PAdj),
			formatFloat(r.BaseMean),
			formatFloat(r.LfcSE),
			formatFloat(r.Stat),
		})
	}
	return w.writeFile("differential_abundance.csv", rows)
}

// WriteAlphaDiversity writes the per-sample diversity table
func (w *Writer) WriteAlphaDiversity(runID core.RunID, diversity []ecology.AlphaDiversity) error {
	rows := make([][]string, 0, len(diversity)+1)
	rows = append(rows, []string{"Sample", "Group", "Richness", "Shannon", "Simpson"})
	for _, d := range diversity {
		rows = append(rows, []string{
			string(d.Sample),
			string(d.Group),
			strconv.Itoa(d.Richness),
			formatFloat(d.Shannon),
			formatFloat(d.Simpson),
		})
	}
	return w.writeFile("alpha_diversity.csv", rows)
}

// WriteClassificationReport writes the bootstrapped classification metrics
// with their percentile confidence intervals.
func (w *Writer) WriteClassificationReport(runID core.RunID, report *survey.ClassificationReport) error {
	rows := [][]string{{"Metric", "Value", "CILower", "CIUpper"}}
	for _, m := range report.Metrics() {
		rows = append(rows, []string{m.Name, formatFloat(m.Value), formatFloat(m.CILower), formatFloat(m.CIUpper)})
	}
	return w.writeFile("classification_metrics.csv", rows)
}

func (w *Writer) writeFile(name string, rows [][]string) error {
	path := filepath.Join(w.outDir, name)
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
