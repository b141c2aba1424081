package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ednastats/adapters/csvout"
	"ednastats/adapters/excel"
	"ednastats/adapters/plotdata"
	"ednastats/adapters/rng"
	"ednastats/domain/core"
	"ednastats/internal"
	"ednastats/internal/config"
	"ednastats/internal/testkit"
)

// writeTaxaFixture renders a synthetic community as the wide CSV the loader
// expects
func writeTaxaFixture(t *testing.T, dir string) string {
	t.Helper()

	generatorConfig := testkit.DefaultCommunityConfig()
	generatorConfig.Separation = 0.7
	records, samples := testkit.NewCommunityGenerator(generatorConfig).GenerateTaxonRecords()

	header := []string{"Domain", "Species"}
	for _, s := range samples {
		header = append(header, string(s))
	}
	rows := [][]string{header}
	for _, r := range records {
		row := []string{r.Lineage.Domain, r.Lineage.Species}
		for _, s := range samples {
			row = append(row, r.Abundances[s])
		}
		rows = append(rows, row)
	}

	path := filepath.Join(dir, "taxa.csv")
	writeCSV(t, path, rows)
	return path
}

// writeUniformTaxaFixture renders a table whose samples all share the same
// counts, so every pairwise Bray-Curtis dissimilarity is zero
func writeUniformTaxaFixture(t *testing.T, dir string) string {
	t.Helper()

	samples := []string{
		"Farm_1", "Farm_2", "Farm_3", "Farm_4",
		"Control_1", "Control_2", "Control_3", "Control_4",
	}
	header := append([]string{"Domain", "Species"}, samples...)
	rows := [][]string{header}
	for i, abundance := range []string{"12.5%", "4.2%", "0.8%", "30.1%", "1.1%"} {
		row := []string{"Bacteria", fmt.Sprintf("uniform_sp%d", i+1)}
		for range samples {
			row = append(row, abundance)
		}
		rows = append(rows, row)
	}

	path := filepath.Join(dir, "taxa_uniform.csv")
	writeCSV(t, path, rows)
	return path
}

func writeSurveyFixture(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]string{{"Area", "Year", "Class", "Cover"}}
	covers := map[string][]float64{
		"reef":  {40, 42, 38, 41, 39, 43},
		"sand":  {10, 12, 9, 11, 10, 13},
		"algae": {24, 26, 22, 25, 23, 27},
	}
	for class, values := range covers {
		for i, v := range values {
			rows = append(rows, []string{fmt.Sprintf("site_%d", i+1), "2023", class, fmt.Sprintf("%.1f", v)})
		}
	}
	path := filepath.Join(dir, "survey.csv")
	writeCSV(t, path, rows)
	return path
}

func writeConfusionFixture(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]string{
		{"Class", "reef", "sand", "algae"},
		{"reef", "14", "2", "1"},
		{"sand", "1", "16", "2"},
		{"algae", "0", "3", "12"},
	}
	path := filepath.Join(dir, "confusion.csv")
	writeCSV(t, path, rows)
	return path
}

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, csv.NewWriter(file).WriteAll(rows))
}

// TestPipeline_FullRun exercises every stage end to end against generated
// fixtures and checks the expected outputs appear
func TestPipeline_FullRun(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	cfg := &config.Config{
		Paths: config.PathConfig{
			TaxaFile:      writeTaxaFixture(t, inDir),
			SurveyFile:    writeSurveyFixture(t, inDir),
			ConfusionFile: writeConfusionFixture(t, inDir),
			OutDir:        outDir,
		},
		Groups: config.GroupConfig{
			Prefixes: map[string]string{"Farm": "Farm", "Control": "Control"},
		},
		Analysis: config.AnalysisConfig{
			Seed:           42,
			Permutations:   99,
			BootstrapIters: 200,
			NMDSTries:      5,
			NMDSMaxStress:  0.20,
			CountScale:     1e6,
			Alpha:          0.05,
			FitWorkers:     2,
		},
	}

	csvWriter, err := csvout.NewWriter(outDir)
	require.NoError(t, err)
	plotter, err := plotdata.NewWriter(outDir)
	require.NoError(t, err)

	loader := excel.NewLoader()
	pipeline := NewPipeline(
		cfg,
		internal.NewLogger(internal.LogLevelError),
		loader,
		loader,
		loader,
		plotter,
		rng.NewSeededSource(cfg.Analysis.Seed),
		csvWriter,
	)

	require.NoError(t, pipeline.Run(context.Background()))

	for _, name := range []string{
		"run_manifest.csv",
		"alpha_diversity.csv",
		"differential_abundance.csv",
		"classification_metrics.csv",
		"alpha_shannon.gpi",
		"ordination_NMDS.gpi",
		"ordination_PCoA.gpi",
		"volcano.gpi",
		"top_fold_changes.gpi",
		"cover_by_class.gpi",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "expected output %s", name)
	}

	diffRows := readCSV(t, filepath.Join(outDir, "differential_abundance.csv"))
	assert.Len(t, diffRows, 31, "header plus one row per species")

	alphaRows := readCSV(t, filepath.Join(outDir, "alpha_diversity.csv"))
	assert.Len(t, alphaRows, 17, "header plus one row per sample")
	assert.True(t, strings.HasPrefix(alphaRows[1][0], "Farm_"))
}

// TestPipeline_SkipsOptionalStages verifies empty survey and confusion paths
// skip those stages without error
func TestPipeline_SkipsOptionalStages(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	cfg := &config.Config{
		Paths: config.PathConfig{
			TaxaFile: writeTaxaFixture(t, inDir),
			OutDir:   outDir,
		},
		Groups: config.GroupConfig{
			Prefixes: map[string]string{"Farm": "Farm", "Control": "Control"},
		},
		Analysis: config.AnalysisConfig{
			Seed:           7,
			Permutations:   49,
			BootstrapIters: 100,
			NMDSTries:      3,
			NMDSMaxStress:  0.20,
			CountScale:     1e6,
			Alpha:          0.05,
			FitWorkers:     2,
		},
	}

	csvWriter, err := csvout.NewWriter(outDir)
	require.NoError(t, err)
	plotter, err := plotdata.NewWriter(outDir)
	require.NoError(t, err)

	loader := excel.NewLoader()
	pipeline := NewPipeline(
		cfg,
		internal.NewLogger(internal.LogLevelError),
		loader,
		loader,
		loader,
		plotter,
		rng.NewSeededSource(cfg.Analysis.Seed),
		csvWriter,
	)

	require.NoError(t, pipeline.Run(context.Background()))

	_, err = os.Stat(filepath.Join(outDir, "classification_metrics.csv"))
	assert.True(t, os.IsNotExist(err), "classification stage should be skipped")
	_, err = os.Stat(filepath.Join(outDir, "cover_by_class.gpi"))
	assert.True(t, os.IsNotExist(err), "survey stage should be skipped")
}

// TestPipeline_IdenticalSamplesStillCompletes verifies a run whose samples
// are indistinguishable finishes: the degenerate PCoA is skipped with a
// warning while every other stage still produces output
func TestPipeline_IdenticalSamplesStillCompletes(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	cfg := &config.Config{
		Paths: config.PathConfig{
			TaxaFile: writeUniformTaxaFixture(t, inDir),
			OutDir:   outDir,
		},
		Groups: config.GroupConfig{
			Prefixes: map[string]string{"Farm": "Farm", "Control": "Control"},
		},
		Analysis: config.AnalysisConfig{
			Seed:           3,
			Permutations:   49,
			BootstrapIters: 100,
			NMDSTries:      3,
			NMDSMaxStress:  0.20,
			CountScale:     1e6,
			Alpha:          0.05,
			FitWorkers:     2,
		},
	}

	csvWriter, err := csvout.NewWriter(outDir)
	require.NoError(t, err)
	plotter, err := plotdata.NewWriter(outDir)
	require.NoError(t, err)

	loader := excel.NewLoader()
	pipeline := NewPipeline(
		cfg,
		internal.NewLogger(internal.LogLevelError),
		loader,
		loader,
		loader,
		plotter,
		rng.NewSeededSource(cfg.Analysis.Seed),
		csvWriter,
	)

	require.NoError(t, pipeline.Run(context.Background()))

	_, err = os.Stat(filepath.Join(outDir, "ordination_PCoA.gpi"))
	assert.True(t, os.IsNotExist(err), "degenerate PCoA should be skipped")
	for _, name := range []string{
		"ordination_NMDS.gpi",
		"alpha_diversity.csv",
		"differential_abundance.csv",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "expected output %s", name)
	}
}

// TestPipeline_UnknownGroupFailsFast verifies ingestion errors abort the run
func TestPipeline_UnknownGroupFailsFast(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	cfg := &config.Config{
		Paths: config.PathConfig{
			TaxaFile: writeTaxaFixture(t, inDir),
			OutDir:   outDir,
		},
		Groups: config.GroupConfig{
			// No prefix matches the generated Farm_/Control_ samples
			Prefixes: map[string]string{"CFA": "Farm"},
		},
		Analysis: config.AnalysisConfig{
			Seed:           1,
			Permutations:   49,
			BootstrapIters: 100,
			NMDSTries:      3,
			NMDSMaxStress:  0.20,
			CountScale:     1e6,
			Alpha:          0.05,
			FitWorkers:     1,
		},
	}

	csvWriter, err := csvout.NewWriter(outDir)
	require.NoError(t, err)
	plotter, err := plotdata.NewWriter(outDir)
	require.NoError(t, err)

	loader := excel.NewLoader()
	pipeline := NewPipeline(
		cfg,
		internal.NewLogger(internal.LogLevelError),
		loader,
		loader,
		loader,
		plotter,
		rng.NewSeededSource(1),
		csvWriter,
	)

	err = pipeline.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownGroup)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}
