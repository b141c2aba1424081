// Package postgres archives run results so separate runs can be compared
// later. The archive is optional: the pipeline only wires it when a
// DATABASE_URL is configured.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
	"ednastats/internal/errors"
)

// ResultsRepository persists differential-abundance and diversity tables
type ResultsRepository struct {
	db *sqlx.DB
}

// NewResultsRepository connects to postgres and ensures the schema exists
func NewResultsRepository(databaseURL string) (*ResultsRepository, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect to results database: %v", err))
	}
	repo := &ResultsRepository{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Close releases the database connection
func (r *ResultsRepository) Close() error {
	return r.db.Close()
}

func (r *ResultsRepository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			permutations INTEGER NOT NULL,
			bootstrap_iters INTEGER NOT NULL,
			nmds_tries INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS differential_abundance (
			run_id TEXT NOT NULL,
			species TEXT NOT NULL,
			base_mean DOUBLE PRECISION,
			log2_fold_change DOUBLE PRECISION,
			lfc_se DOUBLE PRECISION,
			stat DOUBLE PRECISION,
			pvalue DOUBLE PRECISION,
			padj DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, species)
		);
		CREATE TABLE IF NOT EXISTS alpha_diversity (
			run_id TEXT NOT NULL,
			sample TEXT NOT NULL,
			group_label TEXT NOT NULL,
			richness INTEGER NOT NULL,
			shannon DOUBLE PRECISION NOT NULL,
			simpson DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, sample)
		);
		CREATE TABLE IF NOT EXISTS classification_metrics (
			run_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			ci_lower DOUBLE PRECISION NOT NULL,
			ci_upper DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, metric)
		)`)
	return errors.Wrap(err, "failed to ensure results schema")
}

// WriteRunManifest archives the run's reproducibility parameters
func (r *ResultsRepository) WriteRunManifest(manifest core.RunManifest) error {
	_, err := r.db.ExecContext(context.Background(), `
		INSERT INTO runs (run_id, seed, permutations, bootstrap_iters, nmds_tries, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			seed = EXCLUDED.seed,
			permutations = EXCLUDED.permutations,
			bootstrap_iters = EXCLUDED.bootstrap_iters,
			nmds_tries = EXCLUDED.nmds_tries,
			started_at = EXCLUDED.started_at`,
		manifest.ID.String(), manifest.Seed, manifest.Permutations,
		manifest.BootstrapIters, manifest.NMDSTries, manifest.StartedAt.Time())
	return errors.Wrap(err, "failed to archive run manifest")
}

// WriteDifferentialAbundance archives one row per species; NA rows keep
// their base mean and store NULL statistics.
func (r *ResultsRepository) WriteDifferentialAbundance(runID core.RunID, results []ecology.DifferentialAbundance) error {
	ctx := context.Background()
	for _, res := range results {
		baseMean := &res.BaseMean
		var log2FC, lfcSE, stat, pvalue, padj *float64
		if res.OK {
			log2FC, lfcSE = &res.Log2FoldChange, &res.LfcSE
			stat, pvalue, padj = &res.Stat, &res.PValue, &res.PAdj
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO differential_abundance (
				run_id, species, base_mean, log2_fold_change, lfc_se, stat, pvalue, padj
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (run_id, species) DO UPDATE SET
				base_mean = EXCLUDED.base_mean,
				log2_fold_change = EXCLUDED.log2_fold_change,
				lfc_se = EXCLUDED.lfc_se,
				stat = EXCLUDED.stat,
				pvalue = EXCLUDED.pvalue,
				padj = EXCLUDED.padj`,
			runID.String(), string(res.Species), baseMean, log2FC, lfcSE, stat, pvalue, padj)
		if err != nil {
			return errors.Wrapf(err, "failed to archive species %s", res.Species)
		}
	}
	return nil
}

// WriteAlphaDiversity archives the per-sample diversity table
func (r *ResultsRepository) WriteAlphaDiversity(runID core.RunID, diversity []ecology.AlphaDiversity) error {
	ctx := context.Background()
	for _, d := range diversity {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO alpha_diversity (
				run_id, sample, group_label, richness, shannon, simpson
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (run_id, sample) DO UPDATE SET
				group_label = EXCLUDED.group_label,
				richness = EXCLUDED.richness,
				shannon = EXCLUDED.shannon,
				simpson = EXCLUDED.simpson`,
			runID.String(), string(d.Sample), string(d.Group), d.Richness, d.Shannon, d.Simpson)
		if err != nil {
			return errors.Wrapf(err, "failed to archive sample %s", d.Sample)
		}
	}
	return nil
}

// WriteClassificationReport archives the bootstrapped classification metrics
func (r *ResultsRepository) WriteClassificationReport(runID core.RunID, report *survey.ClassificationReport) error {
	ctx := context.Background()
	for _, m := range report.Metrics() {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO classification_metrics (run_id, metric, value, ci_lower, ci_upper)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (run_id, metric) DO UPDATE SET
				value = EXCLUDED.value,
				ci_lower = EXCLUDED.ci_lower,
				ci_upper = EXCLUDED.ci_upper`,
			runID.String(), m.Name, m.Value, m.CILower, m.CIUpper)
		if err != nil {
			return errors.Wrapf(err, "failed to archive metric %s", m.Name)
		}
	}
	return nil
}
