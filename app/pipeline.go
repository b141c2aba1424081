package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
	"ednastats/internal"
	"ednastats/internal/classify"
	"ednastats/internal/config"
	"ednastats/internal/diffabund"
	"ednastats/internal/dissim"
	"ednastats/internal/diversity"
	"ednastats/internal/groupcmp"
	"ednastats/internal/ordination"
	"ednastats/internal/reshape"
	"ednastats/ports"
)

// Pipeline runs the full analysis sequence: reshape, diversity,
// dissimilarity, ordination, permutation test, differential abundance, plus
// the standalone survey-comparison and classification-bootstrap analyses.
// Stages are sequential; each consumes the previous stage's output.
type Pipeline struct {
	cfg       *config.Config
	logger    *internal.Logger
	taxa      ports.TaxaReaderPort
	surveys   ports.SurveyReaderPort
	confusion ports.ConfusionReaderPort
	plotter   ports.PlotterPort
	rng       ports.RNGPort
	sinks     []ports.ResultSinkPort
}

// NewPipeline wires the pipeline from its collaborators
func NewPipeline(
	cfg *config.Config,
	logger *internal.Logger,
	taxa ports.TaxaReaderPort,
	surveys ports.SurveyReaderPort,
	confusion ports.ConfusionReaderPort,
	plotter ports.PlotterPort,
	rng ports.RNGPort,
	sinks ...ports.ResultSinkPort,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		taxa:      taxa,
		surveys:   surveys,
		confusion: confusion,
		plotter:   plotter,
		rng:       rng,
		sinks:     sinks,
	}
}

// Run executes every configured stage. Structural failures (parsing, unknown
// groups, missing files) abort immediately; statistical non-convergence is
// logged and recorded in the outputs instead.
func (p *Pipeline) Run(ctx context.Context) error {
	manifest := core.RunManifest{
		ID:             core.RunID(core.NewID()),
		Seed:           p.cfg.Analysis.Seed,
		Permutations:   p.cfg.Analysis.Permutations,
		BootstrapIters: p.cfg.Analysis.BootstrapIters,
		NMDSTries:      p.cfg.Analysis.NMDSTries,
		StartedAt:      core.Now(),
	}
	runID := manifest.ID
	p.logger.Info("[Pipeline] run %s: seed=%d permutations=%d bootstrap=%d nmds_tries=%d",
		runID, manifest.Seed, manifest.Permutations, manifest.BootstrapIters, manifest.NMDSTries)
	for _, sink := range p.sinks {
		if err := sink.WriteRunManifest(manifest); err != nil {
			return err
		}
	}

	matrix, metadata, err := p.loadCommunity()
	if err != nil {
		return err
	}

	groups := metadata.GroupLabels()
	if len(groups) < 2 {
		return core.NewInsufficientDataError("sample groups", len(groups))
	}
	groupA, groupB := groups[0], groups[1]

	if err := p.alphaDiversityStage(runID, matrix, metadata); err != nil {
		return err
	}

	d := dissim.NewEngine().BrayCurtis(matrix)
	p.logger.Info("[Pipeline] Bray-Curtis matrix: %d samples", d.Size())

	permanova, err := p.permanovaStage(d, metadata)
	if err != nil {
		return err
	}

	if err := p.ordinationStage(d, metadata, permanova); err != nil {
		return err
	}

	if err := p.differentialAbundanceStage(ctx, runID, matrix, metadata, groupA, groupB); err != nil {
		return err
	}

	if p.cfg.Paths.SurveyFile != "" {
		if err := p.surveyComparisonStage(); err != nil {
			return err
		}
	}

	if p.cfg.Paths.ConfusionFile != "" {
		if err := p.classificationStage(runID); err != nil {
			return err
		}
	}

	p.logger.Info("[Pipeline] run %s complete", runID)
	return nil
}

// loadCommunity reads the taxa table and reshapes it into the abundance
// matrix plus metadata.
func (p *Pipeline) loadCommunity() (*ecology.AbundanceMatrix, *ecology.SampleMetadata, error) {
	records, sampleColumns, err := p.taxa.ReadTaxa(p.cfg.Paths.TaxaFile)
	if err != nil {
		return nil, nil, err
	}

	samples := make([]core.SampleID, len(sampleColumns))
	for i, s := range sampleColumns {
		samples[i] = core.SampleID(s)
	}

	resolver := reshape.NewPrefixResolver(p.cfg.Groups.Prefixes)
	matrix, metadata, err := reshape.NewReshaper(resolver).Reshape(records, samples)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("[Pipeline] reshaped %d taxa rows into %d samples x %d species",
		len(records), matrix.SampleCount(), matrix.SpeciesCount())
	return matrix, metadata, nil
}

func (p *Pipeline) alphaDiversityStage(runID core.RunID, matrix *ecology.AbundanceMatrix, metadata *ecology.SampleMetadata) error {
	rows := diversity.NewCalculator().Compute(matrix, metadata)
	for _, sink := range p.sinks {
		if err := sink.WriteAlphaDiversity(runID, rows); err != nil {
			return err
		}
	}
	return p.plotAlphaDiversity(rows, metadata)
}

func (p *Pipeline) permanovaStage(d *ecology.DissimilarityMatrix, metadata *ecology.SampleMetadata) (*ecology.PermanovaResult, error) {
	result, err := ordination.Permanova(d, metadata, p.cfg.Analysis.Permutations, p.rng.Stream("permanova"))
	if err != nil {
		return nil, err
	}
	p.logger.Info("[Pipeline] PERMANOVA pseudo-F=%.3f p=%.4f (%d permutations)",
		result.PseudoF, result.PValue, result.Permutations)
	return result, nil
}

func (p *Pipeline) ordinationStage(d *ecology.DissimilarityMatrix, metadata *ecology.SampleMetadata, permanova *ecology.PermanovaResult) error {
	cfg := ordination.DefaultNMDSConfig()
	cfg.Tries = p.cfg.Analysis.NMDSTries
	cfg.MaxStress = p.cfg.Analysis.NMDSMaxStress

	nmds, err := ordination.NMDS(d, cfg, p.rng.Stream("nmds"))
	if err != nil {
		return err
	}
	if !nmds.Converged {
		p.logger.Warn("[Pipeline] NMDS did not converge: stress %.4f above %.2f after %d tries",
			nmds.Stress, cfg.MaxStress, nmds.Tries)
	} else {
		p.logger.Info("[Pipeline] NMDS stress %.4f after %d tries", nmds.Stress, nmds.Tries)
	}
	if err := p.plotOrdination(nmds, metadata, permanova); err != nil {
		return err
	}

	pcoa, err := ordination.PCoA(d)
	if err != nil {
		if core.IsStatisticalError(err) {
			p.logger.Warn("[Pipeline] PCoA skipped: %v", err)
			return nil
		}
		return err
	}
	if pcoa.NegativeEigs > 0 {
		p.logger.Warn("[Pipeline] PCoA found %d negative eigenvalues (non-Euclidean dissimilarity)", pcoa.NegativeEigs)
	}
	return p.plotOrdination(pcoa, metadata, permanova)
}

func (p *Pipeline) differentialAbundanceStage(ctx context.Context, runID core.RunID, matrix *ecology.AbundanceMatrix, metadata *ecology.SampleMetadata, groupA, groupB core.GroupID) error {
	engine := diffabund.NewEngine(p.cfg.Analysis.CountScale, p.cfg.Analysis.FitWorkers, p.logger)
	results, err := engine.Analyze(ctx, matrix, metadata, groupA, groupB)
	if err != nil {
		return err
	}

	fitted := 0
	for _, r := range results {
		if r.OK {
			fitted++
		}
	}
	p.logger.Info("[Pipeline] differential abundance %s vs %s: %d/%d species fitted",
		groupA, groupB, fitted, len(results))

	for _, sink := range p.sinks {
		if err := sink.WriteDifferentialAbundance(runID, results); err != nil {
			return err
		}
	}

	if err := p.plotVolcano(results, groupA, groupB); err != nil {
		return err
	}
	return p.plotTopFoldChanges(results)
}

func (p *Pipeline) surveyComparisonStage() error {
	records, err := p.surveys.ReadSurvey(p.cfg.Paths.SurveyFile)
	if err != nil {
		return err
	}

	result, err := groupcmp.NewEngine(p.cfg.Analysis.Alpha).Compare(records)
	if err != nil {
		return err
	}
	p.logger.Info("[Pipeline] Kruskal-Wallis H=%.3f df=%d p=%.4f", result.HStat, result.DF, result.PValue)
	return p.plotGroupComparison(records, result)
}

func (p *Pipeline) classificationStage(runID core.RunID) error {
	cm, err := p.confusion.ReadConfusion(p.cfg.Paths.ConfusionFile)
	if err != nil {
		return err
	}

	estimator := classify.NewEstimator(p.cfg.Analysis.BootstrapIters)
	report, err := estimator.Estimate(cm, p.rng.Stream("bootstrap"))
	if err != nil {
		return err
	}
	for _, m := range report.Metrics() {
		p.logger.Info("[Pipeline] %s = %.4f [%.4f, %.4f]", m.Name, m.Value, m.CILower, m.CIUpper)
	}

	for _, sink := range p.sinks {
		if err := sink.WriteClassificationReport(runID, report); err != nil {
			return err
		}
	}
	return nil
}

// plotAlphaDiversity emits one boxplot spec per index, one series per group
func (p *Pipeline) plotAlphaDiversity(rows []ecology.AlphaDiversity, metadata *ecology.SampleMetadata) error {
	indices := []struct {
		name  string
		value func(ecology.AlphaDiversity) float64
	}{
		{"richness", func(d ecology.AlphaDiversity) float64 { return float64(d.Richness) }},
		{"shannon", func(d ecology.AlphaDiversity) float64 { return d.Shannon }},
		{"simpson", func(d ecology.AlphaDiversity) float64 { return d.Simpson }},
	}

	groups := metadata.GroupLabels()
	for _, index := range indices {
		spec := ports.PlotSpec{
			Name:   "alpha_" + index.name,
			Kind:   "boxplot",
			Title:  "Alpha diversity (" + index.name + ") by group",
			YLabel: index.name,
		}
		for gi, group := range groups {
			series := ports.PlotSeries{Name: string(group)}
			for _, row := range rows {
				if row.Group == group {
					series.X = append(series.X, float64(gi+1))
					series.Y = append(series.Y, index.value(row))
				}
			}
			spec.Series = append(spec.Series, series)
		}
		if err := p.plotter.Plot(spec); err != nil {
			return err
		}
	}
	return nil
}

// plotOrdination emits a scatter per group with a 95% confidence ellipse and
// the PERMANOVA p-value as an annotation.
func (p *Pipeline) plotOrdination(ord *ecology.OrdinationResult, metadata *ecology.SampleMetadata, permanova *ecology.PermanovaResult) error {
	spec := ports.PlotSpec{
		Name:   "ordination_" + ord.Method,
		Kind:   "scatter",
		Title:  ord.Method + " ordination (Bray-Curtis)",
		XLabel: "Axis 1",
		YLabel: "Axis 2",
		Annotations: []string{
			fmt.Sprintf("PERMANOVA p = %.4f", permanova.PValue),
		},
	}
	if ord.Method == "NMDS" {
		spec.Annotations = append(spec.Annotations, fmt.Sprintf("stress = %.4f", ord.Stress))
		if !ord.Converged {
			spec.Annotations = append(spec.Annotations, "NMDS did not converge")
		}
	}

	for _, group := range metadata.GroupLabels() {
		series := ports.PlotSeries{Name: string(group)}
		var points [][]float64
		for i, sample := range ord.Samples {
			if g, _ := metadata.GroupOf(sample); g == group {
				series.X = append(series.X, ord.Coordinates[i][0])
				series.Y = append(series.Y, ord.Coordinates[i][1])
				series.Labels = append(series.Labels, string(sample))
				points = append(points, ord.Coordinates[i])
			}
		}
		spec.Series = append(spec.Series, series)

		if ex, ey, ok := confidenceEllipse(points, 0.95); ok {
			spec.Series = append(spec.Series, ports.PlotSeries{
				Name: string(group) + "_ellipse",
				X:    ex,
				Y:    ey,
			})
		}
	}
	return p.plotter.Plot(spec)
}

// plotVolcano splits species into significant and non-significant series at
// padj<0.05 and |log2FC|>1, labeling the strong hits (padj<0.01, |log2FC|>1).
func (p *Pipeline) plotVolcano(results []ecology.DifferentialAbundance, groupA, groupB core.GroupID) error {
	spec := ports.PlotSpec{
		Name:   "volcano",
		Kind:   "volcano",
		Title:  fmt.Sprintf("Differential abundance: %s vs %s", groupB, groupA),
		XLabel: "log2 fold change",
		YLabel: "-log10 adjusted p",
		Annotations: []string{
			"thresholds: padj < 0.05, |log2FC| > 1",
		},
	}

	significant := ports.PlotSeries{Name: "significant"}
	rest := ports.PlotSeries{Name: "not significant"}
	for _, r := range results {
		if !r.OK {
			continue
		}
		y := -math.Log10(math.Max(r.PAdj, 1e-300))
		if r.PAdj < 0.05 && math.Abs(r.Log2FoldChange) > 1 {
			label := ""
			if r.PAdj < 0.01 {
				label = string(r.Species)
			}
			significant.X = append(significant.X, r.Log2FoldChange)
			significant.Y = append(significant.Y, y)
			significant.Labels = append(significant.Labels, label)
		} else {
			rest.X = append(rest.X, r.Log2FoldChange)
			rest.Y = append(rest.Y, y)
			rest.Labels = append(rest.Labels, "")
		}
	}
	spec.Series = []ports.PlotSeries{significant, rest}
	return p.plotter.Plot(spec)
}

// plotTopFoldChanges emits a horizontal bar chart of the 20 species with the
// largest absolute fold change.
func (p *Pipeline) plotTopFoldChanges(results []ecology.DifferentialAbundance) error {
	var fitted []ecology.DifferentialAbundance
	for _, r := range results {
		if r.OK {
			fitted = append(fitted, r)
		}
	}
	sort.SliceStable(fitted, func(a, b int) bool {
		return math.Abs(fitted[a].Log2FoldChange) > math.Abs(fitted[b].Log2FoldChange)
	})
	if len(fitted) > 20 {
		fitted = fitted[:20]
	}

	series := ports.PlotSeries{Name: "top_species"}
	for rank, r := range fitted {
		series.X = append(series.X, r.Log2FoldChange)
		series.Y = append(series.Y, float64(len(fitted)-rank))
		series.Labels = append(series.Labels, string(r.Species))
	}

	return p.plotter.Plot(ports.PlotSpec{
		Name:   "top_fold_changes",
		Kind:   "bars",
		Title:  "Top species by |log2 fold change|",
		XLabel: "log2 fold change",
		Series: []ports.PlotSeries{series},
	})
}

// plotGroupComparison emits the cover boxplot with Kruskal-Wallis p and
// compact-letter annotations.
func (p *Pipeline) plotGroupComparison(records []survey.CoverRecord, result *survey.GroupComparisonResult) error {
	var order []core.GroupID
	seen := make(map[core.GroupID]bool)
	for _, r := range records {
		if g := r.GroupKey(); !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
	}

	spec := ports.PlotSpec{
		Name:   "cover_by_class",
		Kind:   "boxplot",
		Title:  "Percentage cover by class",
		YLabel: "cover (%)",
		Annotations: []string{
			fmt.Sprintf("Kruskal-Wallis H = %.3f, p = %.4f", result.HStat, result.PValue),
		},
	}
	for gi, group := range order {
		series := ports.PlotSeries{
			Name:   fmt.Sprintf("%s (%s)", group, result.Letters[group]),
			Labels: []string{result.Letters[group]},
		}
		for _, r := range records {
			if r.GroupKey() == group {
				series.X = append(series.X, float64(gi+1))
				series.Y = append(series.Y, r.Cover)
			}
		}
		spec.Series = append(spec.Series, series)
	}
	return p.plotter.Plot(spec)
}
