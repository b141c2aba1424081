package ports

// PlotSeries is one named series of points for the plotting collaborator.
// Labels, when present, annotate individual points (e.g. species names on a
// volcano plot).
type PlotSeries struct {
	Name   string
	X      []float64
	Y      []float64
	Labels []string
}

// PlotSpec describes one figure: series plus presentation-level annotations.
// Styling (palettes, themes) is the collaborator's concern, not the core's.
type PlotSpec struct {
	Name        string
	Kind        string // "boxplot", "scatter", "volcano", "bars"
	Title       string
	XLabel      string
	YLabel      string
	Annotations []string
	Series      []PlotSeries
}

// PlotterPort renders or persists plot specifications
type PlotterPort interface {
	Plot(spec PlotSpec) error
}
