// Package plotdata is the plotting collaborator's file-based adapter: each
// figure becomes one .dat file per series plus a gnuplot script referencing
// them. Styling beyond titles, labels and annotations is left to the script's
// consumer.
package plotdata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ednastats/internal/errors"
	"ednastats/ports"
)

// Writer renders plot specs as gnuplot data and script files
type Writer struct {
	outDir string
}

// NewWriter creates a plot-data writer rooted at outDir
func NewWriter(outDir string) (*Writer, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.OutputFile(fmt.Sprintf("failed to create plot directory %s: %v", outDir, err))
	}
	return &Writer{outDir: outDir}, nil
}

// Plot writes one .dat file per series and a .gpi script for the figure
func (w *Writer) Plot(spec ports.PlotSpec) error {
	var dataFiles []string
	for _, series := range spec.Series {
		name := fmt.Sprintf("%s_%s.dat", spec.Name, sanitize(series.Name))
		if err := w.writeSeries(name, series); err != nil {
			return err
		}
		dataFiles = append(dataFiles, name)
	}
	return w.writeScript(spec, dataFiles)
}

func (w *Writer) writeSeries(name string, series ports.PlotSeries) error {
	path := filepath.Join(w.outDir, name)
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	out := bufio.NewWriter(file)
	for i := range series.X {
		label := ""
		if i < len(series.Labels) && series.Labels[i] != "" {
			label = " # " + series.Labels[i]
		}
		fmt.Fprintf(out, "%f %f%s\n", series.X[i], series.Y[i], label)
	}
	return out.Flush()
}

func (w *Writer) writeScript(spec ports.PlotSpec, dataFiles []string) error {
	path := filepath.Join(w.outDir, spec.Name+".gpi")
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	out := bufio.NewWriter(file)
	fmt.Fprintf(out, "set title \"%s\"\n", spec.Title)
	if spec.XLabel != "" {
		fmt.Fprintf(out, "set xlabel \"%s\"\n", spec.XLabel)
	}
	if spec.YLabel != "" {
		fmt.Fprintf(out, "set ylabel \"%s\"\n", spec.YLabel)
	}
	for i, annotation := range spec.Annotations {
		fmt.Fprintf(out, "set label %d \"%s\" at graph 0.02, %.2f\n", i+1, annotation, 0.95-0.05*float64(i))
	}
	fmt.Fprintln(out)

	quoted := make([]string, len(dataFiles))
	for i, f := range dataFiles {
		quoted[i] = fmt.Sprintf("\"%s\" title \"%s\"", f, spec.Series[i].Name)
	}
	fmt.Fprintf(out, "plot %s\n", strings.Join(quoted, ", "))
	return out.Flush()
}

func sanitize(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	return replacer.Replace(strings.ToLower(name))
}
