package excel

import (
	"fmt"
	"strconv"
	"strings"

	"ednastats/domain/core"
	"ednastats/domain/ecology"
	"ednastats/domain/survey"
)

// lineageColumns are the recognized taxonomic rank headers, highest rank
// first. Matching is case-insensitive; every other column is a sample column.
var lineageColumns = []string{"Domain", "Phylum", "Class", "Order", "Family", "Genus", "Species"}

// Loader turns raw tables into domain inputs. It implements the taxa, survey
// and confusion reader ports.
type Loader struct{}

// NewLoader creates a new typed loader
func NewLoader() *Loader {
	return &Loader{}
}

// ReadTaxa loads the wide taxonomic table: lineage columns plus one
// percentage-abundance column per sample. Abundance cells stay raw strings;
// the reshaper parses them so failures can name the cell.
func (l *Loader) ReadTaxa(path string) ([]ecology.TaxonRecord, []string, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, nil, err
	}

	rankFor := make(map[string]string) // actual header -> canonical rank
	var sampleColumns []string
	for _, header := range data.Headers {
		if header == "" {
			continue
		}
		if rank := matchLineageColumn(header); rank != "" {
			rankFor[header] = rank
		} else {
			sampleColumns = append(sampleColumns, header)
		}
	}
	if len(sampleColumns) == 0 {
		return nil, nil, fmt.Errorf("taxa table %s has no sample columns", path)
	}

	records := make([]ecology.TaxonRecord, 0, len(data.Rows))
	for _, row := range data.Rows {
		record := ecology.TaxonRecord{Abundances: make(map[core.SampleID]string, len(sampleColumns))}
		for header, rank := range rankFor {
			setRank(&record.Lineage, rank, row[header])
		}
		for _, sample := range sampleColumns {
			record.Abundances[core.SampleID(sample)] = row[sample]
		}
		records = append(records, record)
	}

	return records, sampleColumns, nil
}

// ReadSurvey loads the categorical-vs-continuous cover dataset with Area,
// Year, Class and Cover columns.
func (l *Loader) ReadSurvey(path string) ([]survey.CoverRecord, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}

	coverColumn := findHeader(data.Headers, "Cover")
	if coverColumn == "" {
		coverColumn = findHeader(data.Headers, "Percentage cover")
	}
	if coverColumn == "" {
		return nil, fmt.Errorf("survey table %s has no Cover column", path)
	}

	records := make([]survey.CoverRecord, 0, len(data.Rows))
	for i, row := range data.Rows {
		raw := strings.TrimSuffix(strings.TrimSpace(row[coverColumn]), "%")
		cover, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("survey row %d: cover value %q is not numeric", i+2, row[coverColumn])
		}
		records = append(records, survey.CoverRecord{
			Area:  row[findHeader(data.Headers, "Area")],
			Year:  row[findHeader(data.Headers, "Year")],
			Class: row[findHeader(data.Headers, "Class")],
			Cover: cover,
		})
	}
	return records, nil
}

// ReadConfusion loads a square confusion matrix: first column holds the true
// class labels, remaining headers the predicted class labels, cells are
// non-negative integer counts.
func (l *Loader) ReadConfusion(path string) (*survey.ConfusionMatrix, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	if len(data.Headers) < 2 {
		return nil, fmt.Errorf("confusion matrix %s needs a label column and at least one class column", path)
	}

	labelColumn := data.Headers[0]
	predicted := data.Headers[1:]

	cm := survey.NewConfusionMatrix(predicted)
	rowIndex := make(map[string]int, len(predicted))
	for i, label := range predicted {
		rowIndex[label] = i
	}

	for _, row := range data.Rows {
		trueLabel := row[labelColumn]
		i, ok := rowIndex[trueLabel]
		if !ok {
			return nil, fmt.Errorf("confusion matrix %s: true label %q not among predicted labels", path, trueLabel)
		}
		for j, pred := range predicted {
			cell := strings.TrimSpace(row[pred])
			if cell == "" {
				continue
			}
			count, err := strconv.Atoi(cell)
			if err != nil || count < 0 {
				return nil, fmt.Errorf("confusion matrix %s: cell (%s,%s) value %q is not a non-negative integer", path, trueLabel, pred, cell)
			}
			cm.Counts[i][j] = count
		}
	}

	if err := cm.Validate(); err != nil {
		return nil, err
	}
	return cm, nil
}

func matchLineageColumn(header string) string {
	for _, rank := range lineageColumns {
		if strings.EqualFold(header, rank) {
			return rank
		}
	}
	return ""
}

func findHeader(headers []string, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h, name) {
			return h
		}
	}
	return ""
}

func setRank(lineage *ecology.Lineage, rank, value string) {
	switch rank {
	case "Domain":
		lineage.Domain = value
	case "Phylum":
		lineage.Phylum = value
	case "Class":
		lineage.Class = value
	case "Order":
		lineage.Order = value
	case "Family":
		lineage.Family = value
	case "Genus":
		lineage.Genus = value
	case "Species":
		lineage.Species = value
	}
}
