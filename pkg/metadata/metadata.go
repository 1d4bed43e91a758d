/*
Package metadata provides a reader for delimited tables that assign tips to
clades, keyed by a tip id column
*/
package metadata

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrDuplicateTip  = errors.New("duplicate tip id in metadata")
	ErrMissingColumn = errors.New("column not found in metadata header")
	errEmptyMetadata = errors.New("empty metadata file")
)

// naValues are the cell values that are read as a missing label, as well as
// the empty string
var naValues = map[string]bool{
	"":          true,
	"#N/A":      true,
	"#N/A N/A":  true,
	"#NA":       true,
	"-1.#IND":   true,
	"-1.#QNAN":  true,
	"-NaN":      true,
	"-nan":      true,
	"1.#IND":    true,
	"1.#QNAN":   true,
	"<NA>":      true,
	"N/A":       true,
	"NA":        true,
	"NULL":      true,
	"NaN":       true,
	"None":      true,
	"n/a":       true,
	"nan":       true,
	"null":      true,
}

// IsMissing reports whether a raw cell value represents a missing label
func IsMissing(s string) bool {
	return naValues[s]
}

// DelimiterFor returns ',' for file names ending in .csv (or .csv.gz) and a
// tab for anything else
func DelimiterFor(filename string) rune {
	name := strings.TrimSuffix(filename, ".gz")
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return ','
	}
	return '\t'
}

// Table maps tip ids to their labels in each column. Missing labels are
// not stored, so a lookup distinguishes them from any real label.
type Table struct {
	tipCol  string
	columns map[string]bool
	order   []string
	labels  map[string]map[string]string
}

// ReadTable reads a delimited table with a header row from r, keyed by the
// values in column tipCol
func ReadTable(r io.Reader, delim rune, tipCol string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errEmptyMetadata
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading metadata header")
	}

	tipIdx := -1
	t := &Table{
		tipCol:  tipCol,
		columns: make(map[string]bool, len(header)),
		order:   make([]string, 0),
		labels:  make(map[string]map[string]string),
	}
	for i, h := range header {
		t.columns[h] = true
		if h == tipCol {
			tipIdx = i
		}
	}
	if tipIdx < 0 {
		return nil, errors.Wrapf(ErrMissingColumn, "tip column %q", tipCol)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading metadata")
		}
		if tipIdx >= len(record) || IsMissing(record[tipIdx]) {
			continue
		}
		tip := record[tipIdx]
		if _, ok := t.labels[tip]; ok {
			return nil, errors.Wrapf(ErrDuplicateTip, "%q", tip)
		}
		row := make(map[string]string)
		for i, value := range record {
			if i == tipIdx || i >= len(header) || IsMissing(value) {
				continue
			}
			row[header[i]] = value
		}
		t.labels[tip] = row
		t.order = append(t.order, tip)
	}

	return t, nil
}

// TipColumn returns the name of the column the table is keyed by
func (t *Table) TipColumn() string {
	return t.tipCol
}

// HasColumn reports whether col was in the header
func (t *Table) HasColumn(col string) bool {
	return t.columns[col]
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.order)
}

// Tips returns the tip ids in file order
func (t *Table) Tips() []string {
	return t.order
}

// Has reports whether there is a row for tip
func (t *Table) Has(tip string) bool {
	_, ok := t.labels[tip]
	return ok
}

// Label returns tip's label in col. ok is false if the row is absent or the label is missing.
func (t *Table) Label(tip, col string) (label string, ok bool) {
	row, found := t.labels[tip]
	if !found {
		return "", false
	}
	label, ok = row[col]
	return label, ok
}

// Restrict returns a new table holding only the rows whose tip satisfies keep
func (t *Table) Restrict(keep func(tip string) bool) *Table {
	nt := &Table{
		tipCol:  t.tipCol,
		columns: t.columns,
		order:   make([]string, 0, len(t.order)),
		labels:  make(map[string]map[string]string, len(t.order)),
	}
	for _, tip := range t.order {
		if keep(tip) {
			nt.order = append(nt.order, tip)
			nt.labels[tip] = t.labels[tip]
		}
	}
	return nt
}

// Labels returns the distinct present labels in col, minus any in exclude, sorted
func (t *Table) Labels(col string, exclude map[string]bool) ([]string, error) {
	if !t.HasColumn(col) {
		return nil, errors.Wrapf(ErrMissingColumn, "clade column %q", col)
	}
	seen := make(map[string]bool)
	for _, tip := range t.order {
		if label, ok := t.labels[tip][col]; ok && !exclude[label] {
			seen[label] = true
		}
	}
	labels := maps.Keys(seen)
	slices.Sort(labels)
	return labels, nil
}

// TipsWith returns the tips whose label in col is label, sorted
func (t *Table) TipsWith(col, label string) []string {
	tips := make([]string, 0)
	for _, tip := range t.order {
		if l, ok := t.labels[tip][col]; ok && l == label {
			tips = append(tips, tip)
		}
	}
	slices.Sort(tips)
	return tips
}
