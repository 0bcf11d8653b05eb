// Package dataset loads raw survey tables, reports their missingness and
// produces the cleaned categorical table the clustering sweeps consume.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyclust/internal/logging"
	"github.com/KaramelBytes/surveyclust/internal/utils"
)

var (
	// ErrEmptyTable is returned when no column or no row survives cleaning.
	ErrEmptyTable = errors.New("dataset: cleaned table is empty")
	// ErrMissingIdentifier is returned in strict mode when an identifier
	// column is absent from the raw header.
	ErrMissingIdentifier = errors.New("dataset: identifier column not found")
)

// DefaultNaNValues are the cell values treated as missing.
var DefaultNaNValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// Options controls loading and cleaning.
type Options struct {
	// MissingThreshold is the largest missing fraction a retained column may have.
	MissingThreshold float64
	// IdentifierColumns are dropped from the cleaned table.
	IdentifierColumns []string
	// StrictIdentifiers fails when an identifier column is absent from the raw header.
	StrictIdentifiers bool
	// OutputPath receives the cleaned CSV; empty disables persistence.
	OutputPath string
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx input; empty means the first.
	Sheet     string
	NaNValues []string
	Logger    *zap.Logger
}

// DefaultOptions returns the standard cleaning policy.
func DefaultOptions() Options {
	return Options{
		MissingThreshold:  0.15,
		IdentifierColumns: []string{"Unnamed: 0", "submission_id"},
		OutputPath:        filepath.Join("data", "data_clean"),
		NaNValues:         append([]string(nil), DefaultNaNValues...),
	}
}

// Dropped records what cleaning removed.
type Dropped struct {
	Columns     []string
	Identifiers []string
	Rows        int
}

// Table is a cleaned categorical table: no missing cells, no identifier columns.
type Table struct {
	Source  string
	DF      dataframe.DataFrame
	Profile *Profile
	Dropped Dropped
}

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.DF.Names() }

// Len returns the number of rows.
func (t *Table) Len() int { return t.DF.Nrow() }

// Rows returns the table body as string records, without the header.
func (t *Table) Rows() [][]string {
	recs := t.DF.Records()
	if len(recs) == 0 {
		return nil
	}
	return recs[1:]
}

// WithLabels returns a copy of t with an integer column name appended.
// An existing column of the same name is replaced.
func (t *Table) WithLabels(name string, labels []int) (*Table, error) {
	if len(labels) != t.Len() {
		return nil, fmt.Errorf("attach labels: %d labels for %d rows", len(labels), t.Len())
	}
	df := t.DF.Mutate(series.New(labels, series.Int, name))
	if df.Err != nil {
		return nil, fmt.Errorf("attach labels: %w", df.Err)
	}
	out := *t
	out.DF = df
	return &out, nil
}

// WriteCSV writes the table with a header row and no index column.
func (t *Table) WriteCSV(w io.Writer) error {
	return t.DF.WriteCSV(w)
}

// Save writes the table to path atomically, replacing any existing file.
func (t *Table) Save(path string) error {
	if err := utils.SafeWriteWith(path, t.WriteCSV); err != nil {
		return fmt.Errorf("write cleaned table: %w", err)
	}
	return nil
}

// Prepare loads path, removes columns above the missing threshold, removes
// rows with any remaining missing cell, drops identifier columns and persists
// the result to opt.OutputPath.
func Prepare(path string, opt Options) (*Table, error) {
	log := logging.OrNop(opt.Logger)
	if opt.NaNValues == nil {
		opt.NaNValues = DefaultNaNValues
	}
	raw, err := LoadFrame(path, opt)
	if err != nil {
		return nil, err
	}
	t, err := Clean(raw, opt)
	if err != nil {
		return nil, err
	}
	t.Source = path
	t.Profile.Name = filepath.Base(path)
	if opt.OutputPath != "" {
		if err := t.Save(opt.OutputPath); err != nil {
			return nil, err
		}
	}
	log.Info("prepared dataset",
		zap.String("input", path),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns())),
		zap.Strings("dropped_columns", t.Dropped.Columns),
		zap.Int("dropped_rows", t.Dropped.Rows),
		zap.String("output", opt.OutputPath),
	)
	return t, nil
}

// Clean applies the column, row and identifier filters to a raw frame.
func Clean(raw dataframe.DataFrame, opt Options) (*Table, error) {
	prof := ProfileMissing("", raw)
	if opt.StrictIdentifiers {
		have := make(map[string]bool, raw.Ncol())
		for _, n := range raw.Names() {
			have[n] = true
		}
		for _, id := range opt.IdentifierColumns {
			if !have[id] {
				return nil, fmt.Errorf("%w: %q", ErrMissingIdentifier, id)
			}
		}
	}

	keep := prof.Retained(opt.MissingThreshold)
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: no column within missing threshold %.3f", ErrEmptyTable, opt.MissingThreshold)
	}
	df := raw.Select(keep)
	if df.Err != nil {
		return nil, fmt.Errorf("select columns: %w", df.Err)
	}

	complete := completeRows(df)
	if len(complete) == 0 {
		return nil, fmt.Errorf("%w: every row has a missing value", ErrEmptyTable)
	}
	dropped := Dropped{Columns: prof.Excluded(opt.MissingThreshold), Rows: df.Nrow() - len(complete)}
	if len(complete) < df.Nrow() {
		df = df.Subset(complete)
		if df.Err != nil {
			return nil, fmt.Errorf("drop incomplete rows: %w", df.Err)
		}
	}

	present := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		present[n] = true
	}
	for _, id := range opt.IdentifierColumns {
		if present[id] {
			dropped.Identifiers = append(dropped.Identifiers, id)
		}
	}
	if len(dropped.Identifiers) == df.Ncol() {
		return nil, fmt.Errorf("%w: only identifier columns remain", ErrEmptyTable)
	}
	if len(dropped.Identifiers) > 0 {
		df = df.Drop(dropped.Identifiers)
		if df.Err != nil {
			return nil, fmt.Errorf("drop identifiers: %w", df.Err)
		}
	}
	return &Table{DF: df, Profile: prof, Dropped: dropped}, nil
}

func completeRows(df dataframe.DataFrame) []int {
	n := df.Nrow()
	bad := make([]bool, n)
	for _, name := range df.Names() {
		for i, isNaN := range df.Col(name).IsNaN() {
			if isNaN {
				bad[i] = true
			}
		}
	}
	idx := make([]int, 0, n)
	for i, b := range bad {
		if !b {
			idx = append(idx, i)
		}
	}
	return idx
}
