// Package categorical holds the label encoding and mismatch distances used by
// K-Modes and the silhouette score.
package categorical

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when there are no rows or no columns to encode.
	ErrEmpty = errors.New("categorical: empty input")
	// ErrRagged is returned when rows have differing lengths.
	ErrRagged = errors.New("categorical: rows have differing lengths")
)

// Encoder maps each column's categories to integers 0..n-1, assigned in
// sorted category order. Each column is fitted independently.
type Encoder struct {
	// Categories holds the sorted distinct values per column.
	Categories [][]string
	index      []map[string]int
}

// Fit learns the per-column category sets of rows.
func Fit(rows [][]string) (*Encoder, error) {
	ncol, err := shape(rows)
	if err != nil {
		return nil, err
	}
	e := &Encoder{
		Categories: make([][]string, ncol),
		index:      make([]map[string]int, ncol),
	}
	for j := 0; j < ncol; j++ {
		seen := make(map[string]struct{})
		for _, r := range rows {
			seen[r[j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		idx := make(map[string]int, len(cats))
		for i, v := range cats {
			idx[v] = i
		}
		e.Categories[j] = cats
		e.index[j] = idx
	}
	return e, nil
}

// Columns returns the number of fitted columns.
func (e *Encoder) Columns() int { return len(e.Categories) }

// Codes encodes rows into integer codes. Unknown categories are an error.
func (e *Encoder) Codes(rows [][]string) ([][]int, error) {
	ncol, err := shape(rows)
	if err != nil {
		return nil, err
	}
	if ncol != e.Columns() {
		return nil, fmt.Errorf("encode: got %d columns, encoder fitted on %d: %w", ncol, e.Columns(), ErrRagged)
	}
	out := make([][]int, len(rows))
	for i, r := range rows {
		codes := make([]int, ncol)
		for j, v := range r {
			c, ok := e.index[j][v]
			if !ok {
				return nil, fmt.Errorf("encode row %d column %d: unknown category %q", i, j, v)
			}
			codes[j] = c
		}
		out[i] = codes
	}
	return out, nil
}

// Transform encodes rows into a dense matrix, one row per record.
func (e *Encoder) Transform(rows [][]string) (*mat.Dense, error) {
	codes, err := e.Codes(rows)
	if err != nil {
		return nil, err
	}
	return Dense(codes), nil
}

// Decode maps a code of column col back to its category.
func (e *Encoder) Decode(col, code int) string {
	return e.Categories[col][code]
}

// FitTransform fits an encoder on rows and returns the encoded matrix.
func FitTransform(rows [][]string) (*Encoder, *mat.Dense, error) {
	e, err := Fit(rows)
	if err != nil {
		return nil, nil, err
	}
	m, err := e.Transform(rows)
	if err != nil {
		return nil, nil, err
	}
	return e, m, nil
}

// Dense copies integer codes into a float matrix.
func Dense(codes [][]int) *mat.Dense {
	m := mat.NewDense(len(codes), len(codes[0]), nil)
	for i, r := range codes {
		for j, c := range r {
			m.Set(i, j, float64(c))
		}
	}
	return m
}

func shape(rows [][]string) (int, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, ErrEmpty
	}
	ncol := len(rows[0])
	for i, r := range rows {
		if len(r) != ncol {
			return 0, fmt.Errorf("row %d has %d fields, want %d: %w", i, len(r), ncol, ErrRagged)
		}
	}
	return ncol, nil
}
