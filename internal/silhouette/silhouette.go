// Package silhouette scores a clustering of label-encoded categorical rows
// using the Hamming distance between rows.
package silhouette

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/surveyclust/internal/categorical"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLabelCount is returned unless 2 <= distinct labels <= rows-1.
	ErrLabelCount = errors.New("silhouette: number of labels must be in [2, n_samples-1]")
	// ErrLength is returned when labels and rows disagree in length.
	ErrLength = errors.New("silhouette: labels and rows differ in length")
)

// Score returns the mean silhouette coefficient over all rows of x.
func Score(x mat.Matrix, labels []int) (float64, error) {
	s, err := Samples(x, labels)
	if err != nil {
		return 0, err
	}
	return stat.Mean(s, nil), nil
}

// Samples returns the silhouette coefficient of every row. Rows in singleton
// clusters score 0.
func Samples(x mat.Matrix, labels []int) ([]float64, error) {
	n, _ := x.Dims()
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrLength, len(labels), n)
	}
	// Map arbitrary labels onto 0..m-1.
	index := make(map[int]int)
	cl := make([]int, n)
	for i, l := range labels {
		c, ok := index[l]
		if !ok {
			c = len(index)
			index[l] = c
		}
		cl[i] = c
	}
	m := len(index)
	if m < 2 || m > n-1 {
		return nil, fmt.Errorf("%w: got %d labels for %d rows", ErrLabelCount, m, n)
	}
	sizes := make([]int, m)
	for _, c := range cl {
		sizes[c]++
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	out := make([]float64, n)
	sums := make([]float64, m)
	for i := 0; i < n; i++ {
		own := cl[i]
		if sizes[own] == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[cl[j]] += categorical.Hamming(rows[i], rows[j])
		}
		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for c := 0; c < m; c++ {
			if c == own {
				continue
			}
			if d := sums[c] / float64(sizes[c]); b < 0 || d < b {
				b = d
			}
		}
		den := a
		if b > den {
			den = b
		}
		if den > 0 {
			out[i] = (b - a) / den
		}
	}
	return out, nil
}
