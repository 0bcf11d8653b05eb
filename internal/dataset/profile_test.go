package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileMissing(t *testing.T) {
	df, err := toFrame([][]string{
		{"a", "b", "c"},
		{"x", "", "p"},
		{"x", "n/a", "q"},
		{"y", "z", ""},
		{"x", "z", "p"},
	}, DefaultOptions())
	require.NoError(t, err)

	p := ProfileMissing("s.csv", df)
	require.Len(t, p.Cols, 3)
	assert.Equal(t, 4, p.Rows)
	assert.Equal(t, 0, p.Cols[0].Missing)
	assert.Equal(t, 2, p.Cols[1].Missing)
	assert.Equal(t, 0.5, p.Cols[1].Fraction)
	assert.Equal(t, 0.25, p.Cols[2].Fraction)
	assert.Equal(t, []CategoryCount{{"x", 3}, {"y", 1}}, p.Cols[0].Top)

	assert.Equal(t, []string{"a", "c"}, p.Retained(0.3))
	assert.Equal(t, []string{"b"}, p.Excluded(0.3))

	md := p.Markdown(0.3)
	assert.True(t, strings.HasPrefix(md, "[DATASET PROFILE]\nFile: s.csv\nRows: 4\nColumns: 3\n"))
	assert.Contains(t, md, "- b: missing 2 (50.000%), unique 1, excluded")
	assert.Contains(t, md, "- a: missing 0 (0.000%), unique 2, kept; top: x(3), y(1)")
}

func TestToFrameRejectsHeaderOnly(t *testing.T) {
	_, err := toFrame([][]string{{"a", "b"}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestToFramePadsShortRows(t *testing.T) {
	df, err := toFrame([][]string{{"a", "b"}, {"x"}}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, df.Col("b").IsNaN())

	_, err = toFrame([][]string{{"a"}, {"x", "y"}}, DefaultOptions())
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, '\t', sniffDelimiter("x.TSV"))
	assert.Equal(t, ',', sniffDelimiter("data/data_clean"))
}
