package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

// writeSurvey writes a 100-row survey with 10 columns: q_some (10% missing),
// submission_id, q0..q6 (complete) and q_sparse (20% missing).
func writeSurvey(t *testing.T, dir string) string {
	t.Helper()
	answers := []string{"yes", "no", "maybe"}
	var b strings.Builder
	b.WriteString("q_some,submission_id,q0,q1,q2,q3,q4,q5,q6,q_sparse\n")
	for i := 0; i < 100; i++ {
		some := answers[i%3]
		if i%10 == 3 {
			some = ""
		}
		sparse := "rare"
		if i%5 == 0 {
			sparse = ""
		}
		fields := []string{some, fmt.Sprintf("S%03d", i)}
		for q := 0; q < 7; q++ {
			fields = append(fields, answers[(i+q)%3])
		}
		fields = append(fields, sparse)
		b.WriteString(strings.Join(fields, ",") + "\n")
	}
	path := filepath.Join(dir, "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testOptions(t *testing.T, dir string) Options {
	opt := DefaultOptions()
	opt.OutputPath = filepath.Join(dir, "data", "data_clean")
	opt.Logger = zaptest.NewLogger(t)
	return opt
}

func TestPrepareDropsSparseColumnsRowsAndIdentifiers(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir)

	tbl, err := Prepare(path, testOptions(t, dir))
	require.NoError(t, err)

	assert.Equal(t, []string{"q0", "q1", "q2", "q3", "q4", "q5", "q6", "q_some"}, tbl.Columns())
	assert.Equal(t, 90, tbl.Len())
	assert.Equal(t, []string{"q_sparse"}, tbl.Dropped.Columns)
	assert.Equal(t, []string{"submission_id"}, tbl.Dropped.Identifiers)
	assert.Equal(t, 10, tbl.Dropped.Rows)
	for i, r := range tbl.Rows() {
		for j, v := range r {
			assert.NotEqual(t, "NaN", v, "row %d col %d", i, j)
			assert.NotEmpty(t, v)
		}
	}
	assert.Equal(t, "survey.csv", tbl.Profile.Name)
	assert.Equal(t, 100, tbl.Profile.Rows)
}

func TestPreparePersistsWithoutIndexAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir)
	opt := testOptions(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(opt.OutputPath), 0o755))
	require.NoError(t, os.WriteFile(opt.OutputPath, []byte("stale\n"), 0o644))

	_, err := Prepare(path, opt)
	require.NoError(t, err)
	first, err := os.ReadFile(opt.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(first)), "\n")
	require.Len(t, lines, 91)
	assert.Equal(t, "q0,q1,q2,q3,q4,q5,q6,q_some", lines[0])

	_, err = Prepare(path, opt)
	require.NoError(t, err)
	second, err := os.ReadFile(opt.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestPrepareKeepsColumnAtThreshold(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < 20; i++ {
		v := "x"
		if i < 3 {
			v = "NA"
		}
		fmt.Fprintf(&b, "%s,%d\n", v, i%2)
	}
	path := filepath.Join(dir, "edge.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	opt := testOptions(t, dir)
	opt.OutputPath = ""
	tbl, err := Prepare(path, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, tbl.Columns())
	assert.Equal(t, 17, tbl.Len())
}

func TestPrepareEmptyResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holes.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n,x\ny,\n"), 0o644))

	opt := testOptions(t, dir)
	opt.OutputPath = ""
	opt.MissingThreshold = 0.5
	_, err := Prepare(path, opt)
	assert.True(t, errors.Is(err, ErrEmptyTable), "got %v", err)

	opt.MissingThreshold = 0.1
	_, err = Prepare(path, opt)
	assert.True(t, errors.Is(err, ErrEmptyTable), "got %v", err)
}

func TestPrepareIdentifiers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexed.csv")
	require.NoError(t, os.WriteFile(path, []byte(",a,b\n0,x,y\n1,x,z\n"), 0o644))
	opt := testOptions(t, dir)
	opt.OutputPath = ""

	tbl, err := Prepare(path, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	assert.Equal(t, []string{"Unnamed: 0"}, tbl.Dropped.Identifiers)

	opt.StrictIdentifiers = true
	_, err = Prepare(path, opt)
	assert.True(t, errors.Is(err, ErrMissingIdentifier), "got %v", err)
}

func TestPrepareMissingFile(t *testing.T) {
	_, err := Prepare(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPrepareXLSX(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	rows := [][]any{
		{"submission_id", "color", "size"},
		{"1", "red", "small"},
		{"2", "blue", nil},
		{"3", "red", "large"},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(dir, "survey.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	opt := testOptions(t, dir)
	opt.OutputPath = ""
	opt.MissingThreshold = 0.5
	tbl, err := Prepare(path, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"color", "size"}, tbl.Columns())
	assert.Equal(t, [][]string{{"red", "small"}, {"red", "large"}}, tbl.Rows())

	opt.Sheet = "Missing"
	_, err = Prepare(path, opt)
	assert.Error(t, err)
}

func TestWithLabels(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir)
	opt := testOptions(t, dir)
	opt.OutputPath = ""
	tbl, err := Prepare(path, opt)
	require.NoError(t, err)

	labels := make([]int, tbl.Len())
	for i := range labels {
		labels[i] = i % 4
	}
	out, err := tbl.WithLabels("cluster", labels)
	require.NoError(t, err)
	assert.Equal(t, "cluster", out.Columns()[len(out.Columns())-1])
	assert.Len(t, tbl.Columns(), 8)
	assert.Equal(t, "3", out.Rows()[3][8])

	_, err = tbl.WithLabels("cluster", labels[:3])
	assert.Error(t, err)
}

func TestCacheReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir)
	opt := testOptions(t, dir)
	opt.OutputPath = ""
	c := NewCache(NewPreparer(path, opt))

	a, err := c.Load()
	require.NoError(t, err)
	b, err := c.Load()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Hits())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	d, err := c.Load()
	require.NoError(t, err)
	assert.NotSame(t, a, d)
	assert.Equal(t, 1, c.Hits())
}
