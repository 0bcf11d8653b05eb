package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/report"
)

var records = []evaluate.Record{
	{K: 2, Cost: 120, Silhouette: 0.25},
	{K: 3, Cost: 90, Silhouette: 0.5},
}

var stability = &evaluate.StabilityResult{K: 3, Costs: []float64{90, 92, 91}, Mean: 91, StdDev: 0.8165}

func TestWriteRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "evaluation.csv")
	require.NoError(t, report.WriteRecordsCSV(path, records))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "k,cost,silhouette", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2,120"), lines[1])

	assert.Error(t, report.WriteRecordsCSV(path, nil))
}

func TestWriteStabilityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stability.csv")
	require.NoError(t, report.WriteStabilityCSV(path, stability))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "run,seed,cost", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "2,2,91"), lines[3])
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, report.WriteWorkbook(path, records, stability))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Evaluation", "Stability"}, f.GetSheetList())

	rows, err := f.GetRows("Evaluation")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"k", "cost", "silhouette"}, rows[0])
	assert.Equal(t, []string{"3", "90", "0.5"}, rows[2])

	rows, err = f.GetRows("Stability")
	require.NoError(t, err)
	assert.Equal(t, []string{"mean", "91"}, rows[len(rows)-2])
}

func TestWriteWorkbookSkipsEmptySheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stability.xlsx")
	require.NoError(t, report.WriteWorkbook(path, nil, stability))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Stability"}, f.GetSheetList())
	rows, err := f.GetRows("Stability")
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "seed", "cost"}, rows[0])

	path = filepath.Join(dir, "evaluation.xlsx")
	require.NoError(t, report.WriteWorkbook(path, records, nil))
	g, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, []string{"Evaluation"}, g.GetSheetList())

	err = report.WriteWorkbook(filepath.Join(dir, "empty.xlsx"), nil, &evaluate.StabilityResult{K: 2})
	assert.ErrorIs(t, err, report.ErrNoRecords)
	_, statErr := os.Stat(filepath.Join(dir, "empty.xlsx"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunManifestRoundTrip(t *testing.T) {
	out := t.TempDir()
	r := report.NewRun("evaluate", "survey.csv", out)
	r.Params["max_k"] = 10
	dir, err := r.Dir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "evaluate-"))

	artifact := r.Path("evaluation.csv")
	require.NoError(t, report.WriteRecordsCSV(artifact, records))
	require.NoError(t, r.AddArtifact(artifact))
	require.NoError(t, r.Save())

	loaded, err := report.LoadRun(dir)
	require.NoError(t, err)
	assert.Equal(t, r.ID, loaded.ID)
	assert.Equal(t, "evaluate", loaded.Kind)
	assert.EqualValues(t, 10, loaded.Params["max_k"])
	require.Len(t, loaded.Artifacts, 1)
	assert.Equal(t, "evaluation.csv", loaded.Artifacts[0].Name)
	assert.Positive(t, loaded.Artifacts[0].Bytes)

	runs, err := report.ListRuns(out)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.ID, runs[0].ID)

	require.Error(t, r.AddArtifact(filepath.Join(dir, "missing.png")))
	_, err = report.LoadRun(t.TempDir())
	assert.Error(t, err)
}

func TestListRunsMissingDir(t *testing.T) {
	runs, err := report.ListRuns(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}
