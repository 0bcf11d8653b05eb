// Package report exports sweep results as CSV and XLSX and records each run
// in a JSON manifest.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/surveyclust/internal/evaluate"
	"github.com/KaramelBytes/surveyclust/internal/utils"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("report: nothing to export")

type stabilityRow struct {
	Run  int     `dataframe:"run"`
	Seed int     `dataframe:"seed"`
	Cost float64 `dataframe:"cost"`
}

func stabilityRows(res *evaluate.StabilityResult) []stabilityRow {
	rows := make([]stabilityRow, len(res.Costs))
	for i, c := range res.Costs {
		rows[i] = stabilityRow{Run: i, Seed: i, Cost: c}
	}
	return rows
}

// WriteRecordsCSV writes one row per k with columns k, cost, silhouette.
func WriteRecordsCSV(path string, recs []evaluate.Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("write records: %w", ErrNoRecords)
	}
	return writeFrame(path, dataframe.LoadStructs(recs))
}

// WriteStabilityCSV writes one row per run with columns run, seed, cost.
func WriteStabilityCSV(path string, res *evaluate.StabilityResult) error {
	if res == nil || len(res.Costs) == 0 {
		return fmt.Errorf("write stability: %w", ErrNoRecords)
	}
	return writeFrame(path, dataframe.LoadStructs(stabilityRows(res)))
}

func writeFrame(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("build table: %w", df.Err)
	}
	err := utils.SafeWriteWith(path, func(w io.Writer) error { return df.WriteCSV(w) })
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

const (
	evaluationSheet = "Evaluation"
	stabilitySheet  = "Stability"
)

// WriteWorkbook writes an .xlsx with an Evaluation sheet for recs and a
// Stability sheet for res. An empty input gets no sheet; at least one must
// have data.
func WriteWorkbook(path string, recs []evaluate.Record, res *evaluate.StabilityResult) error {
	type sheet struct {
		name string
		rows [][]any
	}
	var sheets []sheet
	if len(recs) > 0 {
		rows := [][]any{{"k", "cost", "silhouette"}}
		for _, r := range recs {
			rows = append(rows, []any{r.K, r.Cost, r.Silhouette})
		}
		sheets = append(sheets, sheet{evaluationSheet, rows})
	}
	if res != nil && len(res.Costs) > 0 {
		rows := [][]any{{"run", "seed", "cost"}}
		for _, r := range stabilityRows(res) {
			rows = append(rows, []any{r.Run, r.Seed, r.Cost})
		}
		rows = append(rows, []any{}, []any{"k", res.K}, []any{"mean", res.Mean}, []any{"std_dev", res.StdDev})
		sheets = append(sheets, sheet{stabilitySheet, rows})
	}
	if len(sheets) == 0 {
		return fmt.Errorf("write workbook: %w", ErrNoRecords)
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := fillSheet(f, sh.name, sh.rows); err != nil {
			return err
		}
	}

	err := utils.SafeWriteWith(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
