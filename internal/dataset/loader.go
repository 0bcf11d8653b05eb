package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Loader reads a tabular file into string records, header first.
type Loader interface {
	CanLoad(filename string) bool
	Records(path string, opt Options) ([][]string, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported table format")

// LoadFrame reads path with the first matching loader and returns a frame in
// which every column is a string series and missing cells are NaN.
func LoadFrame(path string, opt Options) (dataframe.DataFrame, error) {
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		records, err := l.Records(path, opt)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return toFrame(records, opt)
	}
	return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func toFrame(records [][]string, opt Options) (dataframe.DataFrame, error) {
	if len(records) < 2 || len(records[0]) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no data rows", ErrEmptyTable)
	}
	header := records[0]
	ncol := len(header)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			// Unnamed leading columns are usually a previously written row index.
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}
	nan := make(map[string]struct{}, len(opt.NaNValues))
	for _, v := range opt.NaNValues {
		nan[v] = struct{}{}
	}
	for r := 1; r < len(records); r++ {
		rec := records[r]
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		} else if len(rec) > ncol {
			return dataframe.DataFrame{}, fmt.Errorf("read row %d: %d fields, header has %d", r, len(rec), ncol)
		}
		for j, v := range rec {
			if _, ok := nan[strings.TrimSpace(v)]; ok {
				rec[j] = "NaN"
			}
		}
		records[r] = rec
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"NaN"}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build table: %w", df.Err)
	}
	return df, nil
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return !strings.HasSuffix(name, ".xlsx")
}

func (csvLoader) Records(path string, opt Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Records(path string, opt Options) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: workbook %s has no sheets", path)
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", opt.Sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}
