package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ranksum/internal"
	"ranksum/internal/errors"
)

// SampleReader reads numeric sample columns from Excel or CSV files
type SampleReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewSampleReader creates a reader; files ending in .csv are read as CSV,
// everything else as xlsx.
func NewSampleReader(filePath string) *SampleReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &SampleReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.WithComponent("SampleReader"),
	}
}

// WithLogger replaces the reader's logger. A nil logger disables logging.
func (r *SampleReader) WithLogger(logger *internal.Logger) *SampleReader {
	r.logger = logger.WithComponent("SampleReader")
	return r
}

// ReadColumns reads the samples in the columns headed x and y
func (r *SampleReader) ReadColumns(x, y string) (xs, ys []float64, err error) {
	table, err := r.ReadTable()
	if err != nil {
		return nil, nil, err
	}
	if xs, err = table.Column(x); err != nil {
		return nil, nil, err
	}
	if ys, err = table.Column(y); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// ReadTable reads the whole file. The first row holds the column names; for
// xlsx files only the first sheet is read.
func (r *SampleReader) ReadTable() (*Table, error) {
	r.logger.Debug("Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Read %d rows in %.2fms", len(rows), float64(time.Since(start).Nanoseconds())/1e6)

	if len(rows) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no header row", r.filePath))
	}
	return newTable(rows), nil
}

func (r *SampleReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "failed to read sheet %s", sheets[0])
	}
	return rows, nil
}

func (r *SampleReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read CSV file")
	}
	return rows, nil
}

// Table is a header row plus data rows of raw cell text
type Table struct {
	Headers []string
	rows    [][]string
	index   map[string]int
}

func newTable(rows [][]string) *Table {
	t := &Table{
		Headers: make([]string, len(rows[0])),
		rows:    rows[1:],
		index:   make(map[string]int, len(rows[0])),
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Rows returns the number of data rows
func (t *Table) Rows() int {
	return len(t.rows)
}

// Column parses the named column as numbers. Blank cells are skipped; any
// other cell that is not a finite number is an INVALID_INPUT error naming its
// row and column. Row numbers count the header as row 1.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.index[strings.TrimSpace(name)]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("column %q", name))
	}

	values := make([]float64, 0, len(t.rows))
	for i, row := range t.rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d, column %q: %q is not a finite number", i+2, name, cell))
		}
		values = append(values, v)
	}
	return values, nil
}
