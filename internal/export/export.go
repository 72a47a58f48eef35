// Package export writes a view of a dataset to CSV or XLSX and reads XLSX
// workbooks back into a row set.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"csvdeck/internal/dataset"
)

const defaultSheet = "Sheet1"

var ErrFormat = errors.New("unsupported export format")

// WriteCSV writes columns as the header followed by the display form of
// every row. Nulls become empty fields.
func WriteCSV(w io.Writer, columns []string, rows []dataset.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row.Get(col).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SheetName makes name acceptable as a worksheet name.
func SheetName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		return defaultSheet
	}
	return name
}

// WriteXLSX writes a single-sheet workbook. The header row is bold; numbers
// and booleans keep their cell types and nulls are left blank.
func WriteXLSX(w io.Writer, sheet string, columns []string, rows []dataset.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = SheetName(sheet)
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("header style: %w", err)
		}
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row.Get(col).Any()
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX loads the first sheet of a workbook. The first row is the header;
// cells are coerced the same way CSV fields are. Missing trailing cells read
// as null and blank rows are skipped.
func ReadXLSX(r io.Reader) (*dataset.RowSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	rs := &dataset.RowSet{Header: dataset.NormalizeHeader(records[0]), Rows: []dataset.Row{}}
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := make(dataset.Row, len(rs.Header))
		for i, h := range rs.Header {
			if i < len(record) {
				row[h] = dataset.Coerce(record[i])
			} else {
				row[h] = dataset.Null()
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}

// ToFile writes rows to path, choosing the format from its extension.
func ToFile(path string, columns []string, rows []dataset.Row) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return fmt.Errorf("%w: %q", ErrFormat, ext)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if ext == ".csv" {
		err = WriteCSV(out, columns, rows)
	} else {
		err = WriteXLSX(out, filepath.Base(path), columns, rows)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a dataset from a .csv or .xlsx file on disk.
func ReadFile(path string) (*dataset.RowSet, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return dataset.Parse(in)
	case ".xlsx":
		return ReadXLSX(in)
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, path)
}
