// Package export writes crawl results as spreadsheet workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
	"github.com/xuri/excelize/v2"
)

// Extension is the file extension of exported workbooks.
const Extension = ".xlsx"

// FileName returns "{prefix}_{YYYYMMDD_HHMMSS}.xlsx" for a run started at runAt.
func FileName(prefix string, runAt time.Time) string {
	return prefix + "_" + runAt.Format("20060102_150405") + Extension
}

// Columns returns the sorted union of the keys of records.
func Columns(records []record.Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

// WriteWorkbook writes records to a single-sheet workbook at path. The first
// row holds the column names; missing fields are left blank.
//
// The workbook is written to a temporary file next to path and renamed into
// place, so path either holds a complete workbook or is untouched.
func WriteWorkbook(path, sheet string, records []record.Record) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	wb := excelize.NewFile()
	defer wb.Close()

	if err := fill(wb, sheet, records); err != nil {
		return err
	}
	if _, err := wb.WriteTo(tmp); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename workbook: %w", err)
	}
	return nil
}

func fill(wb *excelize.File, sheet string, records []record.Record) error {
	if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("sheet name %q: %w", sheet, err)
	}

	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}

	cols := Columns(records)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(r[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return nil
}

// cellValue maps a decoded JSON value onto something a cell can hold.
// Numbers keep their upstream text; nested values are written as JSON.
func cellValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string, bool:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
