/*
Package ingest turns billing and payroll exports into typed rows.

PURPOSE:
  The exports come from two different systems as CSV or XLSX, with a few
  title lines above the header, inconsistent column names and a "Total" line
  at the bottom. This package finds the header, maps columns by alias, types
  every cell it can and records a finding for every cell it cannot. It never
  applies business windows; dates stay as the original text.

KEY CONCEPTS:
  - Table: a sheet as rows of strings plus the detected header
  - Column aliases: each logical column accepts several header spellings
  - Findings: cells that could not be typed, with line numbers
  - Reported totals: the export's own "Total" line, kept for cross-checking

USAGE:
  in, err := ingest.LoadFiles("billing.xlsx", "payroll.csv")
  bundle := engine.Compute(in)

SEE ALSO:
  - columns.go: Column aliases and header detection
  - billing.go, payroll.go: Row typing per source
*/
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/warp/reconcile-engine/generic"
	"github.com/xuri/excelize/v2"
)

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from a file name.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", eris.Wrapf(generic.ErrUnsupportedFormat, "file %q", filename)
	}
}

// ReadRows reads every row of a CSV file or of the first XLSX sheet.
func ReadRows(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r)
	default:
		return nil, eris.Wrapf(generic.ErrUnsupportedFormat, "format %q", format)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	// Title lines and the totals line have fewer fields than the body.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "parse csv line %d", len(rows)+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "open workbook")
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, eris.Wrap(generic.ErrNoData, "workbook has no sheets")
	}

	// Raw values keep dates as serials and amounts without number formats;
	// both are parsed downstream.
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %q", sheet)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
