// Package ingest turns delimited text and spreadsheets into datasets.
// Every cell is kept as a string; typing happens in the engine.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/okian/leadtime/internal/domain/model"
)

// Format identifies an input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf derives the format from a file name extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses r according to the extension of name. sheet is only used for
// spreadsheets.
func Read(name string, r io.Reader, sheet string) (model.Dataset, error) {
	f, err := FormatOf(name)
	if err != nil {
		return model.Dataset{}, err
	}
	return ReadFormat(f, r, sheet)
}

// ReadFormat parses r as f.
func ReadFormat(f Format, r io.Reader, sheet string) (model.Dataset, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, sheet)
	default:
		return model.Dataset{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ReadCSV parses comma separated text whose first row is the header.
// Blank lines are skipped and no type detection is applied.
func ReadCSV(r io.Reader) (model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("read csv: %w", err)
	}
	if countLines(data) < 2 {
		return model.Dataset{}, fmt.Errorf("read csv: %w", ErrEmptyInput)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return model.Dataset{}, fmt.Errorf("read csv: %w: %v", ErrMalformed, df.Err)
	}

	records := df.Records()
	if len(records) < 2 {
		return model.Dataset{}, fmt.Errorf("read csv: %w", ErrEmptyInput)
	}
	return model.DatasetFromRows(trimHeader(records[0]), records[1:]), nil
}

// ReadXLSX parses a workbook sheet whose first row is the header. An empty
// sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) (model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("read xlsx: %w: %v", ErrMalformed, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return model.Dataset{}, fmt.Errorf("read xlsx: %w", ErrEmptyInput)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return model.Dataset{}, fmt.Errorf("read xlsx: %w: no sheet %q", ErrMalformed, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("read xlsx: %w: %v", ErrMalformed, err)
	}
	if err := normalizeDates(f, sheet, rows); err != nil {
		return model.Dataset{}, fmt.Errorf("read xlsx: %w: %v", ErrMalformed, err)
	}
	rows = dropBlankRows(rows)
	if len(rows) < 2 {
		return model.Dataset{}, fmt.Errorf("read xlsx: %w", ErrEmptyInput)
	}
	return model.DatasetFromRows(trimHeader(rows[0]), rows[1:]), nil
}

// normalizeDates rewrites date formatted cells as ISO text built from the
// stored serial. Display text such as "mmm-yy" may drop the day.
func normalizeDates(f *excelize.File, sheet string, rows [][]string) error {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	dateStyles := make(map[int]bool)
	for r, row := range rows {
		if r >= len(raw) {
			break
		}
		for c, shown := range row {
			if c >= len(raw[r]) {
				break
			}
			value := raw[r][c]
			if value == shown {
				continue
			}
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			idx, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			isDate, ok := dateStyles[idx]
			if !ok {
				isDate = isDateStyle(f, idx)
				dateStyles[idx] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			row[c] = formatSerialTime(t)
		}
	}
	return nil
}

// isDateStyle reports whether the number format of style idx renders a
// date or a time.
func isDateStyle(f *excelize.File, idx int) bool {
	style, err := f.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return (style.NumFmt >= 14 && style.NumFmt <= 22) || (style.NumFmt >= 45 && style.NumFmt <= 47)
}

// isDateFormatCode looks for date or time tokens outside quoted literals
// and bracketed sections such as colours and locales.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracketed := false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case ch == '"':
			quoted = !quoted
		case quoted:
		case ch == '[':
			bracketed = true
		case ch == ']':
			bracketed = false
		case bracketed:
		default:
			b.WriteRune(ch)
		}
	}
	return strings.ContainsAny(b.String(), "ydhms")
}

func formatSerialTime(t time.Time) string {
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func countLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
