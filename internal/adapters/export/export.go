// Package export serialises analysis answers and reports for download.
package export

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/model"
)

// Default download names.
const (
	CSVFileName  = "lead-time-analysis-results.csv"
	XLSXFileName = "lead-time-analysis-results.xlsx"
)

// InsufficientData is rendered for questions without an answer.
const InsufficientData = "insufficient data"

// Sheet names of the XLSX report.
const (
	SheetAnswers     = "Answers"
	SheetSummary     = "Summary"
	SheetSeasonality = "Seasonality"
	SheetBullwhip    = "Bullwhip"
)

// AnswerRow is the display form of an answer.
type AnswerRow struct {
	Question string
	Answer   string
	Value    string
}

// Row renders a as a display row. Values read like "14.0 days".
func Row(a analysis.Answer) AnswerRow {
	if !a.Answered() {
		return AnswerRow{Question: a.Question, Answer: InsufficientData, Value: InsufficientData}
	}
	return AnswerRow{Question: a.Question, Answer: a.Key, Value: FormatDays(a.Mean)}
}

// FormatDays renders a mean with one decimal place.
func FormatDays(v float64) string {
	return fmt.Sprintf("%.1f days", v)
}

// WriteCSV writes answers with the header Question,Answer,Value.
func WriteCSV(w io.Writer, answers []analysis.Answer) error {
	questions := make([]string, len(answers))
	values := make([]string, len(answers))
	winners := make([]string, len(answers))
	for i, a := range answers {
		row := Row(a)
		questions[i] = row.Question
		winners[i] = row.Answer
		values[i] = row.Value
	}
	df := dataframe.New(
		series.New(questions, series.String, "Question"),
		series.New(winners, series.String, "Answer"),
		series.New(values, series.String, "Value"),
	)
	if df.Err != nil {
		return fmt.Errorf("build answers frame: %w", df.Err)
	}
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("write answers csv: %w", err)
	}
	return nil
}

// WriteDataset writes ds as CSV in its column order, header first.
func WriteDataset(w io.Writer, ds model.Dataset) error {
	records := append([][]string{ds.Columns()}, ds.Rows()...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("build dataset frame: %w", df.Err)
	}
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("write dataset csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with answer, summary, seasonality and
// bullwhip sheets.
func WriteXLSX(w io.Writer, rep analysis.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetAnswers); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetSeasonality, SheetBullwhip} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	answers := [][]interface{}{{"Question", "Answer", "Value", "Groups"}}
	for _, a := range rep.Answers {
		row := Row(a)
		answers = append(answers, []interface{}{row.Question, row.Answer, row.Value, a.Groups})
	}

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Total Orders", rep.Summary.TotalOrders},
		{"Unique Suppliers", rep.Summary.UniqueSuppliers},
		{"Product Categories", rep.Summary.ProductCategories},
		{"Transport Modes", rep.Summary.TransportModes},
	}

	season := [][]interface{}{{"Month", "Orders", "Mean Lead Time"}}
	for _, m := range rep.Seasonality.Months {
		season = append(season, []interface{}{m.Key, m.Count, FormatDays(m.Mean)})
	}
	if rep.Seasonality.Seasonal {
		season = append(season,
			[]interface{}{},
			[]interface{}{"Peak", rep.Seasonality.Peak},
			[]interface{}{"Trough", rep.Seasonality.Trough},
			[]interface{}{"Spread", FormatDays(rep.Seasonality.Spread)},
		)
	}

	bw := [][]interface{}{{"Month", "Customer Demand", "Order Quantity"}}
	for _, m := range rep.Bullwhip.Months {
		bw = append(bw, []interface{}{m.Month, m.Demand, m.Quantity})
	}
	bw = append(bw, []interface{}{}, []interface{}{"Status", string(rep.Bullwhip.Status)})
	if rep.Bullwhip.Status == analysis.StatusAnswered {
		bw = append(bw,
			[]interface{}{"Demand CV", rep.Bullwhip.DemandCV},
			[]interface{}{"Order CV", rep.Bullwhip.OrderCV},
			[]interface{}{"Amplification", rep.Bullwhip.Amplification},
			[]interface{}{"Detected", rep.Bullwhip.Detected},
		)
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetAnswers:     answers,
		SheetSummary:     summary,
		SheetSeasonality: season,
		SheetBullwhip:    bw,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
