package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/leadtime/internal/adapters/export"
	"github.com/okian/leadtime/internal/domain/analysis"
)

var titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

// renderText writes a human readable report: summary, answers,
// seasonality and bullwhip sections.
func renderText(w io.Writer, rep analysis.Report) error {
	s := rep.Summary
	summary := newTable("Metric", "Value").Rows(
		[]string{"Total orders", strconv.Itoa(s.TotalOrders)},
		[]string{"Unique suppliers", strconv.Itoa(s.UniqueSuppliers)},
		[]string{"Product categories", strconv.Itoa(s.ProductCategories)},
		[]string{"Transportation modes", strconv.Itoa(s.TransportModes)},
	)

	answers := newTable("Question", "Answer", "Value")
	for _, a := range rep.Answers {
		row := export.Row(a)
		answers.Row(row.Question, row.Answer, row.Value)
	}

	sections := []string{
		titleStyle.Render("Summary"), summary.Render(),
		titleStyle.Render("Answers"), answers.Render(),
		titleStyle.Render("Seasonality"), renderSeasonality(rep.Seasonality),
		titleStyle.Render("Bullwhip effect"), renderBullwhip(rep.Bullwhip),
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func renderSeasonality(s analysis.Seasonality) string {
	if !s.Seasonal {
		return export.InsufficientData
	}
	t := newTable("Month", "Orders", "Mean lead time")
	for _, m := range s.Months {
		t.Row(m.Key, strconv.Itoa(m.Count), export.FormatDays(m.Mean))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Render(),
		fmt.Sprintf("peak %s, trough %s, spread %s", s.Peak, s.Trough, export.FormatDays(s.Spread)),
	)
}

func renderBullwhip(b analysis.BullwhipReport) string {
	if b.Status != analysis.StatusAnswered {
		return export.InsufficientData
	}
	verdict := "not detected"
	if b.Detected {
		verdict = "detected"
	}
	return newTable("Demand CV", "Order CV", "Amplification", "Bullwhip").Row(
		strconv.FormatFloat(b.DemandCV, 'f', 3, 64),
		strconv.FormatFloat(b.OrderCV, 'f', 3, 64),
		strconv.FormatFloat(b.Amplification, 'f', 2, 64),
		verdict,
	).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}
