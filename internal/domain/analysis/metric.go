// Package analysis is the tabular aggregation engine: it derives a day
// metric per record, groups records by a key column, reduces each group to
// a summary and selects the extremal group for each question.
//
// Every function here is pure. Datasets are read, never mutated, and no
// function returns an error: malformed dates are skipped per record and
// empty results are reported as insufficient data.
package analysis

import (
	"math"

	"github.com/okian/leadtime/internal/domain/model"
)

const secondsPerDay = 24 * 60 * 60

// MetricKind names the derived day metric.
type MetricKind string

const (
	// KindLeadTime is days from order placement to actual delivery.
	KindLeadTime MetricKind = "lead_time"
	// KindDelay is days from expected to actual delivery.
	KindDelay MetricKind = "delay"
)

// MetricFn derives an optional numeric value from a record. false means the
// value is undefined for this record.
type MetricFn func(model.Record) (float64, bool)

// Metric is the difference in whole days between two date fields.
type Metric struct {
	Kind MetricKind
	// From is the earlier field (order or expected date).
	From string
	// To is the later field (delivery or actual date).
	To string
}

// LeadTime measures days from orderField to deliveryField.
func LeadTime(orderField, deliveryField string) Metric {
	return Metric{Kind: KindLeadTime, From: orderField, To: deliveryField}
}

// Delay measures days from expectedField to actualField.
func Delay(expectedField, actualField string) Metric {
	return Metric{Kind: KindDelay, From: expectedField, To: actualField}
}

// Compute implements MetricFn for m.
func (m Metric) Compute(r model.Record) (float64, bool) {
	return ComputeMetric(r, m)
}

// ComputeMetric returns ceil((To - From) in days). Negative values are kept.
// If either date does not parse the metric is undefined.
func ComputeMetric(r model.Record, m Metric) (float64, bool) {
	from, ok := r.Date(m.From)
	if !ok {
		return 0, false
	}
	to, ok := r.Date(m.To)
	if !ok {
		return 0, false
	}
	// Unix seconds avoid time.Duration overflow for distant dates.
	days := math.Ceil(float64(to.Unix()-from.Unix()) / secondsPerDay)
	if days == 0 {
		// normalise -0
		days = 0
	}
	return days, true
}

// Default procurement metrics.
var (
	OrderLeadTime = LeadTime(model.FieldOrderDate, model.FieldActualDelivery)
	DeliveryDelay = Delay(model.FieldExpectedDelivery, model.FieldActualDelivery)
)
