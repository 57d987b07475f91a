package analysis

import (
	"math"

	"github.com/okian/leadtime/internal/domain/model"
)

// Status tells whether a question could be answered.
type Status string

const (
	StatusAnswered         Status = "answered"
	StatusInsufficientData Status = "insufficient_data"
)

// Question is one analysis: filter, group, measure, select.
type Question struct {
	ID        string
	Text      string
	Key       KeyFn
	Metric    Metric
	Direction Direction
	// Filter is optional and runs before grouping.
	Filter FilterFn
}

// Answer is the outcome of one question. Key and Mean are set only when
// Status is StatusAnswered; Mean is rounded to one decimal place.
type Answer struct {
	QuestionID string     `json:"question_id"`
	Question   string     `json:"question"`
	Metric     MetricKind `json:"metric"`
	Status     Status     `json:"status"`
	Key        string     `json:"key,omitempty"`
	Mean       float64    `json:"mean"`
	Count      int        `json:"count"`
	Groups     int        `json:"groups"`
}

// Answered reports whether a winning group exists.
func (a Answer) Answered() bool {
	return a.Status == StatusAnswered
}

// Question identifiers.
const (
	QuestionSupplierHighestLeadTime = "supplier-highest-lead-time"
	QuestionTransportLowestLeadTime = "transport-lowest-lead-time"
	QuestionMonthHighestDelay       = "month-highest-delay"
	QuestionDisruptionLongestDelay  = "disruption-longest-delay"
	QuestionCategoryShortestLead    = "category-shortest-lead-time"
	QuestionTransportHighestDelay   = "transport-highest-delay"
)

// DisruptionNone marks orders without a disruption.
const DisruptionNone = "None"

// CanonicalQuestions returns the five procurement questions in order.
func CanonicalQuestions() []Question {
	return []Question{
		{
			ID:        QuestionSupplierHighestLeadTime,
			Text:      "Which supplier has the highest average lead time?",
			Key:       Field(model.FieldSupplier),
			Metric:    OrderLeadTime,
			Direction: Max,
		},
		{
			ID:        QuestionTransportLowestLeadTime,
			Text:      "What transportation mode has the lowest average lead time?",
			Key:       Field(model.FieldTransportMode),
			Metric:    OrderLeadTime,
			Direction: Min,
		},
		{
			ID:        QuestionMonthHighestDelay,
			Text:      "Which month shows the highest average delays in delivery?",
			Key:       MonthName(model.FieldActualDelivery),
			Metric:    DeliveryDelay,
			Direction: Max,
		},
		{
			ID:        QuestionDisruptionLongestDelay,
			Text:      "What type of disruption leads to the longest average delay?",
			Key:       Field(model.FieldDisruptionType),
			Metric:    DeliveryDelay,
			Direction: Max,
			Filter:    Excluding(model.FieldDisruptionType, DisruptionNone),
		},
		{
			ID:        QuestionCategoryShortestLead,
			Text:      "Which product category experiences the shortest average lead time?",
			Key:       Field(model.FieldProductCategory),
			Metric:    OrderLeadTime,
			Direction: Min,
		},
	}
}

// ExtendedQuestions returns the canonical questions followed by the
// transport delay question.
func ExtendedQuestions() []Question {
	return append(CanonicalQuestions(), Question{
		ID:        QuestionTransportHighestDelay,
		Text:      "Which mode of transportation contributes most significantly to delays?",
		Key:       Field(model.FieldTransportMode),
		Metric:    DeliveryDelay,
		Direction: Max,
	})
}

// Breakdown returns every group behind q in first-seen order.
func Breakdown(ds model.Dataset, q Question) []GroupSummary {
	return groupAndSummarize(ds, q.Filter, q.Key, q.Metric.Compute)
}

// AnswerQuestion runs q against ds. An empty group set yields
// StatusInsufficientData.
func AnswerQuestion(ds model.Dataset, q Question) Answer {
	groups := Breakdown(ds, q)
	ans := Answer{
		QuestionID: q.ID,
		Question:   q.Text,
		Metric:     q.Metric.Kind,
		Groups:     len(groups),
	}
	best, ok := SelectExtremum(groups, q.Direction)
	if !ok {
		ans.Status = StatusInsufficientData
		return ans
	}
	ans.Status = StatusAnswered
	ans.Key = best.Key
	ans.Mean = round1(best.Mean)
	ans.Count = best.Count
	return ans
}

// AnswerAll answers each question independently, in order.
func AnswerAll(ds model.Dataset, questions []Question) []Answer {
	out := make([]Answer, 0, len(questions))
	for _, q := range questions {
		out = append(out, AnswerQuestion(ds, q))
	}
	return out
}

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
