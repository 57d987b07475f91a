package analysis

import "github.com/okian/leadtime/internal/domain/model"

// DefaultPreviewRows is the number of leading records kept in a report.
const DefaultPreviewRows = 5

// Report bundles everything computed for one dataset.
type Report struct {
	Summary     DatasetSummary            `json:"summary"`
	Answers     []Answer                  `json:"answers"`
	Breakdowns  map[string][]GroupSummary `json:"breakdowns"`
	Seasonality Seasonality               `json:"seasonality"`
	Bullwhip    BullwhipReport            `json:"bullwhip"`
	// Skipped counts records whose metric was undefined, per metric kind.
	Skipped map[MetricKind]int  `json:"skipped"`
	Columns []string            `json:"columns"`
	Preview []map[string]string `json:"preview"`
}

// ReportOption configures BuildReport.
type ReportOption func(*reportConfig)

type reportConfig struct {
	questions   []Question
	previewRows int
}

// WithQuestions replaces the question set. The default is ExtendedQuestions.
func WithQuestions(qs ...Question) ReportOption {
	return func(c *reportConfig) {
		c.questions = qs
	}
}

// WithPreviewRows sets how many leading records are previewed.
func WithPreviewRows(n int) ReportOption {
	return func(c *reportConfig) {
		if n >= 0 {
			c.previewRows = n
		}
	}
}

// BuildReport answers every question and computes the dataset insights.
func BuildReport(ds model.Dataset, opts ...ReportOption) Report {
	cfg := reportConfig{
		questions:   ExtendedQuestions(),
		previewRows: DefaultPreviewRows,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rep := Report{
		Summary:     Summarize(ds),
		Answers:     make([]Answer, 0, len(cfg.questions)),
		Breakdowns:  make(map[string][]GroupSummary, len(cfg.questions)),
		Seasonality: SeasonalProfile(ds),
		Bullwhip:    Bullwhip(ds),
		Skipped:     map[MetricKind]int{KindLeadTime: 0, KindDelay: 0},
		Columns:     ds.Columns(),
	}
	for _, q := range cfg.questions {
		rep.Answers = append(rep.Answers, AnswerQuestion(ds, q))
		rep.Breakdowns[q.ID] = Breakdown(ds, q)
	}
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if _, ok := OrderLeadTime.Compute(r); !ok {
			rep.Skipped[KindLeadTime]++
		}
		if _, ok := DeliveryDelay.Compute(r); !ok {
			rep.Skipped[KindDelay]++
		}
	}
	for _, r := range ds.Preview(cfg.previewRows) {
		rep.Preview = append(rep.Preview, r.Fields())
	}
	return rep
}

// Insufficient returns the answers that could not be computed.
func (r Report) Insufficient() []Answer {
	var out []Answer
	for _, a := range r.Answers {
		if !a.Answered() {
			out = append(out, a)
		}
	}
	return out
}
