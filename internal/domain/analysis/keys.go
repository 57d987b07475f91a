package analysis

import (
	"time"

	"github.com/okian/leadtime/internal/domain/model"
)

// KeyFn extracts the grouping key of a record.
type KeyFn func(model.Record) string

// FilterFn reports whether a record takes part in a question.
type FilterFn func(model.Record) bool

// Field groups by the raw value of a column. Absent fields group under "".
func Field(name string) KeyFn {
	return func(r model.Record) string {
		return r.Value(name)
	}
}

// MonthName groups by the English month name of a date field. Records whose
// date does not parse group under "".
func MonthName(field string) KeyFn {
	return func(r model.Record) string {
		m, ok := monthOf(r, field)
		if !ok {
			return ""
		}
		return m.String()
	}
}

// Excluding drops records whose field equals value exactly.
func Excluding(field, value string) FilterFn {
	return func(r model.Record) bool {
		return r.Value(field) != value
	}
}

func monthOf(r model.Record, field string) (time.Month, bool) {
	t, ok := r.Date(field)
	if !ok {
		return 0, false
	}
	return t.Month(), true
}
