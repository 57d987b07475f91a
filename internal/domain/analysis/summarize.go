package analysis

import (
	"github.com/montanaflynn/stats"

	"github.com/okian/leadtime/internal/domain/model"
)

// GroupSummary reduces every record sharing a key. Count is at least one
// and Mean covers only records whose metric was defined.
type GroupSummary struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// GroupAndSummarize groups records by key and averages metric per group.
// Records whose metric is undefined are skipped. Groups are returned in the
// order their key was first seen; no group is returned for an empty dataset.
func GroupAndSummarize(ds model.Dataset, key KeyFn, metric MetricFn) []GroupSummary {
	return groupAndSummarize(ds, nil, key, metric)
}

func groupAndSummarize(ds model.Dataset, filter FilterFn, key KeyFn, metric MetricFn) []GroupSummary {
	if key == nil || metric == nil {
		return nil
	}
	var order []string
	values := make(map[string][]float64)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if filter != nil && !filter(r) {
			continue
		}
		v, ok := metric(r)
		if !ok {
			continue
		}
		k := key(r)
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = append(values[k], v)
	}
	if len(order) == 0 {
		return nil
	}

	out := make([]GroupSummary, 0, len(order))
	for _, k := range order {
		vs := values[k]
		// vs is never empty so Mean cannot fail.
		mean, _ := stats.Mean(vs)
		out = append(out, GroupSummary{Key: k, Count: len(vs), Mean: mean})
	}
	return out
}

// Direction selects the maximum or minimum mean.
type Direction int

const (
	// Max picks the largest mean.
	Max Direction = iota
	// Min picks the smallest mean.
	Min
)

// String returns "max" or "min".
func (d Direction) String() string {
	if d == Min {
		return "min"
	}
	return "max"
}

// SelectExtremum returns the group with the largest (Max) or smallest (Min)
// mean. On ties the earliest group wins. false means there were no groups.
func SelectExtremum(summaries []GroupSummary, dir Direction) (GroupSummary, bool) {
	if len(summaries) == 0 {
		return GroupSummary{}, false
	}
	best := summaries[0]
	for _, s := range summaries[1:] {
		if dir == Max && s.Mean > best.Mean {
			best = s
		}
		if dir == Min && s.Mean < best.Mean {
			best = s
		}
	}
	return best, true
}
