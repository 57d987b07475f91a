package analysis

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/leadtime/internal/domain/model"
)

func rec(fields map[string]string) model.Record {
	return model.NewRecord(fields)
}

func dataset(records ...model.Record) model.Dataset {
	return model.NewDataset(model.ProcurementColumns(), records)
}

func order(supplier, ordered, expected, actual string) model.Record {
	return rec(map[string]string{
		model.FieldSupplier:         supplier,
		model.FieldOrderDate:        ordered,
		model.FieldExpectedDelivery: expected,
		model.FieldActualDelivery:   actual,
	})
}

func TestComputeMetric(t *testing.T) {
	Convey("Given a record with parseable dates", t, func() {
		r := order("A", "2024-01-15", "2024-01-25", "2024-01-28")

		Convey("Then lead time and delay are whole days", func() {
			v, ok := ComputeMetric(r, OrderLeadTime)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 13)

			v, ok = DeliveryDelay.Compute(r)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 3)
		})
	})

	Convey("Given an early delivery", t, func() {
		r := order("B", "2024-01-20", "2024-02-05", "2024-02-03")

		Convey("Then the negative delay is kept", func() {
			v, ok := ComputeMetric(r, DeliveryDelay)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, -2)
		})
	})

	Convey("Given partial days", t, func() {
		late := rec(map[string]string{"from": "2024-01-01 00:00:00", "to": "2024-01-02 06:00:00"})
		early := rec(map[string]string{"from": "2024-01-02 06:00:00", "to": "2024-01-01 12:00:00"})

		Convey("Then the difference is rounded up", func() {
			v, ok := ComputeMetric(late, LeadTime("from", "to"))
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2)

			v, ok = ComputeMetric(early, LeadTime("from", "to"))
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 0)
			So(math.Signbit(v), ShouldBeFalse)
		})
	})

	Convey("Given a malformed or missing date", t, func() {
		bad := order("A", "soon", "2024-01-25", "2024-01-28")
		missing := rec(map[string]string{model.FieldOrderDate: "2024-01-15"})

		Convey("Then the metric is undefined", func() {
			_, ok := ComputeMetric(bad, OrderLeadTime)
			So(ok, ShouldBeFalse)
			_, ok = ComputeMetric(missing, OrderLeadTime)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestGroupAndSummarize(t *testing.T) {
	Convey("Given orders from three suppliers", t, func() {
		ds := dataset(
			order("C", "2024-01-01", "2024-01-05", "2024-01-11"),
			order("A", "2024-01-01", "2024-01-05", "2024-01-04"),
			order("C", "2024-01-01", "2024-01-05", "2024-01-21"),
			order("B", "bad", "2024-01-05", "2024-01-06"),
			order("A", "2024-01-01", "2024-01-05", "2024-01-08"),
		)
		groups := GroupAndSummarize(ds, Field(model.FieldSupplier), OrderLeadTime.Compute)

		Convey("Then groups keep first-seen order and skip undefined metrics", func() {
			So(len(groups), ShouldEqual, 2)
			So(groups[0], ShouldResemble, GroupSummary{Key: "C", Count: 2, Mean: 15})
			So(groups[1], ShouldResemble, GroupSummary{Key: "A", Count: 2, Mean: 5})
		})

		Convey("Then totals are conserved", func() {
			var total float64
			for i := 0; i < ds.Len(); i++ {
				if v, ok := OrderLeadTime.Compute(ds.At(i)); ok {
					total += v
				}
			}
			var fromGroups float64
			for _, g := range groups {
				So(g.Count, ShouldBeGreaterThanOrEqualTo, 1)
				fromGroups += g.Mean * float64(g.Count)
			}
			So(fromGroups, ShouldAlmostEqual, total, 1e-9)
		})

		Convey("Then the malformed order still counts for delay", func() {
			delays := GroupAndSummarize(ds, Field(model.FieldSupplier), DeliveryDelay.Compute)
			So(len(delays), ShouldEqual, 3)
			So(delays[2].Key, ShouldEqual, "B")
			So(delays[2].Mean, ShouldEqual, 1)
		})
	})

	Convey("Given an empty dataset", t, func() {
		groups := GroupAndSummarize(dataset(), Field(model.FieldSupplier), OrderLeadTime.Compute)

		Convey("Then no groups are produced", func() {
			So(groups, ShouldBeEmpty)
		})
	})

	Convey("Given only malformed records", t, func() {
		ds := dataset(order("A", "x", "y", "z"), order("B", "", "", ""))
		groups := GroupAndSummarize(ds, Field(model.FieldSupplier), OrderLeadTime.Compute)

		Convey("Then no zero-count group is fabricated", func() {
			So(groups, ShouldBeEmpty)
		})
	})
}

func TestSelectExtremum(t *testing.T) {
	Convey("Given summaries with a tie", t, func() {
		groups := []GroupSummary{
			{Key: "x", Count: 1, Mean: 2},
			{Key: "y", Count: 3, Mean: 7},
			{Key: "z", Count: 1, Mean: 7},
			{Key: "w", Count: 2, Mean: 2},
		}

		Convey("Then Max dominates and the first tied group wins", func() {
			best, ok := SelectExtremum(groups, Max)
			So(ok, ShouldBeTrue)
			So(best.Key, ShouldEqual, "y")
			for _, g := range groups {
				So(best.Mean, ShouldBeGreaterThanOrEqualTo, g.Mean)
			}
		})

		Convey("Then Min dominates and the first tied group wins", func() {
			best, ok := SelectExtremum(groups, Min)
			So(ok, ShouldBeTrue)
			So(best.Key, ShouldEqual, "x")
			for _, g := range groups {
				So(best.Mean, ShouldBeLessThanOrEqualTo, g.Mean)
			}
		})

		Convey("Then repeated runs agree", func() {
			for i := 0; i < 10; i++ {
				best, _ := SelectExtremum(groups, Max)
				So(best.Key, ShouldEqual, "y")
			}
		})
	})

	Convey("Given no summaries", t, func() {
		_, ok := SelectExtremum(nil, Max)
		So(ok, ShouldBeFalse)
		_, ok = SelectExtremum([]GroupSummary{}, Min)
		So(ok, ShouldBeFalse)
	})
}

func TestAnswerQuestion(t *testing.T) {
	Convey("Given the two supplier scenario", t, func() {
		ds := dataset(
			rec(map[string]string{model.FieldSupplier: "A", model.FieldOrderDate: "2024-01-15", model.FieldActualDelivery: "2024-01-28"}),
			rec(map[string]string{model.FieldSupplier: "B", model.FieldOrderDate: "2024-01-20", model.FieldActualDelivery: "2024-02-03"}),
		)

		Convey("Then supplier B has the highest lead time of 14 days", func() {
			a := AnswerQuestion(ds, CanonicalQuestions()[0])
			So(a.Status, ShouldEqual, StatusAnswered)
			So(a.Key, ShouldEqual, "B")
			So(a.Mean, ShouldEqual, 14.0)
			So(a.Count, ShouldEqual, 1)
			So(a.Groups, ShouldEqual, 2)
		})

		Convey("Then answering twice gives identical results", func() {
			q := CanonicalQuestions()[0]
			So(AnswerQuestion(ds, q), ShouldResemble, AnswerQuestion(ds, q))
		})
	})

	Convey("Given an empty dataset", t, func() {
		answers := AnswerAll(dataset(), ExtendedQuestions())

		Convey("Then every question reports insufficient data", func() {
			So(len(answers), ShouldEqual, 6)
			for _, a := range answers {
				So(a.Status, ShouldEqual, StatusInsufficientData)
				So(a.Key, ShouldBeEmpty)
				So(a.Groups, ShouldEqual, 0)
			}
		})
	})

	Convey("Given a None disruption with the largest delay", t, func() {
		ds := dataset(
			rec(map[string]string{model.FieldDisruptionType: "None", model.FieldExpectedDelivery: "2024-01-01", model.FieldActualDelivery: "2024-03-01"}),
			rec(map[string]string{model.FieldDisruptionType: "Strike", model.FieldExpectedDelivery: "2024-01-01", model.FieldActualDelivery: "2024-01-04"}),
			rec(map[string]string{model.FieldDisruptionType: "Weather", model.FieldExpectedDelivery: "2024-01-01", model.FieldActualDelivery: "2024-01-02"}),
		)
		q := CanonicalQuestions()[3]

		Convey("Then None never forms a group", func() {
			for _, g := range Breakdown(ds, q) {
				So(g.Key, ShouldNotEqual, DisruptionNone)
			}
			a := AnswerQuestion(ds, q)
			So(a.Key, ShouldEqual, "Strike")
			So(a.Mean, ShouldEqual, 3.0)
		})

		Convey("Then a dataset of only None disruptions is insufficient", func() {
			only := dataset(ds.At(0))
			So(AnswerQuestion(only, q).Status, ShouldEqual, StatusInsufficientData)
		})
	})

	Convey("Given one question without data and others with data", t, func() {
		ds := dataset(order("A", "bad", "2024-01-05", "2024-01-07"))
		answers := AnswerAll(ds, CanonicalQuestions())

		Convey("Then lead time questions fail alone", func() {
			So(answers[0].Status, ShouldEqual, StatusInsufficientData)
			So(answers[2].Status, ShouldEqual, StatusAnswered)
			So(answers[2].Key, ShouldEqual, "January")
			So(answers[2].Mean, ShouldEqual, 2.0)
		})
	})

	Convey("Given means with more than one decimal", t, func() {
		ds := dataset(
			order("A", "2024-01-01", "", "2024-01-02"),
			order("A", "2024-01-01", "", "2024-01-02"),
			order("A", "2024-01-01", "", "2024-01-03"),
		)

		Convey("Then the answer is rounded to one decimal place", func() {
			a := AnswerQuestion(ds, CanonicalQuestions()[0])
			So(a.Mean, ShouldEqual, 1.3)
		})
	})
}

func TestSampleDatasetAnswers(t *testing.T) {
	Convey("Given the built-in sample", t, func() {
		answers := AnswerAll(model.SampleDataset(), ExtendedQuestions())

		Convey("Then every question is answered", func() {
			want := []struct {
				key  string
				mean float64
			}{
				{"Supplier B", 14},
				{"Air", 13},
				{"January", 3},
				{"Weather", 3},
				{"Electronics", 13},
				{"Air", 3},
			}
			So(len(answers), ShouldEqual, len(want))
			for i, w := range want {
				So(answers[i].Status, ShouldEqual, StatusAnswered)
				So(answers[i].Key, ShouldEqual, w.key)
				So(answers[i].Mean, ShouldEqual, w.mean)
			}
		})
	})
}
