package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/leadtime/internal/app"
	repository "github.com/okian/leadtime/internal/adapters/repository"
	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/model"
)

func waitDone(ctx context.Context, svc *service.Service, id string) repository.Analysis {
	deadline := time.Now().Add(5 * time.Second)
	for {
		a, err := svc.Get(ctx, id)
		if err == nil && a.Status.Finished() {
			return a
		}
		if time.Now().After(deadline) {
			return a
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithDedupeSize(16),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("When the sample is submitted", func() {
			sub, err := svc.SubmitSample(ctx)
			So(err, ShouldBeNil)
			So(sub.Duplicate, ShouldBeFalse)
			So(sub.Status, ShouldEqual, "pending")

			a := waitDone(ctx, svc, sub.ID)

			Convey("Then the analysis completes with every answer", func() {
				So(a.Status, ShouldEqual, repository.StatusDone)
				So(a.Records, ShouldEqual, 2)
				So(a.CompletedAt, ShouldNotBeNil)
				So(a.Report, ShouldNotBeNil)
				So(a.Report.Answers[0].Key, ShouldEqual, "Supplier B")
				So(a.Report.Answers[0].Mean, ShouldEqual, 14.0)

				rep, err := svc.Report(ctx, sub.ID)
				So(err, ShouldBeNil)
				So(rep.Summary.TotalOrders, ShouldEqual, 2)
			})

			Convey("Then resubmitting the same data is a duplicate", func() {
				again, err := svc.SubmitDataset(ctx, "copy.csv", model.SampleDataset())
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.ID, ShouldEqual, sub.ID)

				list, err := svc.List(ctx, 10)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})

		Convey("When an empty dataset is submitted", func() {
			sub, err := svc.SubmitDataset(ctx, "empty.csv", model.NewDataset(model.ProcurementColumns(), nil))
			So(err, ShouldBeNil)
			a := waitDone(ctx, svc, sub.ID)

			Convey("Then every answer reports insufficient data", func() {
				So(a.Status, ShouldEqual, repository.StatusDone)
				for _, ans := range a.Report.Answers {
					So(ans.Status, ShouldEqual, analysis.StatusInsufficientData)
				}
			})
		})

		Convey("When an analysis is recorded as failed", func() {
			sub, err := svc.SubmitSample(ctx)
			So(err, ShouldBeNil)
			waitDone(ctx, svc, sub.ID)
			So(svc.Fail(ctx, sub.ID, errors.New("boom")), ShouldBeNil)

			Convey("Then the same data can be analysed again", func() {
				again, err := svc.SubmitSample(ctx)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeFalse)
				So(again.ID, ShouldNotEqual, sub.ID)

				failed, err := svc.Get(ctx, sub.ID)
				So(err, ShouldBeNil)
				So(failed.Error, ShouldEqual, "boom")
			})
		})

		Convey("When the report of an unknown analysis is requested", func() {
			_, err := svc.Report(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceEviction(t *testing.T) {
	Convey("Given a service that keeps a single analysis", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithStoreCapacity(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("When the stored analysis has finished", func() {
			first, err := svc.SubmitDataset(ctx, "a.csv", model.SampleDataset())
			So(err, ShouldBeNil)
			a := waitDone(ctx, svc, first.ID)
			So(a.Status, ShouldEqual, repository.StatusDone)

			Convey("Then a finished analysis is evicted for new work", func() {
				other := model.DatasetFromRows(model.ProcurementColumns(), model.SampleDataset().Rows()[:1])
				second, err := svc.SubmitDataset(ctx, "b.csv", other)
				So(err, ShouldBeNil)
				So(second.Duplicate, ShouldBeFalse)

				_, err = svc.Get(ctx, first.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_ConcurrentIdenticalSubmits(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(32))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the same dataset is submitted from many goroutines at once", func() {
			const n = 16
			ids := make([]string, n)
			dups := make([]bool, n)
			errs := make([]error, n)

			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := range n {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					sub, err := svc.SubmitDataset(ctx, "orders.csv", model.SampleDataset())
					ids[i], dups[i], errs[i] = sub.ID, sub.Duplicate, err
				}(i)
			}
			close(start)
			wg.Wait()

			Convey("Then one analysis is created and every caller gets its id", func() {
				fresh := 0
				for i := range n {
					So(errs[i], ShouldBeNil)
					So(ids[i], ShouldEqual, ids[0])
					if !dups[i] {
						fresh++
					}
				}
				So(fresh, ShouldEqual, 1)

				list, err := svc.List(ctx, 100)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
			})
		})
	})
}

func TestService_StopFailsPendingAnalyses(t *testing.T) {
	Convey("Given one worker stuck on an analysis and another analysis queued", t, func() {
		release := make(chan struct{})
		q := analysis.CanonicalQuestions()[0]
		q.Filter = func(model.Record) bool {
			<-release
			return true
		}

		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(4),
			service.WithQuestions(q),
			service.WithStore(store),
		)
		So(svc.Start(ctx), ShouldBeNil)

		sample := model.SampleDataset()
		first, err := svc.SubmitDataset(ctx, "first.csv", sample)
		So(err, ShouldBeNil)
		second, err := svc.SubmitDataset(ctx, "second.csv", model.DatasetFromRows(sample.Columns(), sample.Rows()[1:]))
		So(err, ShouldBeNil)

		Convey("When the service stops before the worker finishes", func() {
			stopCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()
			stopErr := svc.Stop(stopCtx)
			close(release)

			Convey("Then both analyses are failed instead of left pending", func() {
				So(stopErr, ShouldNotBeNil)
				for _, id := range []string{first.ID, second.ID} {
					a, err := store.Get(ctx, id)
					So(err, ShouldBeNil)
					So(a.Status, ShouldEqual, repository.StatusFailed)
					So(a.Error, ShouldEqual, service.ErrStopped.Error())
					So(a.CompletedAt, ShouldNotBeNil)
				}
			})
		})
	})
}
