package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "leadtime")
				So(manager.subsystem, ShouldEqual, "analysis")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.name("queue_size"), ShouldEqual, "test_prefix_queue_size")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})

			Convey("And collectors are registered on the given registry", func() {
				manager.analysesSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When analyses flow through the pipeline", func() {
			before := testutil.ToFloat64(globalManager.analysesCompleted)
			RecordAnalysisSubmitted()
			RecordAnalysisCompleted(12.5)
			RecordAnalysisDuplicate()
			RecordAnalysisFailed()

			Convey("Then the completed counter moves by one", func() {
				So(testutil.ToFloat64(globalManager.analysesCompleted), ShouldEqual, before+1)
			})
		})

		Convey("When records are ingested and skipped", func() {
			before := testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("lead_time"))
			RecordRecordsIngested(10)
			RecordRecordsSkipped("lead_time", 3)
			RecordRecordsSkipped("lead_time", 0)

			Convey("Then skipped records are counted per metric", func() {
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("lead_time")), ShouldEqual, before+3)
			})
		})

		Convey("When a question has insufficient data", func() {
			before := testutil.ToFloat64(globalManager.insufficientAnswers.WithLabelValues("q-test"))
			RecordInsufficientAnswer("q-test")

			Convey("Then it is counted by question id", func() {
				So(testutil.ToFloat64(globalManager.insufficientAnswers.WithLabelValues("q-test")), ShouldEqual, before+1)
			})
		})

		Convey("When recording operational gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateQueueUtilization(0.07)
			UpdateWorkerCount(4)
			UpdateStoredAnalyses(3)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.storedAnalyses), ShouldEqual, 3)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("analyses", "POST", "202")
				RecordHTTPRequestDuration("analyses", "POST", "202", 4.0)
				RecordErrorByComponent("worker", "analysis_error")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("analyses", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 1.0)
				RecordIngestError("csv")
				RecordWatchEvent("submitted")
				RecordStoreEviction()
				RecordStoreQueryLatency(0.2)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry can be gathered", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global collectors are reconfigured", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		defer func() { globalManager, customRegistry = prevManager, prevRegistry }()

		Configure(
			WithNamespace("lt_test"),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithRefreshInterval(250*time.Millisecond),
		)
		RecordAnalysisSubmitted()

		Convey("Then the new registry exports the configured names and labels", func() {
			So(GetRegistry(), ShouldNotEqual, prevRegistry)
			So(RefreshInterval(), ShouldEqual, 250*time.Millisecond)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, mf := range families {
				if mf.GetName() != "lt_test_analysis_submitted_total" {
					continue
				}
				found = true
				So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
				So(mf.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
			}
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given metrics are disabled", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		defer func() { globalManager, customRegistry = prevManager, prevRegistry }()

		Configure(WithMetricsEnabled(false))
		RecordAnalysisSubmitted()

		Convey("Then gated counters stay at zero", func() {
			So(testutil.ToFloat64(globalManager.analysesSubmitted), ShouldEqual, 0)
		})
	})
}
