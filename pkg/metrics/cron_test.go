package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	mf := findMetricFamily(mfs, "cron_job_runs_total")
	if mf == nil {
		t.Fatal("cron_job_runs_total not found")
	}
	var success, failure float64
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "result", "success") {
			success = metric.GetCounter().GetValue()
		}
		if matchesLabel(metric.GetLabel(), "result", "failure") {
			failure = metric.GetCounter().GetValue()
		}
	}
	if success != 1 {
		t.Fatalf("expected success=1, got %f", success)
	}
	if failure != 1 {
		t.Fatalf("expected failure=1, got %f", failure)
	}

	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPredictionMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPredictionMetrics(reg)
	metrics.ObserveLatency("crop_health", 80*time.Millisecond)
	metrics.IncOutcome("crop_health", "ok")
	metrics.IncOutcome("crop_health", "ok")
	metrics.IncOutcome("crop_health", "unavailable")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	mf := findMetricFamily(mfs, "prediction_outcomes_total")
	if mf == nil {
		t.Fatal("prediction_outcomes_total not found")
	}
	var ok, unavailable float64
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", "ok") {
			ok = metric.GetCounter().GetValue()
		}
		if matchesLabel(metric.GetLabel(), "outcome", "unavailable") {
			unavailable = metric.GetCounter().GetValue()
		}
	}
	if ok != 2 {
		t.Fatalf("expected ok=2, got %f", ok)
	}
	if unavailable != 1 {
		t.Fatalf("expected unavailable=1, got %f", unavailable)
	}

	if got, err := fetchHistogramSum(mfs, "prediction_latency_seconds", "pipeline", "crop_health"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	metrics := NewCronJobMetrics(nil)
	metrics.ObserveDuration("job", time.Second)
	metrics.IncSuccess("job")
	metrics.IncFailure("job")

	pm := NewPredictionMetrics(nil)
	pm.ObserveLatency("p", time.Second)
	pm.IncOutcome("p", "ok")
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
