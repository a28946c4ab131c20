package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("sweep")
	m.IncSuccess("sweep")
	m.IncFailure("sweep")
	m.ObserveDuration("sweep", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("sweep")); got != 2 {
		t.Fatalf("success count = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("sweep")); got != 1 {
		t.Fatalf("failure count = %f, want 1", got)
	}
	if got := testutil.CollectAndCount(m.duration, "job_duration_seconds"); got != 1 {
		t.Fatalf("histogram series = %d, want 1", got)
	}
}

func TestCronJobMetricsNormalizesEmptyJobLabel(t *testing.T) {
	m := NewCronJobMetrics(prometheus.NewRegistry())
	m.IncSuccess("")

	if got := testutil.ToFloat64(m.success.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty job label not normalized, count = %f", got)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("sweep")
	m.IncFailure("sweep")
	m.ObserveDuration("sweep", time.Second)
}

func TestSubscriptionMetricsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSubscriptionMetrics(reg)

	m.IncTransition("ACTIVE", "EXPIRED")
	m.IncTransition("ACTIVE", "EXPIRED")
	m.IncTransition("", "ACTIVE")

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("ACTIVE", "EXPIRED")); got != 2 {
		t.Fatalf("transition count = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("unknown", "ACTIVE")); got != 1 {
		t.Fatalf("empty from label not normalized, count = %f", got)
	}
}
