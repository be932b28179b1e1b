package authgate

import (
	"testing"
	"time"
)

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Inc(MetricIssueSuccess)
	m.Inc(MetricIssueSuccess)
	m.Inc(MetricRotation)
	m.Observe(MetricResolveLatency, 3*time.Millisecond)
	m.Observe(MetricResolveLatency, 40*time.Millisecond)
	m.Observe(MetricResolveLatency, time.Second)

	if v := m.Value(MetricIssueSuccess); v != 2 {
		t.Fatalf("issue counter = %d", v)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricRotation] != 1 {
		t.Fatalf("rotation counter = %d", snap.Counters[MetricRotation])
	}

	buckets := snap.Histograms[MetricResolveLatency]
	if len(buckets) != 8 {
		t.Fatalf("bucket count = %d", len(buckets))
	}
	if buckets[0] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("bucket distribution = %v", buckets)
	}
}

func TestMetricsDisabledNoOps(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.Inc(MetricIssueSuccess)
	m.Observe(MetricResolveLatency, time.Millisecond)

	if v := m.Value(MetricIssueSuccess); v != 0 {
		t.Fatalf("disabled counter = %d", v)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("disabled snapshot = %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricIssueSuccess)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics reported enabled")
	}
}

func TestMetricsOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(metricIDCount + 5)
	if v := m.Value(metricIDCount + 5); v != 0 {
		t.Fatalf("out-of-range counter = %d", v)
	}
}
