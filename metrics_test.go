package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc(MetricLoginSuccess)
		}()
	}
	wg.Wait()

	m.Observe(MetricLoginLatency, 5*time.Millisecond)
	m.Observe(MetricLoginLatency, 80*time.Millisecond)
	m.Observe(MetricLoginLatency, 3*time.Second)
	m.Observe(MetricLoginSuccess, time.Second)

	s := m.Snapshot()
	if s.Counters[MetricLoginSuccess] != 50 {
		t.Fatalf("expected 50 login successes, got %d", s.Counters[MetricLoginSuccess])
	}
	if _, ok := s.Counters[MetricLoginLatency]; ok {
		t.Fatal("latency must not appear as a counter")
	}
	buckets := s.Histograms[MetricLoginLatency]
	if len(buckets) != histBucketCount || buckets[0] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected buckets %v", buckets)
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricLogout)
	if m.Value(MetricLogout) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLogout)
	nilMetrics.Observe(MetricLoginLatency, time.Second)
}
