package monitor

import (
	"testing"
	"time"

	"github.com/tsawler/docparse/model"
)

func metric(parser string, d time.Duration, success bool, conf float64) ParseMetric {
	return ParseMetric{
		Parser:      parser,
		ElementType: model.ElementTypeTable,
		Duration:    d,
		Success:     success,
		Confidence:  conf,
		MemoryBytes: 1024,
	}
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0 // no low-confidence noise in aggregate tests
	return cfg
}

func TestRecordAggregates(t *testing.T) {
	m := NewWithConfig(quietConfig())
	m.Record(metric("table", 10*time.Millisecond, true, 0.8))
	m.Record(metric("table", 30*time.Millisecond, true, 0.6))
	m.Record(metric("table", 20*time.Millisecond, false, 0.1))

	snap := m.Snapshot()
	stats, ok := snap.Parsers["table"]
	if !ok {
		t.Fatal("missing table parser stats")
	}
	if stats.Count != 3 || stats.Successes != 2 || stats.Failures != 1 {
		t.Errorf("count %d successes %d failures %d", stats.Count, stats.Successes, stats.Failures)
	}
	if stats.MinLatency != 10*time.Millisecond || stats.MaxLatency != 30*time.Millisecond {
		t.Errorf("min %s max %s", stats.MinLatency, stats.MaxLatency)
	}
	if stats.AvgLatency != 20*time.Millisecond {
		t.Errorf("AvgLatency = %s, want 20ms", stats.AvgLatency)
	}
	if stats.AvgConfidence != 0.5 {
		t.Errorf("AvgConfidence = %f, want 0.5", stats.AvgConfidence)
	}
	if stats.AvgMemoryBytes != 1024 {
		t.Errorf("AvgMemoryBytes = %d, want 1024", stats.AvgMemoryBytes)
	}
}

func TestElementTypeAggregates(t *testing.T) {
	m := NewWithConfig(quietConfig())
	m.Record(metric("table", 10*time.Millisecond, true, 0.8))
	other := metric("list", 20*time.Millisecond, true, 0.7)
	other.ElementType = model.ElementTypeList
	m.Record(other)

	snap := m.Snapshot()
	if len(snap.ElementTypes) != 2 {
		t.Fatalf("element types = %d, want 2", len(snap.ElementTypes))
	}
	stats := snap.ElementTypes[model.ElementTypeList.String()]
	if stats.Count != 1 {
		t.Errorf("list count = %d, want 1", stats.Count)
	}
	if stats.P50 != 0 || stats.P95 != 0 || stats.P99 != 0 {
		t.Error("element-type stats should carry no percentiles")
	}
}

func TestPercentilesAfterAggregate(t *testing.T) {
	m := NewWithConfig(quietConfig())
	for i := 1; i <= 100; i++ {
		m.Record(metric("code", time.Duration(i)*time.Millisecond, true, 0.9))
	}
	m.Aggregate()

	stats := m.Snapshot().Parsers["code"]
	if stats.P50 != 50*time.Millisecond {
		t.Errorf("P50 = %s, want 50ms", stats.P50)
	}
	if stats.P95 != 95*time.Millisecond {
		t.Errorf("P95 = %s, want 95ms", stats.P95)
	}
	if stats.P99 != 99*time.Millisecond {
		t.Errorf("P99 = %s, want 99ms", stats.P99)
	}
}

func TestLatencyRingBounded(t *testing.T) {
	cfg := quietConfig()
	cfg.RingSize = 4
	m := NewWithConfig(cfg)
	for i := 1; i <= 10; i++ {
		m.Record(metric("code", time.Duration(i)*time.Millisecond, true, 0.9))
	}
	m.Aggregate()

	// Only the last four observations (7..10ms) survive in the ring.
	stats := m.Snapshot().Parsers["code"]
	if stats.P50 != 8*time.Millisecond {
		t.Errorf("P50 = %s, want 8ms", stats.P50)
	}
	if stats.P99 != 10*time.Millisecond {
		t.Errorf("P99 = %s, want 10ms", stats.P99)
	}
}

func TestHighLatencyAlert(t *testing.T) {
	cfg := quietConfig()
	cfg.LatencyThreshold = 50 * time.Millisecond
	m := NewWithConfig(cfg)

	m.Record(metric("table", 10*time.Millisecond, true, 0.9))
	if len(m.Alerts()) != 0 {
		t.Fatal("fast parse should not alert")
	}
	m.Record(metric("table", 200*time.Millisecond, true, 0.9))
	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Type != AlertHighLatency || alerts[0].Parser != "table" {
		t.Errorf("alert = %+v", alerts[0])
	}
}

func TestLowConfidenceAlertOnlyOnSuccess(t *testing.T) {
	m := New()
	m.Record(metric("formula", time.Millisecond, false, 0.1))
	if len(m.Alerts()) != 0 {
		t.Fatal("failed parses should not raise confidence alerts")
	}
	m.Record(metric("formula", time.Millisecond, true, 0.2))
	alerts := m.Alerts()
	if len(alerts) != 1 || alerts[0].Type != AlertLowConfidence {
		t.Fatalf("alerts = %+v, want one low_confidence", alerts)
	}
}

func TestErrorRateAlertNeedsMinSamples(t *testing.T) {
	cfg := quietConfig()
	cfg.MinSamples = 4
	cfg.ErrorRateThreshold = 0.5
	m := NewWithConfig(cfg)

	for i := 0; i < 3; i++ {
		m.Record(metric("image", time.Millisecond, false, 0))
	}
	if len(m.Alerts()) != 0 {
		t.Fatal("error-rate alert should wait for the minimum sample count")
	}
	m.Record(metric("image", time.Millisecond, false, 0))
	alerts := m.Alerts()
	if len(alerts) != 1 || alerts[0].Type != AlertHighErrorRate {
		t.Fatalf("alerts = %+v, want one high_error_rate", alerts)
	}
}

func TestAlertSuppressionWindow(t *testing.T) {
	cfg := quietConfig()
	cfg.LatencyThreshold = 50 * time.Millisecond
	cfg.AlertSuppression = 5 * time.Minute
	m := NewWithConfig(cfg)

	base := time.Now()
	slow := metric("table", 200*time.Millisecond, true, 0.9)

	slow.Timestamp = base
	m.Record(slow)
	slow.Timestamp = base.Add(time.Minute)
	m.Record(slow)
	if got := len(m.Alerts()); got != 1 {
		t.Fatalf("alerts = %d, want 1 within the suppression window", got)
	}

	slow.Timestamp = base.Add(6 * time.Minute)
	m.Record(slow)
	if got := len(m.Alerts()); got != 2 {
		t.Errorf("alerts = %d, want 2 after the window passes", got)
	}
}

func TestRetentionPruning(t *testing.T) {
	cfg := quietConfig()
	cfg.Retention = time.Minute
	cfg.LatencyThreshold = 50 * time.Millisecond
	m := NewWithConfig(cfg)

	old := metric("table", 200*time.Millisecond, true, 0.9)
	old.Timestamp = time.Now().Add(-time.Hour)
	m.Record(old)
	m.Record(metric("table", time.Millisecond, true, 0.9))

	m.Aggregate()
	m.mu.Lock()
	kept := len(m.metrics)
	m.mu.Unlock()
	if kept != 1 {
		t.Errorf("retained metrics = %d, want 1", kept)
	}
	if got := len(m.Alerts()); got != 0 {
		t.Errorf("retained alerts = %d, want 0", got)
	}
}

func TestSnapshotSummary(t *testing.T) {
	m := NewWithConfig(quietConfig())
	hit := metric("table", 10*time.Millisecond, true, 0.9)
	hit.CacheHit = true
	m.Record(hit)
	m.Record(metric("table", 20*time.Millisecond, true, 0.8))
	m.Record(metric("code", 30*time.Millisecond, false, 0))

	snap := m.Snapshot()
	if snap.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", snap.TotalCount)
	}
	if snap.SuccessRate < 0.66 || snap.SuccessRate > 0.67 {
		t.Errorf("SuccessRate = %f", snap.SuccessRate)
	}
	if snap.AvgLatency != 20*time.Millisecond {
		t.Errorf("AvgLatency = %s, want 20ms", snap.AvgLatency)
	}
	if snap.CacheHitRate < 0.33 || snap.CacheHitRate > 0.34 {
		t.Errorf("CacheHitRate = %f", snap.CacheHitRate)
	}
}

func TestAggregatorStartsAndStops(t *testing.T) {
	cfg := quietConfig()
	cfg.AggregationInterval = 5 * time.Millisecond
	m := NewWithConfig(cfg)
	for i := 1; i <= 10; i++ {
		m.Record(metric("table", time.Duration(i)*time.Millisecond, true, 0.9))
	}
	m.StartAggregator()
	time.Sleep(25 * time.Millisecond)
	m.Close()

	if m.Snapshot().Parsers["table"].P50 == 0 {
		t.Error("background aggregation should have computed percentiles")
	}
}
