// Package monitor records per-parse metrics, maintains running
// aggregates per parser and per element type with latency percentiles,
// and raises de-duplicated alerts on latency, confidence and error-rate
// threshold breaches.
package monitor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tsawler/docparse/model"
)

// ParseMetric is one observation of a parse attempt.
type ParseMetric struct {
	Parser      string            `json:"parser"`
	ElementType model.ElementType `json:"element_type"`
	Duration    time.Duration     `json:"duration_ns"`
	Success     bool              `json:"success"`
	Confidence  float64           `json:"confidence"`
	MemoryBytes int64             `json:"memory_bytes"`
	CacheHit    bool              `json:"cache_hit"`
	Timestamp   time.Time         `json:"timestamp"`
}

// PerformanceStats are running aggregates for one parser or element type.
type PerformanceStats struct {
	Count     int64 `json:"count"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`

	MinLatency time.Duration `json:"min_latency_ns"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`

	// P50/P95/P99 are computed from the bounded latency ring on each
	// aggregation cycle; element-type stats carry none.
	P50 time.Duration `json:"p50_ns,omitempty"`
	P95 time.Duration `json:"p95_ns,omitempty"`
	P99 time.Duration `json:"p99_ns,omitempty"`

	AvgConfidence  float64 `json:"avg_confidence"`
	AvgMemoryBytes int64   `json:"avg_memory_bytes"`
}

// AlertType classifies a monitoring alert.
type AlertType int

const (
	AlertHighLatency AlertType = iota
	AlertLowConfidence
	AlertHighErrorRate
)

func (t AlertType) String() string {
	switch t {
	case AlertLowConfidence:
		return "low_confidence"
	case AlertHighErrorRate:
		return "high_error_rate"
	default:
		return "high_latency"
	}
}

// Alert is one threshold breach.
type Alert struct {
	Type      AlertType `json:"type"`
	Parser    string    `json:"parser"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds the monitor thresholds and windows.
type Config struct {
	// LatencyThreshold triggers a high-latency alert per metric.
	LatencyThreshold time.Duration

	// ConfidenceThreshold triggers a low-confidence alert on successful
	// parses below it.
	ConfidenceThreshold float64

	// ErrorRateThreshold triggers an error-rate alert over the recent
	// window once MinSamples metrics exist for the parser.
	ErrorRateThreshold float64
	MinSamples         int
	ErrorWindow        int

	// AlertSuppression silences like alerts per (parser, type).
	AlertSuppression time.Duration

	// RingSize bounds the recent-latency ring per parser.
	RingSize int

	// Retention bounds how long metrics and alerts are kept.
	Retention time.Duration

	// AggregationInterval is the period of the background percentile
	// recompute and retention pruning.
	AggregationInterval time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		LatencyThreshold:    5 * time.Second,
		ConfidenceThreshold: 0.5,
		ErrorRateThreshold:  0.5,
		MinSamples:          10,
		ErrorWindow:         20,
		AlertSuppression:    5 * time.Minute,
		RingSize:            256,
		Retention:           time.Hour,
		AggregationInterval: time.Minute,
	}
}

// aggregate is the mutable accumulator behind PerformanceStats.
type aggregate struct {
	count, successes, failures int64
	totalLatency               time.Duration
	minLatency, maxLatency     time.Duration
	totalConfidence            float64
	totalMemory                int64
	p50, p95, p99              time.Duration
}

func (a *aggregate) observe(m ParseMetric) {
	a.count++
	if m.Success {
		a.successes++
	} else {
		a.failures++
	}
	a.totalLatency += m.Duration
	if a.count == 1 || m.Duration < a.minLatency {
		a.minLatency = m.Duration
	}
	if m.Duration > a.maxLatency {
		a.maxLatency = m.Duration
	}
	a.totalConfidence += m.Confidence
	a.totalMemory += m.MemoryBytes
}

func (a *aggregate) stats() PerformanceStats {
	s := PerformanceStats{
		Count:      a.count,
		Successes:  a.successes,
		Failures:   a.failures,
		MinLatency: a.minLatency,
		MaxLatency: a.maxLatency,
		P50:        a.p50,
		P95:        a.p95,
		P99:        a.p99,
	}
	if a.count > 0 {
		s.AvgLatency = a.totalLatency / time.Duration(a.count)
		s.AvgConfidence = a.totalConfidence / float64(a.count)
		s.AvgMemoryBytes = a.totalMemory / a.count
	}
	return s
}

// latencyRing is a bounded ring of recent latencies.
type latencyRing struct {
	values []time.Duration
	next   int
	filled bool
}

func newLatencyRing(size int) *latencyRing {
	return &latencyRing{values: make([]time.Duration, size)}
}

func (r *latencyRing) push(d time.Duration) {
	r.values[r.next] = d
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.filled = true
	}
}

// snapshot returns the occupied values in arbitrary order.
func (r *latencyRing) snapshot() []time.Duration {
	n := r.next
	if r.filled {
		n = len(r.values)
	}
	out := make([]time.Duration, n)
	copy(out, r.values[:n])
	return out
}

// percentile returns the p-th percentile of sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Snapshot is a point-in-time view of everything the monitor knows.
type Snapshot struct {
	Parsers      map[string]PerformanceStats `json:"parsers"`
	ElementTypes map[string]PerformanceStats `json:"element_types"`
	Alerts       []Alert                     `json:"alerts,omitempty"`

	TotalCount   int64         `json:"total_count"`
	SuccessRate  float64       `json:"success_rate"`
	ErrorRate    float64       `json:"error_rate"`
	AvgLatency   time.Duration `json:"avg_latency_ns"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// Monitor aggregates parse metrics. All methods are safe for concurrent
// use.
type Monitor struct {
	mu     sync.Mutex
	config Config

	metrics   []ParseMetric
	perParser map[string]*aggregate
	perType   map[model.ElementType]*aggregate
	rings     map[string]*latencyRing

	alerts    []Alert
	lastAlert map[string]time.Time

	total     int64
	successes int64
	cacheHits int64

	stopAgg chan struct{}
	aggDone chan struct{}
}

// New creates a monitor with default configuration.
func New() *Monitor {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a monitor with custom configuration.
func NewWithConfig(config Config) *Monitor {
	def := DefaultConfig()
	if config.RingSize <= 0 {
		config.RingSize = def.RingSize
	}
	if config.ErrorWindow <= 0 {
		config.ErrorWindow = def.ErrorWindow
	}
	if config.MinSamples <= 0 {
		config.MinSamples = def.MinSamples
	}
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	return &Monitor{
		config:    config,
		perParser: make(map[string]*aggregate),
		perType:   make(map[model.ElementType]*aggregate),
		rings:     make(map[string]*latencyRing),
		lastAlert: make(map[string]time.Time),
	}
}

// Record ingests one metric, updates the aggregates and checks the
// alert rules.
func (m *Monitor) Record(metric ParseMetric) {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics = append(m.metrics, metric)
	m.total++
	if metric.Success {
		m.successes++
	}
	if metric.CacheHit {
		m.cacheHits++
	}

	pa := m.perParser[metric.Parser]
	if pa == nil {
		pa = &aggregate{}
		m.perParser[metric.Parser] = pa
	}
	pa.observe(metric)

	ta := m.perType[metric.ElementType]
	if ta == nil {
		ta = &aggregate{}
		m.perType[metric.ElementType] = ta
	}
	ta.observe(metric)

	ring := m.rings[metric.Parser]
	if ring == nil {
		ring = newLatencyRing(m.config.RingSize)
		m.rings[metric.Parser] = ring
	}
	ring.push(metric.Duration)

	m.checkAlertsLocked(metric, pa)
}

// checkAlertsLocked evaluates the alert rules for one metric. Caller
// holds the mutex.
func (m *Monitor) checkAlertsLocked(metric ParseMetric, pa *aggregate) {
	if m.config.LatencyThreshold > 0 && metric.Duration > m.config.LatencyThreshold {
		m.raiseLocked(Alert{
			Type:      AlertHighLatency,
			Parser:    metric.Parser,
			Message:   fmt.Sprintf("parse took %s (threshold %s)", metric.Duration, m.config.LatencyThreshold),
			Value:     metric.Duration.Seconds(),
			Threshold: m.config.LatencyThreshold.Seconds(),
			Timestamp: metric.Timestamp,
		})
	}

	if metric.Success && metric.Confidence < m.config.ConfidenceThreshold {
		m.raiseLocked(Alert{
			Type:      AlertLowConfidence,
			Parser:    metric.Parser,
			Message:   fmt.Sprintf("successful parse with confidence %.2f (threshold %.2f)", metric.Confidence, m.config.ConfidenceThreshold),
			Value:     metric.Confidence,
			Threshold: m.config.ConfidenceThreshold,
			Timestamp: metric.Timestamp,
		})
	}

	if pa.count >= int64(m.config.MinSamples) {
		rate := m.recentErrorRateLocked(metric.Parser)
		if rate > m.config.ErrorRateThreshold {
			m.raiseLocked(Alert{
				Type:      AlertHighErrorRate,
				Parser:    metric.Parser,
				Message:   fmt.Sprintf("error rate %.2f over recent window (threshold %.2f)", rate, m.config.ErrorRateThreshold),
				Value:     rate,
				Threshold: m.config.ErrorRateThreshold,
				Timestamp: metric.Timestamp,
			})
		}
	}
}

// recentErrorRateLocked computes the failure share of the parser's last
// ErrorWindow metrics.
func (m *Monitor) recentErrorRateLocked(parser string) float64 {
	seen, failed := 0, 0
	for i := len(m.metrics) - 1; i >= 0 && seen < m.config.ErrorWindow; i-- {
		if m.metrics[i].Parser != parser {
			continue
		}
		seen++
		if !m.metrics[i].Success {
			failed++
		}
	}
	if seen == 0 {
		return 0
	}
	return float64(failed) / float64(seen)
}

// raiseLocked appends an alert unless a like alert fired within the
// suppression window. Caller holds the mutex.
func (m *Monitor) raiseLocked(a Alert) {
	key := a.Parser + "/" + a.Type.String()
	if last, ok := m.lastAlert[key]; ok && a.Timestamp.Sub(last) < m.config.AlertSuppression {
		return
	}
	m.lastAlert[key] = a.Timestamp
	m.alerts = append(m.alerts, a)
}

// Aggregate recomputes the latency percentiles from the rings and
// prunes metrics and alerts past the retention window.
func (m *Monitor) Aggregate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for parser, ring := range m.rings {
		values := ring.snapshot()
		if len(values) == 0 {
			continue
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		pa := m.perParser[parser]
		pa.p50 = percentile(values, 0.50)
		pa.p95 = percentile(values, 0.95)
		pa.p99 = percentile(values, 0.99)
	}

	cutoff := time.Now().Add(-m.config.Retention)
	m.metrics = pruneMetrics(m.metrics, cutoff)
	m.alerts = pruneAlerts(m.alerts, cutoff)
}

func pruneMetrics(metrics []ParseMetric, cutoff time.Time) []ParseMetric {
	kept := metrics[:0]
	for _, metric := range metrics {
		if metric.Timestamp.After(cutoff) {
			kept = append(kept, metric)
		}
	}
	return kept
}

func pruneAlerts(alerts []Alert, cutoff time.Time) []Alert {
	kept := alerts[:0]
	for _, a := range alerts {
		if a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}

// StartAggregator runs periodic Aggregate cycles until Close.
func (m *Monitor) StartAggregator() {
	m.mu.Lock()
	if m.stopAgg != nil {
		m.mu.Unlock()
		return
	}
	interval := m.config.AggregationInterval
	if interval <= 0 {
		interval = DefaultConfig().AggregationInterval
	}
	m.stopAgg = make(chan struct{})
	m.aggDone = make(chan struct{})
	stop, done := m.stopAgg, m.aggDone
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Aggregate()
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the background aggregator, if running.
func (m *Monitor) Close() {
	m.mu.Lock()
	stop, done := m.stopAgg, m.aggDone
	m.stopAgg = nil
	m.aggDone = nil
	m.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Alerts returns a copy of the retained alerts.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Snapshot returns a point-in-time view of all aggregates.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Parsers:      make(map[string]PerformanceStats, len(m.perParser)),
		ElementTypes: make(map[string]PerformanceStats, len(m.perType)),
		TotalCount:   m.total,
	}
	var totalLatency time.Duration
	for parser, pa := range m.perParser {
		snap.Parsers[parser] = pa.stats()
		totalLatency += pa.totalLatency
	}
	for et, ta := range m.perType {
		stats := ta.stats()
		stats.P50, stats.P95, stats.P99 = 0, 0, 0
		snap.ElementTypes[et.String()] = stats
	}
	snap.Alerts = make([]Alert, len(m.alerts))
	copy(snap.Alerts, m.alerts)

	if m.total > 0 {
		snap.SuccessRate = float64(m.successes) / float64(m.total)
		snap.ErrorRate = 1 - snap.SuccessRate
		snap.AvgLatency = totalLatency / time.Duration(m.total)
		snap.CacheHitRate = float64(m.cacheHits) / float64(m.total)
	}
	return snap
}
