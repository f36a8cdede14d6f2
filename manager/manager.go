// Package manager orchestrates parsing: parser selection through the
// factory, cached results, monitored execution, degraded fallbacks and
// batch concurrency. The manager boundary never raises — every call
// yields a ParseResponse.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/docparse/cache"
	"github.com/tsawler/docparse/model"
	"github.com/tsawler/docparse/monitor"
	"github.com/tsawler/docparse/parser"
)

// Config holds the orchestration settings.
type Config struct {
	// MaxConcurrent bounds goroutines per batch chunk.
	MaxConcurrent int

	// DefaultTimeout bounds a single parse when the caller sets none.
	DefaultTimeout time.Duration

	// CacheEnabled turns the result cache on.
	CacheEnabled bool

	// ShutdownGrace bounds how long Shutdown waits for in-flight parses.
	ShutdownGrace time.Duration

	// Health thresholds. The manager reports degraded when the observed
	// error rate, average latency or cache utilization breach them.
	HealthErrorRate     float64
	HealthMinSamples    int64
	HealthLatency       time.Duration
	HealthCachePressure float64

	Cache    cache.Config
	Monitor  monitor.Config
	Exec     parser.ExecConfig
	Fallback FallbackConfig
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:       10,
		DefaultTimeout:      30 * time.Second,
		CacheEnabled:        true,
		ShutdownGrace:       30 * time.Second,
		HealthErrorRate:     0.5,
		HealthMinSamples:    10,
		HealthLatency:       10 * time.Second,
		HealthCachePressure: 0.9,
		Cache:               cache.DefaultConfig(),
		Monitor:             monitor.DefaultConfig(),
		Exec:                parser.DefaultExecConfig(),
		Fallback:            DefaultFallbackConfig(),
	}
}

// parseOptions are the per-call knobs.
type parseOptions struct {
	hints    *model.ProcessingHints
	timeout  time.Duration
	useCache bool
}

// ParseOption adjusts a single ParseElement or ParseBatch call.
type ParseOption func(*parseOptions)

// WithHints attaches processing hints to the call.
func WithHints(h *model.ProcessingHints) ParseOption {
	return func(o *parseOptions) { o.hints = h }
}

// WithTimeout overrides the default per-parse timeout.
func WithTimeout(d time.Duration) ParseOption {
	return func(o *parseOptions) { o.timeout = d }
}

// WithoutCache bypasses the result cache for this call.
func WithoutCache() ParseOption {
	return func(o *parseOptions) { o.useCache = false }
}

// WithPriority sets the scheduling priority, creating hints if needed.
func WithPriority(p model.Priority) ParseOption {
	return func(o *parseOptions) {
		if o.hints == nil {
			o.hints = &model.ProcessingHints{}
		}
		o.hints.Priority = p
	}
}

// Manager coordinates the full parse pipeline. All methods are safe for
// concurrent use.
type Manager struct {
	config   Config
	logger   *slog.Logger
	factory  *parser.Factory
	cache    *cache.Cache
	monitor  *monitor.Monitor
	fallback *Fallback

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a manager with default configuration and no parsers
// registered.
func New() *Manager {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a manager with custom configuration. The cache
// sweeper and monitor aggregator start immediately; Shutdown stops them.
func NewWithConfig(config Config) *Manager {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if config.ShutdownGrace <= 0 {
		config.ShutdownGrace = DefaultConfig().ShutdownGrace
	}

	m := &Manager{
		config:   config,
		logger:   slog.Default(),
		factory:  parser.NewFactory(config.Exec),
		monitor:  monitor.NewWithConfig(config.Monitor),
		fallback: NewFallbackWithConfig(config.Fallback),
	}
	if config.CacheEnabled {
		m.cache = cache.NewWithConfig(config.Cache)
		m.cache.StartSweeper()
	}
	m.monitor.StartAggregator()
	return m
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(l *slog.Logger) {
	if l != nil {
		m.logger = l
	}
}

// RegisterParser adds a parser to the factory under name.
func (m *Manager) RegisterParser(name string, p parser.Parser) {
	m.factory.Register(name, p)
	m.logger.Debug("parser registered", "name", name, "version", p.Version())
}

// Factory exposes the parser registry.
func (m *Manager) Factory() *parser.Factory { return m.factory }

// Cache exposes the result cache, or nil when caching is disabled.
func (m *Manager) Cache() *cache.Cache { return m.cache }

// ParseElement parses one element. It never returns an error: selection
// failures, timeouts and parser errors degrade through the fallback, and
// anything past that lands in the response's Error field.
func (m *Manager) ParseElement(ctx context.Context, el *model.Element, opts ...ParseOption) *model.ParseResponse {
	start := time.Now()
	resp := &model.ParseResponse{RequestID: uuid.NewString()}
	defer func() { resp.Duration = time.Since(start) }()

	if el == nil {
		resp.Error = "nil element"
		return resp
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		resp.Error = "manager is shut down"
		return resp
	}
	m.inflight.Add(1)
	m.mu.Unlock()
	defer m.inflight.Done()

	o := parseOptions{useCache: true, timeout: m.config.DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	key := ""
	if m.cache != nil && o.useCache {
		key = cache.KeyFor(el)
		if cached, ok := m.cache.Get(key); ok {
			resp.Success = cached.Success
			resp.Result = cached
			resp.CacheHit = true
			resp.ParserUsed = cached.Metadata.ParserName
			m.monitor.Record(monitor.ParseMetric{
				Parser:      cached.Metadata.ParserName,
				ElementType: el.Type,
				Duration:    time.Since(start),
				Success:     cached.Success,
				Confidence:  cached.Metadata.Confidence,
				CacheHit:    true,
			})
			m.logger.Debug("cache hit", "request_id", resp.RequestID, "element", el.ID)
			return resp
		}
	}

	mon, err := m.factory.ParserFor(el, o.hints)
	if err != nil {
		m.logger.Debug("no parser", "request_id", resp.RequestID, "element", el.ID, "type", el.Type.String())
		return m.degrade(resp, el, ReasonNoParser, err, start)
	}
	name := mon.Parser().Name()

	pctx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	res, err := mon.Execute(pctx, el, o.hints)
	if err != nil {
		m.monitor.Record(monitor.ParseMetric{
			Parser:      name,
			ElementType: el.Type,
			Duration:    time.Since(start),
			Success:     false,
		})
		m.logger.Warn("parse failed", "request_id", resp.RequestID,
			"parser", name, "element", el.ID, "error", err)

		reason := ReasonError
		var te *model.TimeoutError
		if errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return m.degrade(resp, el, reason, err, start)
	}

	if m.cache != nil && o.useCache && res.Success {
		if cerr := m.cache.Set(key, el.Type, res); cerr != nil {
			m.logger.Debug("cache store skipped", "request_id", resp.RequestID, "error", cerr)
		}
	}
	m.monitor.Record(monitor.ParseMetric{
		Parser:      name,
		ElementType: el.Type,
		Duration:    res.Metadata.Duration,
		Success:     res.Success,
		Confidence:  res.Metadata.Confidence,
		MemoryBytes: res.Metadata.MemoryBytes,
	})

	resp.Success = res.Success
	resp.Result = res
	resp.ParserUsed = name
	return resp
}

// degrade serves the request through the fallback handler. A fallback
// failure becomes the final failed response.
func (m *Manager) degrade(resp *model.ParseResponse, el *model.Element, reason FallbackReason, cause error, start time.Time) *model.ParseResponse {
	res, err := m.safeFallback(el, reason, cause)
	if err != nil {
		resp.Error = fmt.Sprintf("%v (fallback failed: %v)", cause, err)
		m.monitor.Record(monitor.ParseMetric{
			Parser:      "fallback",
			ElementType: el.Type,
			Duration:    time.Since(start),
			Success:     false,
		})
		return resp
	}

	res.Metadata.ParserName = "fallback"
	res.Metadata.Duration = time.Since(start)
	resp.Success = true
	resp.Result = res
	resp.ParserUsed = "fallback"
	m.monitor.Record(monitor.ParseMetric{
		Parser:      "fallback",
		ElementType: el.Type,
		Duration:    res.Metadata.Duration,
		Success:     true,
		Confidence:  res.Metadata.Confidence,
	})
	return resp
}

func (m *Manager) safeFallback(el *model.Element, reason FallbackReason, cause error) (res *model.ParserResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.fallback.Handle(el, reason, cause)
}

// ParseBatch parses elements in chunks of MaxConcurrent, one goroutine
// per element within a chunk. The response slice preserves input order;
// recovered panics become failed responses.
func (m *Manager) ParseBatch(ctx context.Context, els []*model.Element, opts ...ParseOption) []*model.ParseResponse {
	responses := make([]*model.ParseResponse, len(els))
	for chunkStart := 0; chunkStart < len(els); chunkStart += m.config.MaxConcurrent {
		chunkEnd := min(chunkStart+m.config.MaxConcurrent, len(els))

		var wg sync.WaitGroup
		for i := chunkStart; i < chunkEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						responses[i] = &model.ParseResponse{
							RequestID: uuid.NewString(),
							Error:     fmt.Sprintf("panic: %v", r),
						}
					}
				}()
				responses[i] = m.ParseElement(ctx, els[i], opts...)
			}(i)
		}
		wg.Wait()
	}
	return responses
}

// Statistics is a point-in-time view of the whole subsystem.
type Statistics struct {
	Parsers []string         `json:"parsers"`
	Monitor monitor.Snapshot `json:"monitor"`
	Cache   cache.Stats      `json:"cache"`
}

// Statistics reports registered parsers, monitor aggregates and cache
// effectiveness.
func (m *Manager) Statistics() Statistics {
	s := Statistics{
		Parsers: m.factory.Names(),
		Monitor: m.monitor.Snapshot(),
	}
	if m.cache != nil {
		s.Cache = m.cache.Stats()
	}
	return s
}

// Health is the outcome of a health check.
type Health struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Issues    []string  `json:"issues,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthCheck reports degraded when the observed error rate, average
// latency or cache utilization breach the configured thresholds.
func (m *Manager) HealthCheck() Health {
	h := Health{Status: "healthy", CheckedAt: time.Now()}
	snap := m.monitor.Snapshot()

	if snap.TotalCount >= m.config.HealthMinSamples && snap.ErrorRate > m.config.HealthErrorRate {
		h.Issues = append(h.Issues,
			fmt.Sprintf("error rate %.2f exceeds %.2f", snap.ErrorRate, m.config.HealthErrorRate))
	}
	if snap.TotalCount >= m.config.HealthMinSamples && snap.AvgLatency > m.config.HealthLatency {
		h.Issues = append(h.Issues,
			fmt.Sprintf("average latency %s exceeds %s", snap.AvgLatency, m.config.HealthLatency))
	}
	if m.cache != nil {
		stats := m.cache.Stats()
		if budget := m.config.Cache.MaxMemoryBytes; budget > 0 &&
			float64(stats.MemoryBytes) > m.config.HealthCachePressure*float64(budget) {
			h.Issues = append(h.Issues,
				fmt.Sprintf("cache memory %d near budget %d", stats.MemoryBytes, budget))
		}
	}

	if len(h.Issues) > 0 {
		h.Status = "degraded"
	}
	return h
}

// ConfigureParser applies runtime settings to a registered parser.
func (m *Manager) ConfigureParser(name string, settings map[string]any) error {
	p := m.factory.Get(name)
	if p == nil {
		return fmt.Errorf("configure %s: parser not registered", name)
	}
	c, ok := p.(parser.Configurable)
	if !ok {
		return fmt.Errorf("configure %s: parser accepts no runtime settings", name)
	}
	if err := c.Configure(settings); err != nil {
		return fmt.Errorf("configure %s: %w", name, err)
	}
	m.logger.Info("parser reconfigured", "name", name)
	return nil
}

// Shutdown drains in-flight parses up to the grace period, then stops
// the cache sweeper and monitor aggregator. New calls fail immediately
// once shutdown begins.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(drained)
	}()

	timer := time.NewTimer(m.config.ShutdownGrace)
	defer timer.Stop()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = fmt.Errorf("shutdown interrupted: %w", ctx.Err())
	case <-timer.C:
		err = fmt.Errorf("shutdown: in-flight parses not drained within %s", m.config.ShutdownGrace)
	}

	if m.cache != nil {
		m.cache.Close()
	}
	m.monitor.Close()
	m.logger.Info("manager stopped")
	return err
}
