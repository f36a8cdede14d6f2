package parser

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/tsawler/docparse/model"
)

// Parser is the contract every element parser implements.
type Parser interface {
	// Name returns the parser's registry name (e.g. "table").
	Name() string

	// Version returns the parser implementation version.
	Version() string

	// Capabilities describes what the parser supports. Static per parser.
	Capabilities() model.ParserCapabilities

	// CanParse reports whether the parser can handle the element, based on
	// its declared type or content heuristics.
	CanParse(el *model.Element) bool

	// Parse transforms the element into a result. A completed parse with
	// low confidence returns a result with Success=false rather than an
	// error; errors are reserved for hard failures.
	Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error)

	// Validate inspects a produced result and returns findings.
	Validate(res *model.ParserResult) []string

	// Priority scores how well-suited the parser is for the element.
	// Higher wins during factory selection.
	Priority(el *model.Element) int
}

// Configurable is implemented by parsers that accept runtime
// reconfiguration through the manager.
type Configurable interface {
	Configure(settings map[string]any) error
}

// ExecConfig controls monitored execution.
type ExecConfig struct {
	// DefaultTimeout bounds a single Parse call when the caller's context
	// carries no deadline. Priority hints scale it: high priority halves
	// it, low priority doubles it.
	DefaultTimeout time.Duration
}

// DefaultExecConfig returns the default execution configuration.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{DefaultTimeout: 30 * time.Second}
}

// ExecStats holds running counters for one monitored parser.
type ExecStats struct {
	ParseCount int64
	ErrorCount int64
	TotalTime  time.Duration
}

// Monitored wraps a Parser with timeout enforcement, wall-time and memory
// measurement, result stamping and running statistics.
type Monitored struct {
	parser Parser
	cfg    ExecConfig

	mu    sync.Mutex
	stats ExecStats
}

// NewMonitored wraps a parser for monitored execution.
func NewMonitored(p Parser, cfg ExecConfig) *Monitored {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultExecConfig().DefaultTimeout
	}
	return &Monitored{parser: p, cfg: cfg}
}

// Parser returns the wrapped parser.
func (m *Monitored) Parser() Parser { return m.parser }

// Stats returns a copy of the running execution statistics.
func (m *Monitored) Stats() ExecStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// timeoutFor derives the effective timeout from the hints.
func (m *Monitored) timeoutFor(hints *model.ProcessingHints) time.Duration {
	d := m.cfg.DefaultTimeout
	if hints == nil {
		return d
	}
	switch hints.Priority {
	case model.PriorityHigh:
		return d / 2
	case model.PriorityLow:
		return d * 2
	}
	return d
}

type parseOutcome struct {
	result *model.ParserResult
	err    error
}

// Execute runs the wrapped parser under a timeout, measures wall time and
// approximate heap growth, stamps the result with the parser identity,
// merges Validate findings into the result's validation errors and updates
// the running statistics. Errors that are not already parser errors are
// wrapped with the parser name and element type.
func (m *Monitored) Execute(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	timeout := m.timeoutFor(hints)
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	done := make(chan parseOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- parseOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := m.parser.Parse(ctx, el, hints)
		done <- parseOutcome{result: res, err: err}
	}()

	var out parseOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		m.record(time.Since(start), true)
		return nil, &model.TimeoutError{Parser: m.parser.Name(), Timeout: timeout}
	}

	elapsed := time.Since(start)
	if out.err != nil {
		m.record(elapsed, true)
		return nil, model.WrapParserError(m.parser.Name(), el.Type, out.err)
	}

	res := out.result
	if res == nil {
		m.record(elapsed, true)
		return nil, model.WrapParserError(m.parser.Name(), el.Type,
			fmt.Errorf("parser returned no result"))
	}

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	res.Metadata.ParserName = m.parser.Name()
	res.Metadata.ParserVersion = m.parser.Version()
	res.Metadata.Duration = elapsed
	if after.HeapAlloc > before.HeapAlloc {
		res.Metadata.MemoryBytes = int64(after.HeapAlloc - before.HeapAlloc)
	}
	res.Metadata.Confidence = model.ClampConfidence(res.Metadata.Confidence)

	if findings := m.parser.Validate(res); len(findings) > 0 {
		res.ValidationErrors = append(res.ValidationErrors, findings...)
	}

	m.record(elapsed, false)
	return res, nil
}

func (m *Monitored) record(elapsed time.Duration, failed bool) {
	m.mu.Lock()
	m.stats.ParseCount++
	if failed {
		m.stats.ErrorCount++
	}
	m.stats.TotalTime += elapsed
	m.mu.Unlock()
}
