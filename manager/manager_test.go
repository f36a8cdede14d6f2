package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/docparse/model"
)

// echoParser is a test double that reflects the element text back.
type echoParser struct {
	name     string
	delay    time.Duration
	err      error
	settings map[string]any
}

func (p *echoParser) Name() string    { return p.name }
func (p *echoParser) Version() string { return "0.0.1" }

func (p *echoParser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{ElementTypes: []model.ElementType{model.ElementTypeText}}
}

func (p *echoParser) CanParse(el *model.Element) bool {
	return el.Type == model.ElementTypeText
}

func (p *echoParser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &model.ParserResult{
		Success:          true,
		ExtractedContent: el.Text,
		Metadata:         model.ResultMetadata{Confidence: 0.9},
	}, nil
}

func (p *echoParser) Validate(*model.ParserResult) []string { return nil }
func (p *echoParser) Priority(*model.Element) int           { return 10 }

func (p *echoParser) Configure(settings map[string]any) error {
	p.settings = settings
	return nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Monitor.ConfidenceThreshold = 0
	m := NewWithConfig(cfg)
	m.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return m
}

func textEl(id, text string) *model.Element {
	return &model.Element{ID: id, Type: model.ElementTypeText, Text: text}
}

func TestParseElementSuccess(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("echo", &echoParser{name: "echo"})

	resp := m.ParseElement(context.Background(), textEl("e1", "hello"))
	if !resp.Success {
		t.Fatalf("expected success, error: %s", resp.Error)
	}
	if resp.RequestID == "" {
		t.Error("missing request id")
	}
	if resp.ParserUsed != "echo" || resp.CacheHit {
		t.Errorf("ParserUsed = %q, CacheHit = %v", resp.ParserUsed, resp.CacheHit)
	}
	if resp.Result.ExtractedContent != "hello" {
		t.Errorf("content = %q", resp.Result.ExtractedContent)
	}
	if resp.Result.Metadata.ParserName != "echo" {
		t.Errorf("result not stamped: %q", resp.Result.Metadata.ParserName)
	}
}

func TestParseElementCacheHit(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("echo", &echoParser{name: "echo"})
	el := textEl("e1", "cache me")

	first := m.ParseElement(context.Background(), el)
	if first.CacheHit {
		t.Fatal("first call must not hit")
	}
	second := m.ParseElement(context.Background(), el)
	if !second.CacheHit {
		t.Fatal("second call should hit the cache")
	}
	if second.Result.ExtractedContent != "cache me" {
		t.Errorf("content = %q", second.Result.ExtractedContent)
	}
	if second.Duration >= first.Duration {
		t.Errorf("cached response took %s, original %s", second.Duration, first.Duration)
	}

	bypass := m.ParseElement(context.Background(), el, WithoutCache())
	if bypass.CacheHit {
		t.Error("WithoutCache should bypass the cache")
	}
}

func TestParseElementNoParserFallsBack(t *testing.T) {
	m := newTestManager(t)
	// Nothing registered for tables.
	m.RegisterParser("echo", &echoParser{name: "echo"})

	resp := m.ParseElement(context.Background(),
		&model.Element{ID: "t1", Type: model.ElementTypeTable, Text: "a | b\nc | d"})
	if !resp.Success {
		t.Fatalf("fallback should succeed, error: %s", resp.Error)
	}
	if resp.ParserUsed != "fallback" {
		t.Errorf("ParserUsed = %q, want fallback", resp.ParserUsed)
	}
	if resp.Result.Data["fallback_strategy"] != "plain_text" {
		t.Errorf("strategy = %v", resp.Result.Data["fallback_strategy"])
	}
	if resp.Result.Data["detected_kind"] != "table" {
		t.Errorf("detected_kind = %v, want table", resp.Result.Data["detected_kind"])
	}
}

func TestParseElementTimeoutFallsBack(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("slow", &echoParser{name: "slow", delay: 200 * time.Millisecond})

	resp := m.ParseElement(context.Background(), textEl("e1", "slow text"),
		WithTimeout(10*time.Millisecond))
	if !resp.Success {
		t.Fatalf("timeout should degrade, error: %s", resp.Error)
	}
	if resp.ParserUsed != "fallback" {
		t.Errorf("ParserUsed = %q, want fallback", resp.ParserUsed)
	}
	if resp.Result.Data["fallback_strategy"] != "truncated_text" {
		t.Errorf("strategy = %v, want truncated_text", resp.Result.Data["fallback_strategy"])
	}
}

func TestParseElementErrorFallsBack(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("broken", &echoParser{name: "broken", err: errors.New("corrupt input")})

	resp := m.ParseElement(context.Background(), textEl("e1", "some text"))
	if !resp.Success {
		t.Fatalf("parser error should degrade, error: %s", resp.Error)
	}
	if resp.Result.Data["fallback_strategy"] != "summary" {
		t.Errorf("strategy = %v, want summary", resp.Result.Data["fallback_strategy"])
	}
}

func TestParseElementNil(t *testing.T) {
	m := newTestManager(t)
	resp := m.ParseElement(context.Background(), nil)
	if resp.Success || resp.Error == "" {
		t.Errorf("nil element should fail, got %+v", resp)
	}
}

func TestParseBatchPreservesOrder(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("echo", &echoParser{name: "echo"})

	els := make([]*model.Element, 25)
	for i := range els {
		els[i] = textEl(fmt.Sprintf("e%d", i), fmt.Sprintf("text %d", i))
	}
	els[7] = nil // must become a failed response in place

	responses := m.ParseBatch(context.Background(), els)
	if len(responses) != 25 {
		t.Fatalf("responses = %d, want 25", len(responses))
	}
	for i, resp := range responses {
		if i == 7 {
			if resp.Success || resp.Error == "" {
				t.Errorf("response 7 should fail for the nil element")
			}
			continue
		}
		if !resp.Success {
			t.Errorf("response %d failed: %s", i, resp.Error)
			continue
		}
		if want := fmt.Sprintf("text %d", i); resp.Result.ExtractedContent != want {
			t.Errorf("response %d content = %q, want %q", i, resp.Result.ExtractedContent, want)
		}
	}
}

func TestStatistics(t *testing.T) {
	m := newTestManager(t)
	m.RegisterParser("echo", &echoParser{name: "echo"})
	m.ParseElement(context.Background(), textEl("e1", "hello"))

	stats := m.Statistics()
	if len(stats.Parsers) != 1 || stats.Parsers[0] != "echo" {
		t.Errorf("Parsers = %v", stats.Parsers)
	}
	if stats.Monitor.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", stats.Monitor.TotalCount)
	}
	if stats.Cache.Entries != 1 {
		t.Errorf("cache entries = %d, want 1", stats.Cache.Entries)
	}
}

func TestHealthCheckHealthy(t *testing.T) {
	m := newTestManager(t)
	h := m.HealthCheck()
	if h.Status != "healthy" || len(h.Issues) != 0 {
		t.Errorf("health = %+v", h)
	}
}

func TestHealthCheckDegradedOnErrorRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.ConfidenceThreshold = 0
	cfg.Monitor.ErrorRateThreshold = 2 // keep the monitor's own alert out of the way
	cfg.HealthErrorRate = 0.4
	cfg.HealthMinSamples = 4
	m := NewWithConfig(cfg)
	m.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer m.Shutdown(context.Background())

	// Each failing parse records one failure plus one fallback success,
	// holding the overall error rate at 0.5.
	m.RegisterParser("broken", &echoParser{name: "broken", err: errors.New("corrupt")})
	for i := 0; i < 4; i++ {
		m.ParseElement(context.Background(), textEl("e", "text"))
	}

	h := m.HealthCheck()
	if h.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", h.Status)
	}
	found := false
	for _, issue := range h.Issues {
		if strings.Contains(issue, "error rate") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want an error-rate finding", h.Issues)
	}
}

func TestConfigureParser(t *testing.T) {
	m := newTestManager(t)
	p := &echoParser{name: "echo"}
	m.RegisterParser("echo", p)

	if err := m.ConfigureParser("missing", nil); err == nil {
		t.Error("unknown parser should error")
	}
	if err := m.ConfigureParser("echo", map[string]any{"max_lines": 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.settings["max_lines"] != 5 {
		t.Errorf("settings = %v", p.settings)
	}
}

func TestShutdownRejectsNewWork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.ConfidenceThreshold = 0
	m := NewWithConfig(cfg)
	m.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.RegisterParser("echo", &echoParser{name: "echo"})

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	resp := m.ParseElement(context.Background(), textEl("e1", "late"))
	if resp.Success || !strings.Contains(resp.Error, "shut down") {
		t.Errorf("post-shutdown response = %+v", resp)
	}
	// Second shutdown is a no-op.
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("repeat shutdown: %v", err)
	}
}

func TestShutdownDrainsInFlight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.ConfidenceThreshold = 0
	m := NewWithConfig(cfg)
	m.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.RegisterParser("slow", &echoParser{name: "slow", delay: 50 * time.Millisecond})

	started := make(chan struct{})
	finished := make(chan *model.ParseResponse, 1)
	go func() {
		close(started)
		finished <- m.ParseElement(context.Background(), textEl("e1", "in flight"))
	}()
	<-started
	time.Sleep(10 * time.Millisecond) // let the parse enter the manager

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	resp := <-finished
	if !resp.Success {
		t.Errorf("in-flight parse should complete, error: %s", resp.Error)
	}
}
