package docparse

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/tsawler/docparse/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func TestClientParsesTable(t *testing.T) {
	client := newTestClient(t)
	resp := client.Parse(context.Background(), &model.Element{
		ID:   "t1",
		Type: model.ElementTypeTable,
		Text: "Name | Age | City\nAda | 36 | London\nGrace | 45 | Arlington",
	})
	if !resp.Success {
		t.Fatalf("expected success, error: %s", resp.Error)
	}
	if resp.ParserUsed != "table" {
		t.Errorf("ParserUsed = %q, want table", resp.ParserUsed)
	}
	table, ok := resp.Result.StructuredData.(*model.TableStructure)
	if !ok {
		t.Fatalf("StructuredData = %T", resp.Result.StructuredData)
	}
	if table.RowCount() != 2 || table.ColumnCount() != 3 {
		t.Errorf("dimensions = %dx%d, want 2x3", table.RowCount(), table.ColumnCount())
	}
}

func TestClientParsesFormula(t *testing.T) {
	client := newTestClient(t)
	resp := client.Parse(context.Background(), &model.Element{
		ID:   "f1",
		Type: model.ElementTypeFormula,
		Text: "E = mc^2",
	})
	if !resp.Success {
		t.Fatalf("expected success, error: %s", resp.Error)
	}
	if resp.ParserUsed != "formula" {
		t.Errorf("ParserUsed = %q, want formula", resp.ParserUsed)
	}
}

func TestClientFallsBackForUnknownContent(t *testing.T) {
	client := newTestClient(t)
	resp := client.Parse(context.Background(), &model.Element{
		ID:   "u1",
		Type: model.ElementTypeHeading,
		Text: "Chapter 4",
	})
	if !resp.Success {
		t.Fatalf("unparseable content should degrade, error: %s", resp.Error)
	}
	if resp.ParserUsed != "fallback" {
		t.Errorf("ParserUsed = %q, want fallback", resp.ParserUsed)
	}
}

func TestClientBatchAndStatistics(t *testing.T) {
	client := newTestClient(t)
	els := []*model.Element{
		{ID: "t1", Type: model.ElementTypeTable, Text: "a | b\n1 | 2"},
		{ID: "l1", Type: model.ElementTypeList, Text: "- one\n- two\n- three"},
		{ID: "c1", Type: model.ElementTypeCodeBlock, Text: "def f(x):\n    return x * 2"},
	}
	responses := client.ParseBatch(context.Background(), els)
	if len(responses) != 3 {
		t.Fatalf("responses = %d, want 3", len(responses))
	}
	for i, resp := range responses {
		if !resp.Success {
			t.Errorf("element %d failed: %s", i, resp.Error)
		}
	}

	stats := client.Statistics()
	if len(stats.Parsers) != 5 {
		t.Errorf("registered parsers = %d, want 5", len(stats.Parsers))
	}
	if stats.Monitor.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", stats.Monitor.TotalCount)
	}

	if h := client.HealthCheck(); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Manager.MaxConcurrent = -1
	if _, err := New(WithConfig(cfg)); err == nil {
		t.Error("negative concurrency should be rejected")
	}
}
