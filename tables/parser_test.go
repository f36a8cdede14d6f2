package tables

import (
	"context"
	"strings"
	"testing"

	"github.com/tsawler/docparse/model"
)

func tableEl(text string) *model.Element {
	return &model.Element{ID: "t1", Type: model.ElementTypeTable, Text: text}
}

func TestParseSimpleTable(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), tableEl("Name | Age\nJohn | 25\nJane | 30"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, validation errors: %v", res.ValidationErrors)
	}

	ts, ok := res.StructuredData.(*model.TableStructure)
	if !ok {
		t.Fatal("StructuredData is not a TableStructure")
	}
	if ts.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", ts.RowCount())
	}
	if ts.ColumnCount() != 2 {
		t.Errorf("columns = %d, want 2", ts.ColumnCount())
	}
	headers := ts.HeaderNames()
	if len(headers) != 2 || headers[0] != "Name" || headers[1] != "Age" {
		t.Errorf("headers = %v, want [Name Age]", headers)
	}
	if res.Metadata.Confidence <= 0 || res.Metadata.Confidence > 1 {
		t.Errorf("confidence %f out of range", res.Metadata.Confidence)
	}

	dims, ok := res.Data["dimensions"].(map[string]int)
	if !ok {
		t.Fatal("missing dimensions in Data")
	}
	if dims["rows"] != 2 || dims["columns"] != 2 {
		t.Errorf("dimensions = %v", dims)
	}
}

func TestMarkdownRoundTripColumnCount(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), tableEl("Name | Age\nJohn | 25\nJane | 30"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := res.StructuredData.(*model.TableStructure)
	md := res.ExportFormats["markdown"]
	if md == "" {
		t.Fatal("missing markdown export")
	}

	firstLine := strings.SplitN(md, "\n", 2)[0]
	cells := 0
	for _, part := range strings.Split(firstLine, "|") {
		if strings.TrimSpace(part) != "" {
			cells++
		}
	}
	if cells != ts.ColumnCount() {
		t.Errorf("markdown row has %d cells, want %d", cells, ts.ColumnCount())
	}
}

func TestExportFormatsPresent(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), tableEl("Name | Age\nJohn | 25"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, format := range []string{"csv", "json", "html", "markdown", "xlsx"} {
		if res.ExportFormats[format] == "" {
			t.Errorf("missing %s export", format)
		}
	}

	if !strings.Contains(res.ExportFormats["html"], "<table>") {
		t.Error("html export missing <table>")
	}
	if !strings.Contains(res.ExportFormats["csv"], "Name,Age") {
		t.Errorf("csv export missing header row: %q", res.ExportFormats["csv"])
	}
}

func TestCSVEscaping(t *testing.T) {
	e := NewExporter()
	ts := &model.TableStructure{
		Rows: [][]model.TableCell{
			{{Content: `say "hi", ok`, RowSpan: 1, ColSpan: 1}},
		},
	}
	out := e.CSV(ts)
	if !strings.Contains(out, `"say ""hi"", ok"`) {
		t.Errorf("csv escaping wrong: %q", out)
	}
}

func TestParseEmptyElement(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), tableEl("   "), nil)
	if err != nil {
		t.Fatalf("empty input should not error, got %v", err)
	}
	if res.Success {
		t.Error("empty input should not succeed")
	}
	if len(res.ValidationErrors) == 0 {
		t.Error("expected validation errors")
	}
}

func TestCanParse(t *testing.T) {
	p := NewParser()

	if !p.CanParse(tableEl("a | b\nc | d")) {
		t.Error("declared table should be parseable")
	}
	unknown := &model.Element{Type: model.ElementTypeUnknown, Text: "a | b\nc | d"}
	if !p.CanParse(unknown) {
		t.Error("tabular-looking unknown element should be parseable")
	}
	list := &model.Element{Type: model.ElementTypeList, Text: "1. x"}
	if p.CanParse(list) {
		t.Error("declared list should not be parseable by the table parser")
	}
	if p.CanParse(nil) {
		t.Error("nil element should not be parseable")
	}
}

func TestHeaderHintOverride(t *testing.T) {
	p := NewParser()
	hints := &model.ProcessingHints{Table: map[string]any{"has_headers": false}}
	res, err := p.Parse(context.Background(), tableEl("Name | Age\nJohn | 25\nJane | 30"), hints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts := res.StructuredData.(*model.TableStructure)
	if ts.HasHeaders {
		t.Error("hint should force headerless parsing")
	}
	if ts.RowCount() != 3 {
		t.Errorf("rows = %d, want 3 when headerless", ts.RowCount())
	}
}

func TestCellMergerColSpans(t *testing.T) {
	cm := NewCellMerger()
	rows := cm.Merge([][]string{
		{"merged", "", "x"},
		{"a", "b", "c"},
	})

	if rows[0][0].ColSpan != 2 {
		t.Errorf("ColSpan = %d, want 2", rows[0][0].ColSpan)
	}
	if rows[0][2].ColSpan != 1 {
		t.Errorf("trailing cell ColSpan = %d, want 1", rows[0][2].ColSpan)
	}
	for _, row := range rows {
		for _, cell := range row {
			if cell.RowSpan < 1 || cell.ColSpan < 1 {
				t.Errorf("cell %+v has span < 1", cell)
			}
		}
	}
}

func TestCellMergerRowSpans(t *testing.T) {
	cm := NewCellMerger()
	rows := cm.Merge([][]string{
		{"tall", "b"},
		{"", "c"},
		{"d", "e"},
	})

	if rows[0][0].RowSpan != 2 {
		t.Errorf("RowSpan = %d, want 2", rows[0][0].RowSpan)
	}
	if rows[2][0].RowSpan != 1 {
		t.Errorf("RowSpan = %d, want 1", rows[2][0].RowSpan)
	}
}

func TestValidatorSpanBounds(t *testing.T) {
	v := NewStructureValidator()
	ts := &model.TableStructure{
		Rows: [][]model.TableCell{
			{{Content: "a", RowSpan: 1, ColSpan: 5}, {Content: "b", RowSpan: 1, ColSpan: 1}},
		},
	}

	findings, score := v.Validate(ts)
	if len(findings) == 0 {
		t.Fatal("expected findings for span crossing the table edge")
	}
	if score < 0 || score > 1 {
		t.Errorf("score %f out of range", score)
	}
}

func TestConfigure(t *testing.T) {
	p := NewParser()
	if err := p.Configure(map[string]any{"min_confidence": 0.9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.config.MinConfidence != 0.9 {
		t.Errorf("MinConfidence = %f", p.config.MinConfidence)
	}
	if err := p.Configure(map[string]any{"bogus": 1}); err == nil {
		t.Error("unknown setting should error")
	}
	if err := p.Configure(map[string]any{"min_confidence": "high"}); err == nil {
		t.Error("non-numeric value should error")
	}
}
