package lists

import (
	"context"
	"strings"
	"testing"

	"github.com/tsawler/docparse/model"
)

func listEl(text string) *model.Element {
	return &model.Element{ID: "l1", Type: model.ElementTypeList, Text: text}
}

func TestParseOrderedList(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), listEl("1. First\n2. Second\n3. Third"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.ValidationErrors)
	}

	ls := res.StructuredData.(*model.ListStructure)
	if ls.TotalItems != 3 || ls.MaxDepth != 0 || ls.ListType != "ordered" {
		t.Errorf("structure = total %d, depth %d, type %q", ls.TotalItems, ls.MaxDepth, ls.ListType)
	}
	if res.Data["list_type"] != "ordered" {
		t.Errorf("Data list_type = %v", res.Data["list_type"])
	}
	if res.Metadata.Confidence <= 0 || res.Metadata.Confidence > 1 {
		t.Errorf("confidence %f out of range", res.Metadata.Confidence)
	}
}

func TestParseExports(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), listEl("1. a\n2. b"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, format := range []string{"json", "html", "markdown", "text"} {
		if res.ExportFormats[format] == "" {
			t.Errorf("missing %s export", format)
		}
	}
	if !strings.Contains(res.ExportFormats["markdown"], "1. a") {
		t.Errorf("markdown = %q", res.ExportFormats["markdown"])
	}
	if !strings.Contains(res.ExportFormats["html"], "<ol>") {
		t.Errorf("html should use <ol> for ordered lists: %q", res.ExportFormats["html"])
	}
}

func TestHTMLNesting(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), listEl("- a\n  - a1\n- b"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := res.ExportFormats["html"]
	if strings.Count(html, "<ul>") != 2 {
		t.Errorf("expected nested <ul>, got %q", html)
	}
	if !strings.Contains(html, "a1") {
		t.Errorf("nested item missing: %q", html)
	}
}

func TestParseEmptyList(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), listEl("   "), nil)
	if err != nil {
		t.Fatalf("blank input should not error, got %v", err)
	}
	if res.Success {
		t.Error("blank input should not succeed")
	}
}

func TestListCanParse(t *testing.T) {
	p := NewParser()
	if !p.CanParse(listEl("1. a")) {
		t.Error("declared list should be parseable")
	}
	unknown := &model.Element{Type: model.ElementTypeUnknown, Text: "- a\n- b\n- c"}
	if !p.CanParse(unknown) {
		t.Error("marker-dense unknown element should be parseable")
	}
	prose := &model.Element{Type: model.ElementTypeUnknown, Text: "Just a sentence.\nAnd another."}
	if p.CanParse(prose) {
		t.Error("prose should not be parseable as a list")
	}
}

func TestValidationFindingsLowerConfidence(t *testing.T) {
	p := NewParser()
	clean, _ := p.Parse(context.Background(), listEl("- a\n  - b"), nil)
	jumpy, _ := p.Parse(context.Background(), listEl("- a\n    - deep\n  - mid"), nil)

	if len(jumpy.ValidationErrors) == 0 {
		t.Fatal("expected validation errors for a level jump")
	}
	if jumpy.Metadata.Confidence >= clean.Metadata.Confidence {
		t.Errorf("jumpy confidence %f should be below clean %f",
			jumpy.Metadata.Confidence, clean.Metadata.Confidence)
	}
}
