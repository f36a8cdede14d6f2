package formula

import (
	"context"
	"strings"
	"testing"

	"github.com/tsawler/docparse/model"
)

func formulaEl(text string) *model.Element {
	return &model.Element{ID: "f1", Type: model.ElementTypeFormula, Text: text}
}

func TestParsePythagoreanEquation(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), formulaEl("x^2 + y^2 = z^2"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.ValidationErrors)
	}

	if res.Data["formula_type"] != "equation" {
		t.Errorf("formula_type = %v, want equation", res.Data["formula_type"])
	}
	if !strings.Contains(res.ExportFormats["latex"], "^{2}") {
		t.Errorf("latex export = %q, want ^{2} substitutions", res.ExportFormats["latex"])
	}
	if res.Metadata.Confidence <= 0 {
		t.Errorf("confidence = %f, want > 0", res.Metadata.Confidence)
	}
}

func TestParseExportFormats(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), formulaEl("a_1 + a_2 = b"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, format := range []string{"latex", "mathml", "json", "text"} {
		if res.ExportFormats[format] == "" {
			t.Errorf("missing %s export", format)
		}
	}
	mathml := res.ExportFormats["mathml"]
	if !strings.Contains(mathml, "<msub>") {
		t.Errorf("mathml = %q, want <msub> for subscripted variables", mathml)
	}
	if !strings.Contains(mathml, "<mo>=</mo>") {
		t.Errorf("mathml = %q, want <mo>=</mo>", mathml)
	}
}

func TestParseStructureFlags(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), formulaEl("∑_{i=1}^{n} 1/i"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fs := res.StructuredData.(*model.FormulaStructure)
	if !fs.HasSummations || !fs.HasFractions {
		t.Errorf("flags = summations %t, fractions %t", fs.HasSummations, fs.HasFractions)
	}
	if fs.LaTeX == "" {
		t.Error("structure should carry the converted LaTeX")
	}
}

func TestParseEmptyFormula(t *testing.T) {
	p := NewParser()
	res, err := p.Parse(context.Background(), formulaEl("  "), nil)
	if err != nil {
		t.Fatalf("blank input should not error, got %v", err)
	}
	if res.Success {
		t.Error("blank input should not succeed")
	}
	if len(res.ValidationErrors) == 0 {
		t.Error("expected validation errors")
	}
}

func TestFormulaCanParse(t *testing.T) {
	p := NewParser()
	if !p.CanParse(formulaEl("x = 1")) {
		t.Error("declared formula should be parseable")
	}
	mathy := &model.Element{Type: model.ElementTypeUnknown, Text: "E = mc^2"}
	if !p.CanParse(mathy) {
		t.Error("short symbolic equation should be parseable")
	}
	prose := &model.Element{Type: model.ElementTypeUnknown, Text: "The total = all items combined here."}
	if p.CanParse(prose) {
		t.Error("prose should not be parseable as a formula")
	}
}

func TestFormulaConfigure(t *testing.T) {
	p := NewParser()
	if err := p.Configure(map[string]any{"min_confidence": 0.9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.config.MinConfidence != 0.9 {
		t.Errorf("MinConfidence = %f", p.config.MinConfidence)
	}
	if err := p.Configure(map[string]any{"bogus": true}); err == nil {
		t.Error("unknown setting should error")
	}
}
