package formula

import (
	"strings"
	"testing"
)

func TestConvertPassThrough(t *testing.T) {
	c := NewConverter()
	conv := c.Convert(`\frac{1}{2} + \sqrt{x}`, nil)
	if conv.Strategy != "pass-through" {
		t.Errorf("strategy = %q, want pass-through", conv.Strategy)
	}
	if conv.LaTeX != `\frac{1}{2} + \sqrt{x}` {
		t.Errorf("LaTeX = %q", conv.LaTeX)
	}
	if len(conv.Findings) != 0 {
		t.Errorf("findings = %v", conv.Findings)
	}
	if conv.Confidence < 0.9 {
		t.Errorf("confidence = %f, want >= 0.9", conv.Confidence)
	}
}

func TestConvertPowerRewrite(t *testing.T) {
	c := NewConverter()
	conv := c.Convert("x^2 + y^2 = z^2", nil)
	if conv.Strategy != "substitution" {
		t.Errorf("strategy = %q, want substitution", conv.Strategy)
	}
	if strings.Count(conv.LaTeX, "^{2}") != 3 {
		t.Errorf("LaTeX = %q, want three ^{2} substitutions", conv.LaTeX)
	}
}

func TestConvertUnicodeSymbols(t *testing.T) {
	c := NewConverter()
	conv := c.Convert("α + β ≤ γ", nil)
	for _, want := range []string{`\alpha`, `\beta`, `\leq`, `\gamma`} {
		if !strings.Contains(conv.LaTeX, want) {
			t.Errorf("LaTeX %q missing %s", conv.LaTeX, want)
		}
	}
}

func TestConvertCuratedRewrites(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sqrt(x+1)", `\sqrt{x+1}`},
		{"a/b", `\frac{a}{b}`},
		{"sin x + log y", `\sin`},
		{"a_1 + a_2", `_{1}`},
	}
	c := NewConverter()
	for _, tt := range tests {
		conv := c.Convert(tt.in, nil)
		if !strings.Contains(conv.LaTeX, tt.want) {
			t.Errorf("Convert(%q) = %q, want it to contain %q", tt.in, conv.LaTeX, tt.want)
		}
	}
}

func TestConvertReconstruction(t *testing.T) {
	c := NewConverter()
	d := NewDetector()
	fs, err := d.Detect("q w")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv := c.Convert("q w", fs.Components)
	if conv.Strategy != "reconstruction" {
		t.Errorf("strategy = %q, want reconstruction", conv.Strategy)
	}
	if conv.LaTeX != "q w" {
		t.Errorf("LaTeX = %q", conv.LaTeX)
	}
}

func TestConvertFallback(t *testing.T) {
	c := NewConverter()
	conv := c.Convert("50% & rising", nil)
	if conv.Strategy != "fallback" {
		t.Errorf("strategy = %q, want fallback", conv.Strategy)
	}
	if !strings.Contains(conv.LaTeX, `\%`) || !strings.Contains(conv.LaTeX, `\&`) {
		t.Errorf("LaTeX = %q, want escaped specials", conv.LaTeX)
	}
}

func TestValidationLowersConfidence(t *testing.T) {
	c := NewConverter()
	clean := c.Convert(`\frac{a}{b}`, nil)
	unbalanced := c.Convert(`\frac{a}{b`, nil)

	if len(unbalanced.Findings) == 0 {
		t.Fatal("expected findings for unbalanced braces")
	}
	if unbalanced.Confidence >= clean.Confidence {
		t.Errorf("unbalanced confidence %f should be below clean %f",
			unbalanced.Confidence, clean.Confidence)
	}
}

func TestValidateLaTeX(t *testing.T) {
	tests := []struct {
		latex    string
		findings int
	}{
		{`\frac{a}{b}`, 0},
		{`x^{2} + (y)`, 0},
		{`\frac{a}{b`, 1},
		{`\bogus{x}`, 1},
		{`\frac{}{b}`, 1},
		{`\sqrt{ }`, 1},
	}
	for _, tt := range tests {
		if got := ValidateLaTeX(tt.latex); len(got) != tt.findings {
			t.Errorf("ValidateLaTeX(%q) = %v, want %d findings", tt.latex, got, tt.findings)
		}
	}
}
