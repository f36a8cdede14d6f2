package formula

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsawler/docparse/model"
)

// Conversion is the outcome of a formula-to-LaTeX conversion.
type Conversion struct {
	LaTeX      string
	Confidence float64
	Strategy   string
	Findings   []string
}

// Converter turns formula text into LaTeX through a strategy chain:
// pass-through for text that already is LaTeX, Unicode substitution plus
// curated rewrites, component reconstruction, and a minimal fallback.
type Converter struct{}

// NewConverter creates a LaTeX converter.
func NewConverter() *Converter {
	return &Converter{}
}

var unicodeToLaTeX = map[rune]string{
	'α': `\alpha`, 'β': `\beta`, 'γ': `\gamma`, 'δ': `\delta`,
	'ε': `\epsilon`, 'ζ': `\zeta`, 'η': `\eta`, 'θ': `\theta`,
	'ι': `\iota`, 'κ': `\kappa`, 'λ': `\lambda`, 'μ': `\mu`,
	'ν': `\nu`, 'ξ': `\xi`, 'π': `\pi`, 'ρ': `\rho`,
	'σ': `\sigma`, 'τ': `\tau`, 'υ': `\upsilon`, 'φ': `\phi`,
	'χ': `\chi`, 'ψ': `\psi`, 'ω': `\omega`,
	'Γ': `\Gamma`, 'Δ': `\Delta`, 'Θ': `\Theta`, 'Λ': `\Lambda`,
	'Ξ': `\Xi`, 'Π': `\Pi`, 'Σ': `\Sigma`, 'Φ': `\Phi`,
	'Ψ': `\Psi`, 'Ω': `\Omega`,
	'∑': `\sum`, '∏': `\prod`, '∫': `\int`, '∮': `\oint`,
	'√': `\sqrt`, '∞': `\infty`, '±': `\pm`, '×': `\times`,
	'÷': `\div`, '·': `\cdot`, '≤': `\leq`, '≥': `\geq`,
	'≠': `\neq`, '≈': `\approx`, '∈': `\in`, '∂': `\partial`,
	'∇': `\nabla`, '→': `\to`, '½': `\frac{1}{2}`, '⅓': `\frac{1}{3}`,
	'⅔': `\frac{2}{3}`, '¼': `\frac{1}{4}`, '¾': `\frac{3}{4}`,
}

// rewrite is one curated regex rewrite with a confidence boost applied
// when it fires.
type rewrite struct {
	name    string
	pattern *regexp.Regexp
	replace string
	boost   float64
}

var rewrites = []rewrite{
	{"power", regexp.MustCompile(`\^([0-9a-zA-Z])(?:\b|$)`), `^{$1}`, 0.08},
	{"subscript", regexp.MustCompile(`_([0-9a-zA-Z])(?:\b|$)`), `_{$1}`, 0.08},
	{"sqrt", regexp.MustCompile(`\bsqrt\s*\(([^()]*)\)`), `\sqrt{$1}`, 0.10},
	{"fraction", regexp.MustCompile(`\b([0-9a-zA-Z]{1,4})\s*/\s*([0-9a-zA-Z]{1,4})\b`), `\frac{$1}{$2}`, 0.10},
	{"function", regexp.MustCompile(`\b(sin|cos|tan|log|ln|lim|exp|min|max)\b`), `\$1`, 0.06},
}

var latexSignatureRe = regexp.MustCompile(`\\[a-zA-Z]+\s*\{|\\(frac|sqrt|sum|int|begin|left)\b|^\s*\$.*\$\s*$`)

// Convert turns text into LaTeX. The components, when available, feed
// the reconstruction strategy. Validation findings lower the confidence
// but never discard the result.
func (c *Converter) Convert(text string, components []model.MathComponent) Conversion {
	trimmed := strings.TrimSpace(text)

	var conv Conversion
	switch {
	case latexSignatureRe.MatchString(trimmed):
		conv = Conversion{LaTeX: trimmed, Confidence: 0.95, Strategy: "pass-through"}
	default:
		conv = c.substitute(trimmed)
		if conv.Strategy == "" {
			conv = c.reconstruct(components)
		}
		if conv.Strategy == "" {
			conv = Conversion{LaTeX: minimalEscape(trimmed), Confidence: 0.2, Strategy: "fallback"}
		}
	}

	findings := ValidateLaTeX(conv.LaTeX)
	conv.Findings = findings
	conv.Confidence -= 0.15 * float64(len(findings))
	if conv.Confidence < 0.05 {
		conv.Confidence = 0.05
	}
	return conv
}

// substitute applies the Unicode map and the curated rewrites. Returns a
// zero Conversion when nothing fired.
func (c *Converter) substitute(text string) Conversion {
	var sb strings.Builder
	replaced := 0
	for _, r := range text {
		if latex, ok := unicodeToLaTeX[r]; ok {
			sb.WriteString(latex)
			sb.WriteString(" ")
			replaced++
		} else {
			sb.WriteRune(r)
		}
	}
	out := sb.String()

	confidence := 0.5
	fired := 0
	for _, rw := range rewrites {
		if rw.pattern.MatchString(out) {
			out = rw.pattern.ReplaceAllString(out, rw.replace)
			confidence += rw.boost
			fired++
		}
	}
	if replaced > 0 {
		confidence += 0.05 * float64(min(replaced, 4))
	}
	if replaced == 0 && fired == 0 {
		return Conversion{}
	}
	if confidence > 0.9 {
		confidence = 0.9
	}
	return Conversion{LaTeX: strings.TrimSpace(out), Confidence: confidence, Strategy: "substitution"}
}

// reconstruct rebuilds LaTeX from the detector's components.
func (c *Converter) reconstruct(components []model.MathComponent) Conversion {
	if len(components) == 0 {
		return Conversion{}
	}
	var parts []string
	for _, comp := range components {
		part := comp.Value
		if comp.Sub != "" {
			part += fmt.Sprintf("_{%s}", comp.Sub)
		}
		if comp.Super != "" {
			part += fmt.Sprintf("^{%s}", comp.Super)
		}
		parts = append(parts, part)
	}
	return Conversion{LaTeX: strings.Join(parts, " "), Confidence: 0.45, Strategy: "reconstruction"}
}

var escaper = strings.NewReplacer("%", `\%`, "&", `\&`, "#", `\#`)

func minimalEscape(text string) string {
	return escaper.Replace(text)
}

// allowedCommands is the validation allow-list.
var allowedCommands = map[string]bool{
	"frac": true, "sqrt": true, "sum": true, "prod": true, "int": true,
	"oint": true, "lim": true, "infty": true, "partial": true, "nabla": true,
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true,
	"csc": true, "log": true, "ln": true, "exp": true, "min": true,
	"max": true, "det": true, "times": true, "div": true, "cdot": true,
	"pm": true, "mp": true, "leq": true, "geq": true, "neq": true,
	"equiv": true, "approx": true, "in": true, "subset": true, "cup": true,
	"cap": true, "to": true, "rightarrow": true, "left": true,
	"right": true, "begin": true, "end": true, "matrix": true,
	"pmatrix": true, "bmatrix": true, "vmatrix": true, "text": true,
	"mathbb": true, "mathbf": true, "mathrm": true, "over": true,
}

var emptyArgRe = regexp.MustCompile(`\\(frac|sqrt)\{\s*\}`)

// ValidateLaTeX checks brace and parenthesis balance, commands against
// the allow-list, and fraction/root arguments for emptiness.
func ValidateLaTeX(latex string) []string {
	var findings []string

	braces, parens := 0, 0
	for _, r := range latex {
		switch r {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	if braces != 0 {
		findings = append(findings, "unbalanced braces")
	}
	if parens != 0 {
		findings = append(findings, "unbalanced parentheses")
	}

	for _, m := range latexCommandRe.FindAllString(latex, -1) {
		name := strings.TrimPrefix(m, "\\")
		if !allowedCommands[name] && !isGreekCommand(name) && !isUppercaseGreek(name) {
			findings = append(findings, fmt.Sprintf("unknown command \\%s", name))
		}
	}

	if emptyArgRe.MatchString(latex) {
		findings = append(findings, "empty fraction or root argument")
	}
	return findings
}

var uppercaseGreek = map[string]bool{
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true,
	"Xi": true, "Pi": true, "Sigma": true, "Phi": true, "Psi": true,
	"Omega": true,
}

func isUppercaseGreek(name string) bool { return uppercaseGreek[name] }
