package formula

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/tsawler/docparse/model"
)

// ParserName is the registry name of the formula parser.
const ParserName = "formula"

const parserVersion = "1.0.2"

// Confidence weights for the formula parser's sub-signals.
const (
	weightConversion = 0.4
	weightDetection  = 0.3
	weightComponents = 0.3
)

// Config holds the tunable settings for the formula parser.
type Config struct {
	// MinConfidence is the success threshold for a parse.
	MinConfidence float64

	// Detector configures the math detector.
	Detector DetectorConfig
}

// DefaultConfig returns the default formula parser configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.3,
		Detector:      DefaultDetectorConfig(),
	}
}

// Parser parses formula elements into a FormulaStructure with a LaTeX
// conversion and LaTeX, MathML, JSON and plain-text exports.
type Parser struct {
	config    Config
	detector  *Detector
	converter *Converter
}

// NewParser creates a formula parser with default configuration.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates a formula parser with custom configuration.
func NewParserWithConfig(config Config) *Parser {
	return &Parser{
		config:    config,
		detector:  NewDetectorWithConfig(config.Detector),
		converter: NewConverter(),
	}
}

// Name implements parser.Parser.
func (p *Parser) Name() string { return ParserName }

// Version implements parser.Parser.
func (p *Parser) Version() string { return parserVersion }

// Capabilities implements parser.Parser.
func (p *Parser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{
		ElementTypes:  []model.ElementType{model.ElementTypeFormula},
		Formats:       []string{"latex", "mathml", "json", "text"},
		MinConfidence: 0,
		MaxConfidence: 1,
	}
}

var mathSymbolRe = regexp.MustCompile(`[∑∏∫√≤≥≠±×÷]|\\[a-zA-Z]+|\^|[α-ωΑ-Ω]`)

// CanParse accepts declared formulas, and untyped single-line elements
// carrying mathematical notation.
func (p *Parser) CanParse(el *model.Element) bool {
	if el == nil || !el.HasText() {
		return false
	}
	if el.Type == model.ElementTypeFormula {
		return true
	}
	if el.Type != model.ElementTypeUnknown {
		return false
	}
	text := strings.TrimSpace(el.Text)
	if strings.Contains(text, "\n") || len(text) > 300 {
		return false
	}
	return mathSymbolRe.MatchString(text) ||
		(strings.Contains(text, "=") && equationLike(text))
}

// equationLike reports whether the text reads like a short symbolic
// equation rather than prose with an equals sign.
func equationLike(text string) bool {
	words := strings.Fields(text)
	long := 0
	for _, w := range words {
		if len([]rune(strings.Trim(w, "()[]{},;"))) > 4 {
			long++
		}
	}
	return long <= len(words)/3
}

// Priority implements parser.Parser.
func (p *Parser) Priority(el *model.Element) int {
	if el.Type == model.ElementTypeFormula {
		return 90
	}
	if mathSymbolRe.MatchString(el.Text) {
		return 45
	}
	return 10
}

// Parse implements parser.Parser. Detection failure produces an
// unsuccessful result with validation errors, not an error.
func (p *Parser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !el.HasText() {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"formula element has no text content"},
		}, nil
	}

	structure, err := p.detector.Detect(el.Text)
	if err != nil {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{err.Error()},
		}, nil
	}

	conv := p.converter.Convert(el.Text, structure.Components)
	structure.LaTeX = conv.LaTeX

	confidence := model.ClampConfidence(
		weightConversion*conv.Confidence +
			weightDetection*detectionSignal(structure) +
			weightComponents*componentSignal(structure))

	exports := map[string]string{
		"latex":  conv.LaTeX,
		"mathml": toMathML(structure),
		"text":   strings.TrimSpace(el.Text),
	}
	var warnings []string
	if js, jerr := json.MarshalIndent(structure, "", "  "); jerr != nil {
		warnings = append(warnings, fmt.Sprintf("json export failed: %v", jerr))
	} else {
		exports["json"] = string(js)
	}
	warnings = append(warnings, conv.Findings...)

	return &model.ParserResult{
		Success: confidence >= p.config.MinConfidence,
		Data: map[string]any{
			"formula_type":     structure.FormulaType,
			"latex":            conv.LaTeX,
			"conversion":       conv.Strategy,
			"variables":        structure.Variables,
			"operators":        structure.Operators,
			"functions":        structure.Functions,
			"component_count":  len(structure.Components),
			"complexity_score": structure.ComplexityScore,
			"nesting_level":    structure.NestingLevel,
			"has_fractions":    structure.HasFractions,
			"has_integrals":    structure.HasIntegrals,
			"has_summations":   structure.HasSummations,
			"has_matrices":     structure.HasMatrices,
			"latex_valid":      len(conv.Findings) == 0,
			"latex_confidence": conv.Confidence,
		},
		Metadata: model.ResultMetadata{
			Confidence: confidence,
			Warnings:   warnings,
		},
		ExtractedContent: strings.TrimSpace(el.Text),
		StructuredData:   structure,
		ExportFormats:    exports,
	}, nil
}

// detectionSignal scores how specific the type classification was.
func detectionSignal(fs *model.FormulaStructure) float64 {
	score := 0.5
	if fs.FormulaType != "expression" {
		score += 0.3
	}
	if fs.HasFractions || fs.HasIntegrals || fs.HasSummations || fs.HasMatrices || len(fs.Functions) > 0 {
		score += 0.2
	}
	return model.ClampConfidence(score)
}

// componentSignal scores how much structure the tokenizer recovered.
func componentSignal(fs *model.FormulaStructure) float64 {
	score := 0.0
	if len(fs.Variables) > 0 {
		score += 0.4
	}
	if len(fs.Operators) > 0 || len(fs.Functions) > 0 {
		score += 0.4
	}
	if len(fs.Components) >= 3 {
		score += 0.2
	}
	return model.ClampConfidence(score)
}

// toMathML renders presentation MathML from the components.
func toMathML(fs *model.FormulaStructure) string {
	var sb strings.Builder
	sb.WriteString(`<math xmlns="http://www.w3.org/1998/Math/MathML"><mrow>`)
	for _, c := range fs.Components {
		base := mathMLToken(c.Value, c.Kind)
		switch {
		case c.Sub != "" && c.Super != "":
			fmt.Fprintf(&sb, "<msubsup>%s<mn>%s</mn><mn>%s</mn></msubsup>",
				base, html.EscapeString(c.Sub), html.EscapeString(c.Super))
		case c.Super != "":
			fmt.Fprintf(&sb, "<msup>%s<mn>%s</mn></msup>", base, html.EscapeString(c.Super))
		case c.Sub != "":
			fmt.Fprintf(&sb, "<msub>%s<mn>%s</mn></msub>", base, html.EscapeString(c.Sub))
		default:
			sb.WriteString(base)
		}
	}
	sb.WriteString(`</mrow></math>`)
	return sb.String()
}

func mathMLToken(value string, kind model.MathComponentKind) string {
	escaped := html.EscapeString(strings.TrimPrefix(value, "\\"))
	switch kind {
	case model.MathComponentConstant:
		return "<mn>" + escaped + "</mn>"
	case model.MathComponentOperator, model.MathComponentDelimiter:
		return "<mo>" + escaped + "</mo>"
	default:
		return "<mi>" + escaped + "</mi>"
	}
}

// Validate implements parser.Parser.
func (p *Parser) Validate(res *model.ParserResult) []string {
	var findings []string
	if res == nil {
		return []string{"nil result"}
	}
	if res.Metadata.Confidence < 0 || res.Metadata.Confidence > 1 {
		findings = append(findings, fmt.Sprintf("confidence %f out of range", res.Metadata.Confidence))
	}
	if fs, ok := res.StructuredData.(*model.FormulaStructure); ok {
		if res.Success && fs.FormulaType == "" {
			findings = append(findings, "successful result has no formula type")
		}
		if fs.ComplexityScore < 0 || fs.ComplexityScore > 10 {
			findings = append(findings, fmt.Sprintf("complexity %f out of range", fs.ComplexityScore))
		}
	}
	return findings
}

// Configure implements parser.Configurable.
func (p *Parser) Configure(settings map[string]any) error {
	for key, val := range settings {
		switch key {
		case "min_confidence":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("min_confidence: expected number, got %T", val)
			}
			p.config.MinConfidence = f
		case "max_components":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("max_components: expected number, got %T", val)
			}
			p.config.Detector.MaxComponents = int(f)
			p.detector = NewDetectorWithConfig(p.config.Detector)
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
