package code

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/tsawler/docparse/model"
)

// ParserName is the registry name of the code parser.
const ParserName = "code"

const parserVersion = "1.1.0"

// Confidence weights for the code parser's sub-signals.
const (
	weightLanguage  = 0.35
	weightStructure = 0.35
	weightSyntax    = 0.30
)

// Config holds the tunable settings for the code parser.
type Config struct {
	// MaxLines bounds the input size; larger blocks are rejected before
	// analysis rather than truncated.
	MaxLines int

	// MinConfidence is the success threshold for a parse.
	MinConfidence float64

	// HighlightStyle is the chroma style used for the highlighted export.
	HighlightStyle string
}

// DefaultConfig returns the default code parser configuration.
func DefaultConfig() Config {
	return Config{
		MaxLines:       10000,
		MinConfidence:  0.3,
		HighlightStyle: "monokai",
	}
}

// Parser parses code block elements: language detection, structure
// extraction and syntax validation, with highlighted, JSON, metrics and
// plain-text exports.
type Parser struct {
	config   Config
	detector *LanguageDetector
	analyzer *StructureAnalyzer
}

// NewParser creates a code parser with default configuration.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates a code parser with custom configuration.
func NewParserWithConfig(config Config) *Parser {
	return &Parser{
		config:   config,
		detector: NewLanguageDetector(),
		analyzer: NewStructureAnalyzer(),
	}
}

// Name implements parser.Parser.
func (p *Parser) Name() string { return ParserName }

// Version implements parser.Parser.
func (p *Parser) Version() string { return parserVersion }

// Capabilities implements parser.Parser.
func (p *Parser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{
		ElementTypes:  []model.ElementType{model.ElementTypeCodeBlock},
		Formats:       []string{"highlighted", "json", "metrics", "text"},
		MinConfidence: 0,
		MaxConfidence: 1,
	}
}

// CanParse accepts declared code blocks, and untyped elements whose text
// detects as a known language.
func (p *Parser) CanParse(el *model.Element) bool {
	if el == nil || !el.HasText() {
		return false
	}
	if el.Type == model.ElementTypeCodeBlock {
		return true
	}
	if el.Type != model.ElementTypeUnknown {
		return false
	}
	lang, conf := p.detector.Detect(el.Text)
	return lang != "unknown" && conf >= 0.3
}

// Priority implements parser.Parser.
func (p *Parser) Priority(el *model.Element) int {
	if el.Type == model.ElementTypeCodeBlock {
		return 90
	}
	if lang, conf := p.detector.Detect(el.Text); lang != "unknown" && conf >= 0.3 {
		return 50
	}
	return 10
}

// Parse implements parser.Parser. Oversized input returns a
// MemoryLimitError; syntax problems are recorded on the structure and
// lower the confidence instead of failing the parse.
func (p *Parser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !el.HasText() {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"code element has no text content"},
		}, nil
	}

	source := el.Text
	if n := strings.Count(source, "\n") + 1; n > p.config.MaxLines {
		return nil, &model.MemoryLimitError{Parser: ParserName, Size: n, Limit: p.config.MaxLines}
	}

	language, langConfidence := p.detector.Detect(source)
	if hinted, ok := hints.CodeHint("language").(string); ok && hinted != "" {
		language = hinted
		langConfidence = 1.0
	}

	structure := p.analyzer.Analyze(source, language)

	structureScore := structureSignal(structure)
	syntaxScore := 1.0
	if !structure.SyntaxValid {
		syntaxScore = 0.3
	}
	confidence := model.ClampConfidence(
		weightLanguage*langConfidence +
			weightStructure*structureScore +
			weightSyntax*syntaxScore)

	exports, warnings := p.export(source, structure)

	var validationErrors []string
	for _, se := range structure.SyntaxErrors {
		validationErrors = append(validationErrors, (&model.SyntaxValidationError{Language: language, Detail: se}).Error())
	}

	return &model.ParserResult{
		Success: confidence >= p.config.MinConfidence,
		Data: map[string]any{
			"language":         language,
			"functions":        structure.FunctionNames(),
			"function_count":   len(structure.Functions),
			"class_count":      len(structure.Classes),
			"import_count":     len(structure.Imports),
			"line_count":       structure.LineCount,
			"complexity_score": structure.ComplexityScore,
			"syntax_valid":     structure.SyntaxValid,
		},
		Metadata: model.ResultMetadata{
			Confidence: confidence,
			Warnings:   warnings,
		},
		ValidationErrors: validationErrors,
		ExtractedContent: source,
		StructuredData:   structure,
		ExportFormats:    exports,
	}, nil
}

// structureSignal scores how much structure the analyzer recovered.
func structureSignal(cs *model.CodeStructure) float64 {
	score := 0.2
	if len(cs.Functions) > 0 {
		score += 0.4
	}
	if len(cs.Classes) > 0 {
		score += 0.2
	}
	if len(cs.Imports) > 0 {
		score += 0.1
	}
	if len(cs.Variables) > 0 {
		score += 0.1
	}
	return model.ClampConfidence(score)
}

// export renders the highlighted, JSON, metrics and text formats.
func (p *Parser) export(source string, cs *model.CodeStructure) (map[string]string, []string) {
	exports := map[string]string{"text": source}
	var warnings []string

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, cs.Language, "terminal256", p.config.HighlightStyle); err != nil {
		warnings = append(warnings, fmt.Sprintf("highlight export failed: %v", err))
	} else {
		exports["highlighted"] = buf.String()
	}

	if js, err := json.MarshalIndent(cs, "", "  "); err != nil {
		warnings = append(warnings, fmt.Sprintf("json export failed: %v", err))
	} else {
		exports["json"] = string(js)
	}

	exports["metrics"] = metricsReport(cs)
	return exports, warnings
}

// metricsReport renders a short plain-text summary of the structure.
func metricsReport(cs *model.CodeStructure) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "language: %s\n", cs.Language)
	fmt.Fprintf(&sb, "lines: %d\n", cs.LineCount)
	fmt.Fprintf(&sb, "functions: %d\n", len(cs.Functions))
	fmt.Fprintf(&sb, "classes: %d\n", len(cs.Classes))
	fmt.Fprintf(&sb, "imports: %d\n", len(cs.Imports))
	fmt.Fprintf(&sb, "complexity: %.1f\n", cs.ComplexityScore)
	fmt.Fprintf(&sb, "syntax valid: %t\n", cs.SyntaxValid)
	return sb.String()
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
	if cs, ok := res.StructuredData.(*model.CodeStructure); ok {
		if cs.Language == "" {
			findings = append(findings, "structure has no language")
		}
		if cs.ComplexityScore < 0 || cs.ComplexityScore > 10 {
			findings = append(findings, fmt.Sprintf("complexity %f out of range", cs.ComplexityScore))
		}
	}
	return findings
}

// Configure implements parser.Configurable.
func (p *Parser) Configure(settings map[string]any) error {
	for key, val := range settings {
		switch key {
		case "max_lines":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("max_lines: expected number, got %T", val)
			}
			p.config.MaxLines = int(f)
		case "min_confidence":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("min_confidence: expected number, got %T", val)
			}
			p.config.MinConfidence = f
		case "highlight_style":
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("highlight_style: expected string, got %T", val)
			}
			p.config.HighlightStyle = s
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
