package tables

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/docparse/model"
)

// ParserName is the registry name of the table parser.
const ParserName = "table"

const parserVersion = "1.2.0"

// Confidence weights for the table parser's sub-signals. When no header
// strategy fired, the header term substitutes a neutral 0.5.
const (
	weightSeparator  = 0.30
	weightValidation = 0.25
	weightTypes      = 0.25
	weightHeaders    = 0.20
)

// Parser parses table elements into a TableStructure with typed columns,
// inferred spans and the full set of export formats.
type Parser struct {
	config    Config
	analyzer  *Analyzer
	merger    *CellMerger
	typer     *DataTyper
	validator *StructureValidator
	exporter  *Exporter
}

// NewParser creates a table parser with default configuration.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates a table parser with custom configuration.
func NewParserWithConfig(config Config) *Parser {
	return &Parser{
		config:    config,
		analyzer:  NewAnalyzerWithConfig(config),
		merger:    NewCellMerger(),
		typer:     NewDataTyperWithConfig(config),
		validator: NewStructureValidatorWithConfig(config),
		exporter:  NewExporter(),
	}
}

// Name implements parser.Parser.
func (p *Parser) Name() string { return ParserName }

// Version implements parser.Parser.
func (p *Parser) Version() string { return parserVersion }

// Capabilities implements parser.Parser.
func (p *Parser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{
		ElementTypes:  []model.ElementType{model.ElementTypeTable},
		Formats:       p.exporter.Formats(),
		MinConfidence: 0,
		MaxConfidence: 1,
	}
}

// CanParse accepts declared tables, and untyped elements whose text looks
// tabular (two or more lines sharing a column separator).
func (p *Parser) CanParse(el *model.Element) bool {
	if el == nil || !el.HasText() {
		return false
	}
	if el.Type == model.ElementTypeTable {
		return true
	}
	if el.Type != model.ElementTypeUnknown {
		return false
	}
	return looksTabular(el.Text)
}

// Priority implements parser.Parser.
func (p *Parser) Priority(el *model.Element) int {
	if el.Type == model.ElementTypeTable {
		return 90
	}
	if looksTabular(el.Text) {
		return 55
	}
	return 10
}

// looksTabular reports whether at least two lines share a hard separator.
func looksTabular(text string) bool {
	lines := contentLines(text)
	if len(lines) < 2 {
		return false
	}
	withSep := 0
	for _, line := range lines {
		if strings.Contains(line, "|") || strings.Contains(line, "\t") {
			withSep++
		}
	}
	return withSep >= 2
}

// Parse implements parser.Parser. Analysis failures produce an
// unsuccessful result with validation errors, not an error.
func (p *Parser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !el.HasText() {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"table element has no text content"},
		}, nil
	}

	analysis := p.analyzer.Analyze(el.Text)
	if len(analysis.Matrix) == 0 {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"no tabular content detected"},
		}, nil
	}

	body := analysis.Matrix
	var headers []model.TableCell
	hasHeaders := analysis.HasHeaders
	if v, ok := hints.TableHint("has_headers").(bool); ok {
		hasHeaders = v
	}
	if hasHeaders && len(body) > 0 {
		for _, h := range body[0] {
			headers = append(headers, model.TableCell{Content: h, RowSpan: 1, ColSpan: 1, DataType: "text", Confidence: analysis.HeaderConfidence})
		}
		body = body[1:]
	}

	cells := p.merger.Merge(body)
	columnTypes, typeCoverage := p.typer.TypeColumns(body)
	p.typeCells(cells)

	structure := &model.TableStructure{
		Headers:     headers,
		Rows:        cells,
		ColumnTypes: columnTypes,
		HasHeaders:  hasHeaders,
	}

	findings, validationScore := p.validator.Validate(structure)

	headerTerm := 0.5
	if analysis.HasHeaders {
		headerTerm = analysis.HeaderConfidence
	}
	confidence := model.ClampConfidence(
		weightSeparator*analysis.SeparatorScore +
			weightValidation*validationScore +
			weightTypes*typeCoverage +
			weightHeaders*headerTerm)

	exports, warnings := p.exporter.Export(structure)

	result := &model.ParserResult{
		Success: confidence >= p.config.MinConfidence,
		Data: map[string]any{
			"dimensions": map[string]int{
				"rows":    structure.RowCount(),
				"columns": structure.ColumnCount(),
			},
			"headers":         structure.HeaderNames(),
			"separator":       analysis.Separator,
			"header_strategy": analysis.HeaderStrategy,
			"column_types":    columnTypes,
		},
		Metadata: model.ResultMetadata{
			Confidence:      confidence,
			Warnings:        warnings,
			ValidationScore: validationScore,
		},
		ValidationErrors: findings,
		ExtractedContent: plainText(structure),
		StructuredData:   structure,
		ExportFormats:    exports,
	}
	return result, nil
}

// typeCells fills in per-cell data types and confidences.
func (p *Parser) typeCells(rows [][]model.TableCell) {
	for _, row := range rows {
		for i := range row {
			raw, weight := p.typer.ClassifyValue(row[i].Content)
			row[i].DataType = Canonical(raw)
			row[i].Confidence = model.ClampConfidence(weight)
		}
	}
}

// plainText projects the structure as tab-separated text.
func plainText(ts *model.TableStructure) string {
	var sb strings.Builder
	if ts.HasHeaders {
		sb.WriteString(strings.Join(ts.HeaderNames(), "\t"))
		sb.WriteString("\n")
	}
	for _, row := range ts.Rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("\t")
			}
			sb.WriteString(cell.Content)
		}
		sb.WriteString("\n")
	}
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
	if ts, ok := res.StructuredData.(*model.TableStructure); ok {
		if res.Success && ts.ColumnCount() == 0 {
			findings = append(findings, "successful result has no columns")
		}
	}
	return findings
}

// Configure implements parser.Configurable. Supported settings mirror the
// Config fields (min_confidence, type_threshold, max_rows, max_columns).
func (p *Parser) Configure(settings map[string]any) error {
	for key, val := range settings {
		switch key {
		case "min_confidence":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("min_confidence: expected number, got %T", val)
			}
			p.config.MinConfidence = f
		case "type_threshold":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("type_threshold: expected number, got %T", val)
			}
			p.config.TypeThreshold = f
			p.typer = NewDataTyperWithConfig(p.config)
		case "max_rows":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("max_rows: expected number, got %T", val)
			}
			p.config.MaxRows = int(f)
			p.validator = NewStructureValidatorWithConfig(p.config)
		case "max_columns":
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("max_columns: expected number, got %T", val)
			}
			p.config.MaxColumns = int(f)
			p.validator = NewStructureValidatorWithConfig(p.config)
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
