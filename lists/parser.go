package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/tsawler/docparse/model"
)

// ParserName is the registry name of the list parser.
const ParserName = "list"

const parserVersion = "1.1.0"

// Confidence weights for the list parser's sub-signals.
const (
	weightMarkers   = 0.4
	weightHierarchy = 0.3
	weightUniform   = 0.3
)

// Parser parses list elements into a ListStructure with export formats.
type Parser struct {
	config   Config
	detector *Detector
}

// NewParser creates a list parser with default configuration.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates a list parser with custom configuration.
func NewParserWithConfig(config Config) *Parser {
	return &Parser{config: config, detector: NewDetectorWithConfig(config)}
}

// Name implements parser.Parser.
func (p *Parser) Name() string { return ParserName }

// Version implements parser.Parser.
func (p *Parser) Version() string { return parserVersion }

// Capabilities implements parser.Parser.
func (p *Parser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{
		ElementTypes:  []model.ElementType{model.ElementTypeList},
		Formats:       []string{"json", "html", "markdown", "text"},
		MinConfidence: 0,
		MaxConfidence: 1,
	}
}

// CanParse accepts declared lists, and untyped elements where most lines
// open with a list marker.
func (p *Parser) CanParse(el *model.Element) bool {
	if el == nil || !el.HasText() {
		return false
	}
	if el.Type == model.ElementTypeList {
		return true
	}
	if el.Type != model.ElementTypeUnknown {
		return false
	}
	return markerDensity(el.Text) >= 0.5
}

// Priority implements parser.Parser.
func (p *Parser) Priority(el *model.Element) int {
	if el.Type == model.ElementTypeList {
		return 90
	}
	if markerDensity(el.Text) >= 0.5 {
		return 60
	}
	return 10
}

// markerDensity reports the fraction of non-blank lines with a marker.
func markerDensity(text string) float64 {
	d := NewDetector()
	lines := strings.Split(text, "\n")
	total := 0
	marked := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if d.classifyLine(line).pattern != "plain" {
			marked++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(marked) / float64(total)
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !el.HasText() {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"list element has no text content"},
		}, nil
	}

	detection, err := p.detector.Detect(el.Text)
	if err != nil {
		var see *model.StructureExtractionError
		if errors.As(err, &see) {
			return &model.ParserResult{
				Success:          false,
				ValidationErrors: []string{see.Error()},
			}, nil
		}
		return nil, err
	}

	structure := detection.Structure

	hierarchyScore := 1.0
	if n := len(detection.Findings); n > 0 {
		hierarchyScore = 1.0 / float64(1+n)
	}
	uniformScore := 1.0
	if structure.HasMixedContent {
		uniformScore = 0.6
	}
	confidence := model.ClampConfidence(
		weightMarkers*detection.MarkerCoverage +
			weightHierarchy*hierarchyScore +
			weightUniform*uniformScore)

	result := &model.ParserResult{
		Success: confidence >= p.config.MinConfidence,
		Data: map[string]any{
			"list_type":   structure.ListType,
			"total_items": structure.TotalItems,
			"max_depth":   structure.MaxDepth,
			"mixed":       structure.HasMixedContent,
		},
		Metadata: model.ResultMetadata{
			Confidence:      confidence,
			ValidationScore: hierarchyScore,
		},
		ValidationErrors: detection.Findings,
		ExtractedContent: plainText(structure),
		StructuredData:   structure,
		ExportFormats:    exportAll(structure),
	}
	return result, nil
}

// Validate implements parser.Parser.
func (p *Parser) Validate(res *model.ParserResult) []string {
	if res == nil {
		return []string{"nil result"}
	}
	var findings []string
	if ls, ok := res.StructuredData.(*model.ListStructure); ok {
		if res.Success && ls.TotalItems == 0 {
			findings = append(findings, "successful result has no items")
		}
	}
	return findings
}

// Configure implements parser.Configurable.
func (p *Parser) Configure(settings map[string]any) error {
	for key, val := range settings {
		switch key {
		case "max_depth":
			f, ok := val.(int)
			if !ok {
				return fmt.Errorf("max_depth: expected int, got %T", val)
			}
			p.config.MaxDepth = f
		case "min_confidence":
			f, ok := val.(float64)
			if !ok {
				return fmt.Errorf("min_confidence: expected float, got %T", val)
			}
			p.config.MinConfidence = f
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
		p.detector = NewDetectorWithConfig(p.config)
	}
	return nil
}

// exportAll renders the structure in every supported format.
func exportAll(ls *model.ListStructure) map[string]string {
	out := map[string]string{
		"markdown": ToMarkdown(ls),
		"html":     ToHTML(ls),
		"text":     plainText(ls),
	}
	if js, err := json.MarshalIndent(ls, "", "  "); err == nil {
		out["json"] = string(js)
	}
	return out
}

// plainText renders items with two-space indentation per level.
func plainText(ls *model.ListStructure) string {
	var sb strings.Builder
	var write func(items []*model.ListItem, depth int)
	write = func(items []*model.ListItem, depth int) {
		for _, it := range items {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString(it.Content)
			sb.WriteString("\n")
			write(it.Children, depth+1)
		}
	}
	write(ls.Items, 0)
	return sb.String()
}

// ToMarkdown renders the list as markdown, numbering ordered items and
// dashing everything else.
func ToMarkdown(ls *model.ListStructure) string {
	var sb strings.Builder
	var write func(items []*model.ListItem, depth int)
	write = func(items []*model.ListItem, depth int) {
		for i, it := range items {
			sb.WriteString(strings.Repeat("  ", depth))
			if it.ItemType == model.ListItemOrdered {
				fmt.Fprintf(&sb, "%d. ", i+1)
			} else {
				sb.WriteString("- ")
			}
			sb.WriteString(it.Content)
			sb.WriteString("\n")
			write(it.Children, depth+1)
		}
	}
	write(ls.Items, 0)
	return sb.String()
}

// ToHTML renders nested ul/ol/dl markup with escaped content.
func ToHTML(ls *model.ListStructure) string {
	var sb strings.Builder
	var write func(items []*model.ListItem, depth int)

	tagFor := func(items []*model.ListItem) string {
		ordered := 0
		for _, it := range items {
			if it.ItemType == model.ListItemOrdered {
				ordered++
			}
		}
		if len(items) > 0 && ordered*2 >= len(items) {
			return "ol"
		}
		return "ul"
	}

	write = func(items []*model.ListItem, depth int) {
		if len(items) == 0 {
			return
		}
		tag := tagFor(items)
		indent := strings.Repeat("  ", depth)
		sb.WriteString(indent)
		sb.WriteString("<" + tag + ">\n")
		for _, it := range items {
			sb.WriteString(indent)
			sb.WriteString("  <li>")
			sb.WriteString(html.EscapeString(it.Content))
			if len(it.Children) > 0 {
				sb.WriteString("\n")
				write(it.Children, depth+2)
				sb.WriteString(indent)
				sb.WriteString("  ")
			}
			sb.WriteString("</li>\n")
		}
		sb.WriteString(indent)
		sb.WriteString("</" + tag + ">\n")
	}
	write(ls.Items, 0)
	return sb.String()
}
