package imageparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsawler/docparse/lang"
	"github.com/tsawler/docparse/model"
)

// ParserName is the registry name of the image parser.
const ParserName = "image"

const parserVersion = "1.3.0"

// Each fusion signal carries equal weight; a skipped or failed OCR or
// language term substitutes a neutral 0.5.
const (
	signalWeight      = 0.25
	neutralConfidence = 0.5
)

// Config holds the tunable settings for the image parser.
type Config struct {
	// MinConfidence is the success threshold for a parse.
	MinConfidence float64

	// MaxOCRBytes bounds the image payload passed to the recognizer.
	MaxOCRBytes int
}

// DefaultConfig returns the default image parser configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.3,
		MaxOCRBytes:   20 << 20,
	}
}

// ImageMetadata is the fused metadata record for one image element.
type ImageMetadata struct {
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Format   string `json:"format,omitempty"`
	FileSize int    `json:"file_size,omitempty"`
	DPI      int    `json:"dpi,omitempty"`

	ImageType      string  `json:"image_type"`
	TypeConfidence float64 `json:"type_confidence"`

	Caption      string `json:"caption,omitempty"`
	FigureNumber string `json:"figure_number,omitempty"`
	Source       string `json:"source,omitempty"`
	AltText      string `json:"alt_text,omitempty"`
	Title        string `json:"title,omitempty"`

	OCRText       string  `json:"ocr_text,omitempty"`
	OCRConfidence float64 `json:"ocr_confidence,omitempty"`

	Language     string `json:"language,omitempty"`
	LanguageName string `json:"language_name,omitempty"`
}

// Parser parses image elements by fusing caption extraction,
// classification, optional OCR and language detection.
type Parser struct {
	config     Config
	classifier *Classifier
	extractor  *Extractor
	languages  *lang.Detector
	recognizer TextRecognizer
}

// NewParser creates an image parser with default configuration and no
// OCR recognizer.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates an image parser with custom configuration.
func NewParserWithConfig(config Config) *Parser {
	return &Parser{
		config:     config,
		classifier: NewClassifier(),
		extractor:  NewExtractor(),
		languages:  lang.NewDetector(),
	}
}

// SetRecognizer installs a text recognizer. A nil recognizer disables
// OCR; the parser then substitutes the neutral OCR term.
func (p *Parser) SetRecognizer(r TextRecognizer) {
	p.recognizer = r
}

// Name implements parser.Parser.
func (p *Parser) Name() string { return ParserName }

// Version implements parser.Parser.
func (p *Parser) Version() string { return parserVersion }

// Capabilities implements parser.Parser.
func (p *Parser) Capabilities() model.ParserCapabilities {
	return model.ParserCapabilities{
		ElementTypes:  []model.ElementType{model.ElementTypeImage, model.ElementTypeFigure},
		Formats:       []string{"json", "metadata", "ocr_text", "classification"},
		MinConfidence: 0,
		MaxConfidence: 1,
	}
}

// CanParse accepts declared images and figures, and untyped elements
// carrying image path metadata.
func (p *Parser) CanParse(el *model.Element) bool {
	if el == nil {
		return false
	}
	if el.Type == model.ElementTypeImage || el.Type == model.ElementTypeFigure {
		return true
	}
	if el.Type != model.ElementTypeUnknown {
		return false
	}
	return hasImagePath(el)
}

func hasImagePath(el *model.Element) bool {
	for _, key := range pathKeys {
		if el.MetaString(key) != "" {
			return true
		}
	}
	return el.Metadata != nil && el.Metadata["image_data"] != nil
}

// Priority implements parser.Parser.
func (p *Parser) Priority(el *model.Element) int {
	if el.Type == model.ElementTypeImage || el.Type == model.ElementTypeFigure {
		return 90
	}
	if hasImagePath(el) {
		return 40
	}
	return 10
}

// Parse implements parser.Parser. OCR runs only when the classification
// or hints indicate a text-bearing image; its absence never fails the
// parse.
func (p *Parser) Parse(ctx context.Context, el *model.Element, hints *model.ProcessingHints) (*model.ParserResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if el == nil {
		return &model.ParserResult{
			Success:          false,
			ValidationErrors: []string{"nil image element"},
		}, nil
	}

	classification := p.classifier.Classify(el)
	caption := p.extractor.Extract(el)

	meta := ImageMetadata{
		ImageType:      classification.Type.String(),
		TypeConfidence: classification.Confidence,
		Caption:        caption.Text,
		FigureNumber:   caption.FigureNumber,
		Source:         caption.Source,
		AltText:        caption.AltText,
		Title:          caption.Title,
	}
	if dims, ok := probeDimensions(el); ok {
		meta.Width = dims.Width
		meta.Height = dims.Height
		meta.Format = dims.Format
	}
	if size, ok := el.MetaInt("file_size"); ok {
		meta.FileSize = size
	}
	if dpi, ok := el.MetaInt("dpi"); ok {
		meta.DPI = dpi
	}

	var warnings []string

	ocrTerm := neutralConfidence
	ocrRan := false
	if p.recognizer != nil && p.wantOCR(classification.Type, hints) {
		if data := imageBytes(el); data != nil && len(data) <= p.config.MaxOCRBytes {
			result, err := p.recognizer.Recognize(ctx, data)
			switch {
			case err != nil:
				warnings = append(warnings, fmt.Sprintf("ocr failed: %v", err))
			default:
				ocrRan = true
				ocrTerm = result.Confidence
				meta.OCRText = result.Text
				meta.OCRConfidence = result.Confidence
			}
		}
	}

	langTerm := neutralConfidence
	if sample := firstNonBlank(meta.OCRText, caption.Text); sample != "" {
		if det, err := p.languages.Detect(sample); err == nil {
			langTerm = det.Confidence
			meta.Language = det.Code
			meta.LanguageName = det.Name
		}
	}

	confidence := model.ClampConfidence(signalWeight * (caption.Confidence +
		classification.Confidence + ocrTerm + langTerm))

	exports, exportWarnings := p.export(meta, classification)
	warnings = append(warnings, exportWarnings...)

	return &model.ParserResult{
		Success: confidence >= p.config.MinConfidence,
		Data: map[string]any{
			"image_type":      meta.ImageType,
			"type_confidence": meta.TypeConfidence,
			"caption":         meta.Caption,
			"figure_number":   meta.FigureNumber,
			"has_ocr_text":    ocrRan && meta.OCRText != "",
			"language":        meta.Language,
			"dimensions": map[string]int{
				"width":  meta.Width,
				"height": meta.Height,
			},
		},
		Metadata: model.ResultMetadata{
			Confidence: confidence,
			Warnings:   warnings,
		},
		ExtractedContent: firstNonBlank(meta.OCRText, meta.Caption),
		StructuredData:   &meta,
		ExportFormats:    exports,
	}, nil
}

// wantOCR reports whether the image likely bears text worth recognizing.
func (p *Parser) wantOCR(t ImageType, hints *model.ProcessingHints) bool {
	if v, ok := hints.ImageHint("contains_text").(bool); ok {
		return v
	}
	switch t {
	case ImageTypeScreenshot, ImageTypeTable, ImageTypeFormula:
		return true
	}
	return false
}

// export renders the JSON, metadata, OCR text and classification blocks.
func (p *Parser) export(meta ImageMetadata, cls Classification) (map[string]string, []string) {
	exports := map[string]string{"ocr_text": meta.OCRText}
	var warnings []string

	if js, err := json.MarshalIndent(meta, "", "  "); err != nil {
		warnings = append(warnings, fmt.Sprintf("json export failed: %v", err))
	} else {
		exports["json"] = string(js)
	}

	var mb strings.Builder
	fmt.Fprintf(&mb, "type: %s\n", meta.ImageType)
	if meta.Width > 0 {
		fmt.Fprintf(&mb, "dimensions: %dx%d\n", meta.Width, meta.Height)
	}
	if meta.Format != "" {
		fmt.Fprintf(&mb, "format: %s\n", meta.Format)
	}
	if meta.Caption != "" {
		fmt.Fprintf(&mb, "caption: %s\n", meta.Caption)
	}
	if meta.FigureNumber != "" {
		fmt.Fprintf(&mb, "figure: %s\n", meta.FigureNumber)
	}
	if meta.Source != "" {
		fmt.Fprintf(&mb, "source: %s\n", meta.Source)
	}
	if meta.Language != "" {
		fmt.Fprintf(&mb, "language: %s\n", meta.Language)
	}
	exports["metadata"] = mb.String()

	var cb strings.Builder
	fmt.Fprintf(&cb, "type: %s\nconfidence: %.2f\n", cls.Type, cls.Confidence)
	for t, n := range cls.Votes {
		fmt.Fprintf(&cb, "vote %s: %d\n", t, n)
	}
	exports["classification"] = cb.String()

	return exports, warnings
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

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
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
	if meta, ok := res.StructuredData.(*ImageMetadata); ok {
		if meta.ImageType == "" {
			findings = append(findings, "metadata has no image type")
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
		case "ocr_language":
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("ocr_language: expected string, got %T", val)
			}
			if p.recognizer == nil {
				return fmt.Errorf("ocr_language: no recognizer installed")
			}
			return p.recognizer.SetLanguage(s)
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
	}
	return nil
}
