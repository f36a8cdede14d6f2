package manager

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsawler/docparse/model"
)

// FallbackReason classifies why a parse needed a degraded strategy.
type FallbackReason int

const (
	ReasonNoParser FallbackReason = iota
	ReasonTimeout
	ReasonError
)

func (r FallbackReason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonError:
		return "error"
	default:
		return "no_parser"
	}
}

// FallbackConfig holds the degraded-strategy limits.
type FallbackConfig struct {
	// MaxConfidence caps the confidence any fallback result may claim.
	MaxConfidence float64

	// TruncateAt bounds the text carried by the timeout strategy, in runes.
	TruncateAt int

	// PreviewAt bounds the preview carried by the summary strategy, in runes.
	PreviewAt int
}

// DefaultFallbackConfig returns the default fallback configuration.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		MaxConfidence: 0.3,
		TruncateAt:    500,
		PreviewAt:     100,
	}
}

// Fallback produces degraded results when no parser can serve an element
// or the selected parser fails. Every strategy yields a successful result
// at low confidence; the caller surfaces the degradation through the
// recorded strategy name.
type Fallback struct {
	config FallbackConfig
}

// NewFallback creates a fallback handler with default configuration.
func NewFallback() *Fallback {
	return NewFallbackWithConfig(DefaultFallbackConfig())
}

// NewFallbackWithConfig creates a fallback handler with custom configuration.
func NewFallbackWithConfig(config FallbackConfig) *Fallback {
	def := DefaultFallbackConfig()
	if config.MaxConfidence <= 0 {
		config.MaxConfidence = def.MaxConfidence
	}
	if config.TruncateAt <= 0 {
		config.TruncateAt = def.TruncateAt
	}
	if config.PreviewAt <= 0 {
		config.PreviewAt = def.PreviewAt
	}
	return &Fallback{config: config}
}

// Handle produces a degraded result for the element. The cause, when
// non-nil, is recorded as a warning.
func (f *Fallback) Handle(el *model.Element, reason FallbackReason, cause error) (*model.ParserResult, error) {
	if el == nil {
		return nil, fmt.Errorf("fallback: nil element")
	}

	var res *model.ParserResult
	switch reason {
	case ReasonTimeout:
		res = f.truncated(el)
	case ReasonError:
		res = f.summary(el)
	default:
		res = f.plainText(el)
	}

	res.Metadata.Confidence = model.ClampConfidence(min(res.Metadata.Confidence, f.config.MaxConfidence))
	if cause != nil {
		res.AddWarning(fmt.Sprintf("fallback after %s: %v", reason, cause))
	}
	return res, nil
}

// plainText serves elements no parser accepted: the raw text plus a
// keyword-based guess at what the content looks like.
func (f *Fallback) plainText(el *model.Element) *model.ParserResult {
	kind, conf := classifyContent(el.Text)
	return &model.ParserResult{
		Success:          true,
		ExtractedContent: el.Text,
		Data: map[string]any{
			"fallback_strategy": "plain_text",
			"detected_kind":     kind,
			"text_length":       len([]rune(el.Text)),
		},
		Metadata: model.ResultMetadata{Confidence: conf},
	}
}

// truncated serves timed-out parses: a bounded prefix flagged as such.
func (f *Fallback) truncated(el *model.Element) *model.ParserResult {
	text := el.Text
	runes := []rune(text)
	truncatedFlag := false
	if len(runes) > f.config.TruncateAt {
		text = string(runes[:f.config.TruncateAt])
		truncatedFlag = true
	}
	return &model.ParserResult{
		Success:          true,
		ExtractedContent: text,
		Data: map[string]any{
			"fallback_strategy": "truncated_text",
			"truncated":         truncatedFlag,
			"original_length":   len(runes),
		},
		Metadata: model.ResultMetadata{Confidence: 0.2},
	}
}

// summary serves generic failures: a safe description of the element
// without attempting any structural interpretation.
func (f *Fallback) summary(el *model.Element) *model.ParserResult {
	runes := []rune(el.Text)
	preview := string(runes[:min(len(runes), f.config.PreviewAt)])
	return &model.ParserResult{
		Success:          true,
		ExtractedContent: preview,
		Data: map[string]any{
			"fallback_strategy": "summary",
			"element_type":      el.Type.String(),
			"text_length":       len(runes),
			"preview":           preview,
		},
		Metadata: model.ResultMetadata{Confidence: 0.1},
	}
}

var (
	listItemRe    = regexp.MustCompile(`^\s*([-*•]|\d{1,3}[.)])\s+`)
	codeTokenRe   = regexp.MustCompile(`\b(func|def|var|class|import|return|package|const)\b|[{};]|=>`)
	formulaCueRe  = regexp.MustCompile(`\\[a-zA-Z]+|[∑∏∫√≤≥≠±×÷^]|\b\w+\s*=\s*[^=\s]`)
	tableBorderRe = regexp.MustCompile(`^\s*[|+][-+|= ]*$`)
)

// classifyContent guesses what unrecognized text looks like from cheap
// cues. The guess never exceeds fallback-grade confidence.
func classifyContent(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "empty", 0.1
	}
	lines := strings.Split(trimmed, "\n")

	piped, listed, bordered := 0, 0, 0
	for _, line := range lines {
		if strings.Contains(line, "|") || strings.Count(line, "\t") >= 2 {
			piped++
		}
		if listItemRe.MatchString(line) {
			listed++
		}
		if tableBorderRe.MatchString(line) {
			bordered++
		}
	}

	switch {
	case piped >= 2 || (piped >= 1 && bordered >= 1):
		return "table", 0.3
	case listed >= 2:
		return "list", 0.3
	case codeTokenRe.MatchString(trimmed) && len(lines) > 1:
		return "code", 0.25
	case formulaCueRe.MatchString(trimmed) && len(lines) == 1:
		return "formula", 0.25
	}
	return "text", 0.15
}
