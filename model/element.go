package model

import "strings"

// ElementType represents the type of a document element.
type ElementType int

const (
	ElementTypeUnknown ElementType = iota
	ElementTypeText
	ElementTypeHeading
	ElementTypeParagraph
	ElementTypeTable
	ElementTypeList
	ElementTypeCodeBlock
	ElementTypeFormula
	ElementTypeImage
	ElementTypeFigure
	ElementTypeCaption
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeText:
		return "text"
	case ElementTypeHeading:
		return "heading"
	case ElementTypeParagraph:
		return "paragraph"
	case ElementTypeTable:
		return "table"
	case ElementTypeList:
		return "list"
	case ElementTypeCodeBlock:
		return "code_block"
	case ElementTypeFormula:
		return "formula"
	case ElementTypeImage:
		return "image"
	case ElementTypeFigure:
		return "figure"
	case ElementTypeCaption:
		return "caption"
	default:
		return "unknown"
	}
}

// ParseElementType maps an upstream type tag to an ElementType.
// Unrecognized tags map to ElementTypeUnknown; callers decide whether
// to fall back to content-based detection.
func ParseElementType(tag string) ElementType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "text", "plain", "plaintext":
		return ElementTypeText
	case "heading", "header", "title":
		return ElementTypeHeading
	case "paragraph", "para":
		return ElementTypeParagraph
	case "table", "tabular":
		return ElementTypeTable
	case "list", "bulletlist", "numberedlist":
		return ElementTypeList
	case "code", "code_block", "codeblock", "source":
		return ElementTypeCodeBlock
	case "formula", "equation", "math":
		return ElementTypeFormula
	case "image", "picture", "photo":
		return ElementTypeImage
	case "figure":
		return ElementTypeFigure
	case "caption":
		return ElementTypeCaption
	default:
		return ElementTypeUnknown
	}
}

// Element is one unit of document content produced by the upstream
// ingestion pipeline. It is a read-only input: parsers never mutate it.
//
// Metadata keys are opportunistic; any subset may be absent. Keys used by
// the built-in parsers include width/height/format/file_size/dpi,
// caption/alt_text/title/description/figure_number/source,
// image_path/file_path/url/src and filename.
type Element struct {
	// ID identifies the element within its source document.
	ID string

	// Type is the declared element type.
	Type ElementType

	// RawType preserves the upstream type tag verbatim.
	RawType string

	// Text is the element's raw text content, if any.
	Text string

	// Metadata is a free-form map supplied by the ingestion layer.
	Metadata map[string]any
}

// HasText reports whether the element carries non-blank text.
func (e *Element) HasText() bool {
	return e != nil && strings.TrimSpace(e.Text) != ""
}

// MetaString returns a string metadata value, or "" when the key is absent
// or not a string.
func (e *Element) MetaString(key string) string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	if s, ok := e.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// MetaFloat returns a numeric metadata value as float64. Integer and float
// values are both accepted; anything else yields (0, false).
func (e *Element) MetaFloat(key string) (float64, bool) {
	if e == nil || e.Metadata == nil {
		return 0, false
	}
	switch v := e.Metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// MetaInt returns an integer metadata value. Float values with no
// fractional part are accepted.
func (e *Element) MetaInt(key string) (int, bool) {
	f, ok := e.MetaFloat(key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
