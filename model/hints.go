package model

// Priority expresses how urgent a parse request is. It biases the timeout
// applied to the parse, never correctness.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// ProcessingHints carries caller-supplied advisory information. All fields
// are optional; parsers must produce correct output with a zero value.
type ProcessingHints struct {
	// ExpectedType biases parser selection toward parsers registered for
	// this type. ElementTypeUnknown means no expectation.
	ExpectedType ElementType

	// Language is an expected content language (ISO 639-1 code for prose,
	// language name for code).
	Language string

	// Quality describes expected input quality ("low", "medium", "high").
	Quality string

	// Complexity describes expected structural complexity
	// ("simple", "moderate", "complex").
	Complexity string

	// Priority biases the execution timeout.
	Priority Priority

	// Table, Image and Code hold element-family-specific hints
	// (e.g. Table["has_headers"], Image["contains_text"], Code["language"]).
	Table map[string]any
	Image map[string]any
	Code  map[string]any
}

// TableHint returns a table-family hint value, or nil when absent.
func (h *ProcessingHints) TableHint(key string) any {
	if h == nil || h.Table == nil {
		return nil
	}
	return h.Table[key]
}

// ImageHint returns an image-family hint value, or nil when absent.
func (h *ProcessingHints) ImageHint(key string) any {
	if h == nil || h.Image == nil {
		return nil
	}
	return h.Image[key]
}

// CodeHint returns a code-family hint value, or nil when absent.
func (h *ProcessingHints) CodeHint(key string) any {
	if h == nil || h.Code == nil {
		return nil
	}
	return h.Code[key]
}

// ParserCapabilities describes what a parser supports. It is static for the
// lifetime of the parser instance.
type ParserCapabilities struct {
	// ElementTypes lists the element types the parser accepts.
	ElementTypes []ElementType

	// Languages lists supported content languages, empty meaning any.
	Languages []string

	// MaxSizeBytes is the largest input text size accepted; 0 means no limit.
	MaxSizeBytes int

	// Formats lists the export format names the parser can produce.
	Formats []string

	// MinConfidence and MaxConfidence bound the confidence scores the
	// parser reports.
	MinConfidence float64
	MaxConfidence float64
}

// SupportsType reports whether the capabilities include the element type.
func (c ParserCapabilities) SupportsType(et ElementType) bool {
	for _, t := range c.ElementTypes {
		if t == et {
			return true
		}
	}
	return false
}

// SupportsFormat reports whether the capabilities include the export format.
func (c ParserCapabilities) SupportsFormat(name string) bool {
	for _, f := range c.Formats {
		if f == name {
			return true
		}
	}
	return false
}
