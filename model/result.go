package model

import "time"

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ResultMetadata describes how a result was produced.
type ResultMetadata struct {
	// Confidence is the parser's self-assessed reliability, in [0, 1].
	Confidence float64 `json:"confidence"`

	// ParserName and ParserVersion identify the producing parser.
	ParserName    string `json:"parser_name,omitempty"`
	ParserVersion string `json:"parser_version,omitempty"`

	// Duration is the wall-clock time spent in Parse.
	Duration time.Duration `json:"duration_ns"`

	// MemoryBytes is the approximate heap growth during Parse.
	MemoryBytes int64 `json:"memory_bytes,omitempty"`

	// Warnings are non-fatal findings raised during parsing.
	Warnings []string `json:"warnings,omitempty"`

	// ValidationScore summarizes structural validation, in [0, 1].
	ValidationScore float64 `json:"validation_score"`
}

// ParserResult is the outcome of parsing one element. It is immutable once
// produced; consumers must not modify the contained maps.
type ParserResult struct {
	// Success is false when the parser completed but could not produce a
	// trustworthy structure (low confidence, failed validation).
	Success bool `json:"success"`

	// Data is the semantic payload, keyed per parser.
	Data map[string]any `json:"data,omitempty"`

	// Metadata describes the parse itself.
	Metadata ResultMetadata `json:"metadata"`

	// ValidationErrors lists structural problems found after parsing.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// ExtractedContent is a plain-text projection of the element.
	ExtractedContent string `json:"extracted_content,omitempty"`

	// StructuredData is the typed structure (TableStructure, ListStructure,
	// CodeStructure, FormulaStructure or an image analysis record).
	StructuredData any `json:"structured_data,omitempty"`

	// ExportFormats maps format name to a rendering of the structure.
	ExportFormats map[string]string `json:"export_formats,omitempty"`
}

// AddWarning appends a warning to the result metadata.
func (r *ParserResult) AddWarning(w string) {
	r.Metadata.Warnings = append(r.Metadata.Warnings, w)
}

// ParseRequest is a transient envelope for one parse call.
type ParseRequest struct {
	Element  *Element
	Hints    *ProcessingHints
	Timeout  time.Duration
	UseCache bool
	Priority Priority
}

// ParseResponse is the manager-facing envelope for one parse outcome.
// The manager never raises: every call yields a response with Success and
// either a Result or a human-readable Error.
type ParseResponse struct {
	// RequestID identifies the request for correlation with logs/metrics.
	RequestID string `json:"request_id"`

	Success bool          `json:"success"`
	Result  *ParserResult `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`

	// Duration is the end-to-end time including cache lookup and fallback.
	Duration time.Duration `json:"duration_ns"`

	// CacheHit is true when the result was served from the cache.
	CacheHit bool `json:"cache_hit"`

	// ParserUsed names the parser that produced the result, or
	// "fallback" when a degraded strategy served the request.
	ParserUsed string `json:"parser_used,omitempty"`
}
