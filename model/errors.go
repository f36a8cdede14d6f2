package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for failure categories that carry no extra context.
var (
	// ErrCache indicates a cache storage or lookup failure.
	ErrCache = errors.New("cache error")

	// ErrMonitoring indicates a metrics recording failure.
	ErrMonitoring = errors.New("monitoring error")
)

// ParserError wraps any failure raised inside a parser, attaching the
// parser name and the element type being parsed.
type ParserError struct {
	Parser      string
	ElementType ElementType
	Err         error
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("parser %s (%s element): %v", e.Parser, e.ElementType, e.Err)
}

func (e *ParserError) Unwrap() error { return e.Err }

// WrapParserError wraps err in a ParserError unless it already is one.
func WrapParserError(parser string, et ElementType, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParserError
	if errors.As(err, &pe) {
		return err
	}
	return &ParserError{Parser: parser, ElementType: et, Err: err}
}

// UnsupportedElementError reports that no registered parser can handle
// an element.
type UnsupportedElementError struct {
	ElementID   string
	ElementType ElementType
}

func (e *UnsupportedElementError) Error() string {
	return fmt.Sprintf("no parser for element %q of type %s", e.ElementID, e.ElementType)
}

// TimeoutError reports that a parse exceeded its allotted time.
type TimeoutError struct {
	Parser  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("parser %s timed out after %s", e.Parser, e.Timeout)
}

// MemoryLimitError reports that an input exceeds a parser's size limit.
type MemoryLimitError struct {
	Parser string
	Size   int
	Limit  int
}

func (e *MemoryLimitError) Error() string {
	return fmt.Sprintf("parser %s: input size %d exceeds limit %d", e.Parser, e.Size, e.Limit)
}

// LanguageDetectionError reports that language detection could not run.
type LanguageDetectionError struct {
	Reason string
}

func (e *LanguageDetectionError) Error() string {
	return "language detection: " + e.Reason
}

// SyntaxValidationError reports a syntax problem found in a code block.
type SyntaxValidationError struct {
	Language string
	Detail   string
}

func (e *SyntaxValidationError) Error() string {
	return fmt.Sprintf("syntax validation (%s): %s", e.Language, e.Detail)
}

// StructureExtractionError reports that an analyzer could not build a
// structure from the element text.
type StructureExtractionError struct {
	Analyzer string
	Reason   string
}

func (e *StructureExtractionError) Error() string {
	return fmt.Sprintf("%s: could not extract structure: %s", e.Analyzer, e.Reason)
}

// ValidationError reports that post-hoc result validation failed.
type ValidationError struct {
	Findings []string
}

func (e *ValidationError) Error() string {
	if len(e.Findings) == 0 {
		return "result validation failed"
	}
	return fmt.Sprintf("result validation failed: %s", e.Findings[0])
}
