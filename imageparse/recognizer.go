package imageparse

import "context"

// OCRResult is the outcome of text recognition on an image.
type OCRResult struct {
	// Text is the recognized text, whitespace-trimmed.
	Text string

	// Confidence is the recognizer's own confidence in [0, 1].
	Confidence float64

	// Language is the recognition language that was configured.
	Language string
}

// TextRecognizer extracts text from image bytes. Implementations must be
// safe for sequential reuse; Close releases engine resources.
type TextRecognizer interface {
	Recognize(ctx context.Context, imageData []byte) (OCRResult, error)
	SetLanguage(lang string) error
	Close() error
}
