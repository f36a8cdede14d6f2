//go:build !ocr

package imageparse

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when OCR is invoked but support was not
// compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// OCRClient is the stub used when the "ocr" build tag is not set. All
// operations return ErrOCRNotEnabled.
type OCRClient struct{}

// NewOCRClient returns the stub client. Creation succeeds so callers can
// defer the error to recognition time.
func NewOCRClient() (*OCRClient, error) {
	return &OCRClient{}, nil
}

// Recognize implements TextRecognizer.
func (c *OCRClient) Recognize(ctx context.Context, imageData []byte) (OCRResult, error) {
	return OCRResult{}, ErrOCRNotEnabled
}

// SetLanguage implements TextRecognizer.
func (c *OCRClient) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

// Close implements TextRecognizer.
func (c *OCRClient) Close() error { return nil }
