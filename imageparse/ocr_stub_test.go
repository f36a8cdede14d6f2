//go:build !ocr

package imageparse

import (
	"context"
	"errors"
	"testing"
)

func TestStubRecognizeReturnsNotEnabled(t *testing.T) {
	c, err := NewOCRClient()
	if err != nil {
		t.Fatalf("stub creation should succeed: %v", err)
	}
	defer c.Close()

	if _, err := c.Recognize(context.Background(), []byte("data")); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Recognize error = %v, want ErrOCRNotEnabled", err)
	}
	if err := c.SetLanguage("eng"); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("SetLanguage error = %v, want ErrOCRNotEnabled", err)
	}
}

func TestStubSatisfiesRecognizer(t *testing.T) {
	var _ TextRecognizer = &OCRClient{}
}
