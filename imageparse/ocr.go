//go:build ocr

package imageparse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/otiai10/gosseract/v2"
)

// OCRClient wraps Tesseract via gosseract. Transient recognition
// failures are retried twice with a fixed delay.
//
// Requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
type OCRClient struct {
	client   *gosseract.Client
	language string
}

// NewOCRClient creates an OCR client with English recognition.
// The client should be closed when no longer needed.
func NewOCRClient() (*OCRClient, error) {
	return &OCRClient{client: gosseract.NewClient(), language: "eng"}, nil
}

// Recognize implements TextRecognizer.
func (c *OCRClient) Recognize(ctx context.Context, imageData []byte) (OCRResult, error) {
	if len(imageData) == 0 {
		return OCRResult{}, fmt.Errorf("empty image data")
	}

	var text string
	err := retry.Do(
		func() error {
			if serr := c.client.SetImageFromBytes(imageData); serr != nil {
				return fmt.Errorf("failed to set image: %w", serr)
			}
			t, terr := c.client.Text()
			if terr != nil {
				return fmt.Errorf("recognition failed: %w", terr)
			}
			text = t
			return nil
		},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return OCRResult{}, err
	}

	text = strings.TrimSpace(text)
	return OCRResult{
		Text:       text,
		Confidence: textConfidence(text),
		Language:   c.language,
	}, nil
}

// SetLanguage implements TextRecognizer. Multiple languages can be
// given "+"-separated (e.g. "eng+fra").
func (c *OCRClient) SetLanguage(lang string) error {
	if err := c.client.SetLanguage(lang); err != nil {
		return err
	}
	c.language = lang
	return nil
}

// Close implements TextRecognizer.
func (c *OCRClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// textConfidence estimates recognition quality from the share of
// word-like tokens in the output.
func textConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	words := strings.Fields(text)
	wordLike := 0
	for _, w := range words {
		letters := 0
		for _, r := range w {
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r >= 0x80 {
				letters++
			}
		}
		if letters*2 >= len([]rune(w)) {
			wordLike++
		}
	}
	if len(words) == 0 {
		return 0.1
	}
	return 0.3 + 0.7*float64(wordLike)/float64(len(words))
}
