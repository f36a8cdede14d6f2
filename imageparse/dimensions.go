package imageparse

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	// Registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/docparse/model"
)

// Dimensions are an image's probed pixel dimensions and format.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

// probeDimensions resolves the image's dimensions: metadata width/height
// first, then decoding the header of any carried image bytes.
func probeDimensions(el *model.Element) (Dimensions, bool) {
	if w, wok := el.MetaInt("width"); wok {
		if h, hok := el.MetaInt("height"); hok && w > 0 && h > 0 {
			return Dimensions{Width: w, Height: h, Format: el.MetaString("format")}, true
		}
	}
	if data := imageBytes(el); data != nil {
		if config, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			return Dimensions{Width: config.Width, Height: config.Height, Format: format}, true
		}
	}
	return Dimensions{}, false
}

// imageBytes recovers raw image bytes from the metadata: either an
// image_data value ([]byte or base64 string) or a data URI in src.
func imageBytes(el *model.Element) []byte {
	if el == nil || el.Metadata == nil {
		return nil
	}
	switch v := el.Metadata["image_data"].(type) {
	case []byte:
		return v
	case string:
		if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
			return decoded
		}
	}
	if src := el.MetaString("src"); strings.HasPrefix(src, "data:image/") {
		if idx := strings.Index(src, "base64,"); idx >= 0 {
			if decoded, err := base64.StdEncoding.DecodeString(src[idx+len("base64,"):]); err == nil {
				return decoded
			}
		}
	}
	return nil
}
