package imageparse

import (
	"path"
	"strings"

	"github.com/tsawler/docparse/model"
)

// ImageType classifies what an image depicts.
type ImageType int

const (
	ImageTypeUnknown ImageType = iota
	ImageTypePhoto
	ImageTypeChart
	ImageTypeDiagram
	ImageTypeScreenshot
	ImageTypeFormula
	ImageTypeTable
	ImageTypeFlowchart
	ImageTypeSchematic
	ImageTypeLogo
)

func (t ImageType) String() string {
	switch t {
	case ImageTypePhoto:
		return "photo"
	case ImageTypeChart:
		return "chart"
	case ImageTypeDiagram:
		return "diagram"
	case ImageTypeScreenshot:
		return "screenshot"
	case ImageTypeFormula:
		return "formula"
	case ImageTypeTable:
		return "table"
	case ImageTypeFlowchart:
		return "flowchart"
	case ImageTypeSchematic:
		return "schematic"
	case ImageTypeLogo:
		return "logo"
	default:
		return "unknown"
	}
}

// specificTypes get a confidence boost: their keyword evidence is
// rarely incidental.
var specificTypes = map[ImageType]bool{
	ImageTypeFormula:   true,
	ImageTypeTable:     true,
	ImageTypeFlowchart: true,
	ImageTypeSchematic: true,
}

// typeKeywords maps evidence keywords to image types, checked in order
// so that the more specific phrase wins ("flowchart" before "chart").
var typeKeywords = []struct {
	word string
	t    ImageType
}{
	{"flowchart", ImageTypeFlowchart},
	{"flow chart", ImageTypeFlowchart},
	{"flow diagram", ImageTypeFlowchart},
	{"schematic", ImageTypeSchematic},
	{"circuit", ImageTypeSchematic},
	{"screenshot", ImageTypeScreenshot},
	{"screen shot", ImageTypeScreenshot},
	{"formula", ImageTypeFormula},
	{"equation", ImageTypeFormula},
	{"table", ImageTypeTable},
	{"chart", ImageTypeChart},
	{"graph", ImageTypeChart},
	{"plot", ImageTypeChart},
	{"histogram", ImageTypeChart},
	{"diagram", ImageTypeDiagram},
	{"architecture", ImageTypeDiagram},
	{"logo", ImageTypeLogo},
	{"icon", ImageTypeLogo},
	{"photo", ImageTypePhoto},
	{"picture", ImageTypePhoto},
	{"photograph", ImageTypePhoto},
}

// pathKeys are metadata keys that may carry a file path or URL.
var pathKeys = []string{"image_path", "file_path", "url", "src", "filename"}

// textFieldKeys are metadata keys carrying descriptive text.
var textFieldKeys = []string{"caption", "alt_text", "title", "description"}

// Classification is the outcome of image type classification.
type Classification struct {
	Type       ImageType
	Confidence float64

	// Votes holds the per-type vote counts from all sources.
	Votes map[ImageType]int

	// Sources names the hint sources that produced at least one vote.
	Sources []string
}

// Classifier infers an image's type by voting across metadata text
// fields, the filename, associated text content, and raw dimensions.
type Classifier struct{}

// NewClassifier creates an image classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify votes across the four hint sources and picks the plurality
// type. Vote consistency and hint volume drive the confidence.
func (c *Classifier) Classify(el *model.Element) Classification {
	votes := make(map[ImageType]int)
	var sources []string

	if n := c.voteTextFields(el, votes); n > 0 {
		sources = append(sources, "metadata")
	}
	if n := c.voteFilename(el, votes); n > 0 {
		sources = append(sources, "filename")
	}
	if n := c.voteContent(el, votes); n > 0 {
		sources = append(sources, "content")
	}
	if n := c.voteDimensions(el, votes); n > 0 {
		sources = append(sources, "dimensions")
	}

	winner := ImageTypeUnknown
	best, total := 0, 0
	for t, n := range votes {
		total += n
		if n > best || (n == best && t < winner) {
			winner = t
			best = n
		}
	}
	if total == 0 {
		return Classification{Type: ImageTypeUnknown, Confidence: 0.1, Votes: votes}
	}

	consistency := float64(best) / float64(total)
	volume := 0.1 * float64(len(sources))
	confidence := 0.3 + 0.4*consistency + volume
	if specificTypes[winner] {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return Classification{Type: winner, Confidence: confidence, Votes: votes, Sources: sources}
}

// voteTextFields scans caption, alt text, title and description.
func (c *Classifier) voteTextFields(el *model.Element, votes map[ImageType]int) int {
	n := 0
	for _, key := range textFieldKeys {
		if text := el.MetaString(key); text != "" {
			n += voteKeywords(text, votes)
		}
	}
	return n
}

// voteFilename scans the basename of any path-like metadata value.
func (c *Classifier) voteFilename(el *model.Element, votes map[ImageType]int) int {
	n := 0
	for _, key := range pathKeys {
		if p := el.MetaString(key); p != "" {
			n += voteKeywords(path.Base(p), votes)
		}
	}
	return n
}

// voteContent scans the element's associated text.
func (c *Classifier) voteContent(el *model.Element, votes map[ImageType]int) int {
	if !el.HasText() {
		return 0
	}
	return voteKeywords(el.Text, votes)
}

// voteDimensions votes from width/height shape heuristics.
func (c *Classifier) voteDimensions(el *model.Element, votes map[ImageType]int) int {
	width, wok := el.MetaInt("width")
	height, hok := el.MetaInt("height")
	if !wok || !hok || width <= 0 || height <= 0 {
		return 0
	}

	ratio := float64(width) / float64(height)
	switch {
	case width <= 256 && height <= 256 && ratio > 0.8 && ratio < 1.25:
		votes[ImageTypeLogo]++
	case ratio > 2.5:
		votes[ImageTypeChart]++
	case width >= 1024 && ratio > 1.3 && ratio < 2.0:
		votes[ImageTypeScreenshot]++
	default:
		votes[ImageTypePhoto]++
	}
	return 1
}

// voteKeywords adds one vote for the first keyword found in the text.
func voteKeywords(text string, votes map[ImageType]int) int {
	lower := strings.ToLower(text)
	for _, kw := range typeKeywords {
		if strings.Contains(lower, kw.word) {
			votes[kw.t]++
			return 1
		}
	}
	return 0
}
