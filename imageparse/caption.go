package imageparse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/docparse/model"
)

// Caption is the outcome of caption extraction.
type Caption struct {
	Text         string
	FigureNumber string
	Source       string
	AltText      string
	Title        string
	Confidence   float64
}

// captionFamily is one regex family tried against the associated text,
// in order.
type captionFamily struct {
	name    string
	pattern *regexp.Regexp
}

var captionFamilies = []captionFamily{
	{"figure", regexp.MustCompile(`(?im)^\s*(?:figure|fig\.?)\s*(\d+(?:\.\d+)?)[.:]?\s+(.+)$`)},
	{"image", regexp.MustCompile(`(?im)^\s*(?:image|img\.?|photo)\s*(\d+)[.:]?\s+(.+)$`)},
	{"chart", regexp.MustCompile(`(?im)^\s*(?:chart|graph|diagram)\s*(\d+)[.:]?\s+(.+)$`)},
	{"table", regexp.MustCompile(`(?im)^\s*table\s*(\d+(?:\.\d+)?)[.:]?\s+(.+)$`)},
	{"numbered", regexp.MustCompile(`(?m)^\s*(\d+(?:\.\d+)?)[.:]\s+(\p{Lu}.{10,})$`)},
}

var sourceRe = regexp.MustCompile(`(?im)^\s*(?:source|credit)s?\s*:\s*(.+)$`)

// descriptiveWords mark a sentence as plausibly describing a figure.
var descriptiveWords = []string{
	"shows", "depicts", "illustrates", "displays", "presents",
	"comparison", "overview", "distribution", "example", "structure",
	"relationship", "results",
}

// Extractor pulls captions from element metadata and associated text.
type Extractor struct{}

// NewExtractor creates a caption extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract gathers caption material from metadata fields first, then the
// regex families over the associated text, then a sentence heuristic.
// Markup in any field is stripped.
func (x *Extractor) Extract(el *model.Element) Caption {
	caption := Caption{
		AltText: stripMarkup(el.MetaString("alt_text")),
		Title:   stripMarkup(el.MetaString("title")),
	}
	caption.Text = stripMarkup(el.MetaString("caption"))
	if caption.Text == "" {
		caption.Text = stripMarkup(el.MetaString("description"))
	}
	caption.FigureNumber = el.MetaString("figure_number")
	caption.Source = stripMarkup(el.MetaString("source"))

	text := ""
	if el.HasText() {
		text = stripMarkup(el.Text)
	}

	if caption.Text == "" && text != "" {
		for _, fam := range captionFamilies {
			if m := fam.pattern.FindStringSubmatch(text); m != nil {
				caption.FigureNumber = m[1]
				caption.Text = strings.TrimSpace(m[2])
				break
			}
		}
	}
	if caption.Source == "" && text != "" {
		if m := sourceRe.FindStringSubmatch(text); m != nil {
			caption.Source = strings.TrimSpace(m[1])
		}
	}
	if caption.Text == "" && text != "" {
		caption.Text = descriptiveSentence(text)
	}
	if caption.Text == "" {
		if caption.AltText != "" {
			caption.Text = caption.AltText
		} else if caption.Title != "" {
			caption.Text = caption.Title
		}
	}

	caption.Confidence = captionConfidence(caption)
	return caption
}

// descriptiveSentence returns the first sentence in the 20-300 char
// window containing a descriptive keyword.
func descriptiveSentence(text string) string {
	for _, s := range splitSentences(text) {
		n := len([]rune(s))
		if n < 20 || n > 300 {
			continue
		}
		lower := strings.ToLower(s)
		for _, w := range descriptiveWords {
			if strings.Contains(lower, w) {
				return s
			}
		}
	}
	return ""
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range regexp.MustCompile(`[.!?]\s+|\n+`).Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// captionConfidence aggregates field coverage, figure-number and source
// presence, and caption-text quality.
func captionConfidence(caption Caption) float64 {
	score := 0.0
	if caption.Text != "" {
		score += 0.4
		n := len([]rune(caption.Text))
		if n >= 20 && n <= 300 {
			score += 0.1
		}
	}
	if caption.FigureNumber != "" {
		score += 0.2
	}
	if caption.Source != "" {
		score += 0.1
	}
	if caption.AltText != "" {
		score += 0.1
	}
	if caption.Title != "" {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

// stripMarkup drops any HTML/XML tags, keeping text content.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(sb.String())
}
