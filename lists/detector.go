package lists

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/docparse/model"
)

// Config holds tunables for list detection.
type Config struct {
	// MaxDepth is the deepest hierarchy level accepted before the
	// validator reports an over-depth finding.
	MaxDepth int

	// MinConfidence is the overall confidence below which the parser
	// reports the result as unsuccessful.
	MinConfidence float64
}

// DefaultConfig returns the default list detection configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      6,
		MinConfidence: 0.3,
	}
}

// markerPattern matches one list marker family. Patterns are tried in
// order; the first match classifies the line.
type markerPattern struct {
	name     string
	itemType model.ListItemType
	re       *regexp.Regexp
	number   func(match string) int
}

var markerPatterns = []markerPattern{
	{
		name:     "numeric",
		itemType: model.ListItemOrdered,
		re:       regexp.MustCompile(`^(\d+)[.)]\s+`),
		number: func(m string) int {
			n, _ := strconv.Atoi(m)
			return n
		},
	},
	{
		name:     "alpha-lower",
		itemType: model.ListItemOrdered,
		re:       regexp.MustCompile(`^([a-z])[.)]\s+`),
		number:   letterToNumber,
	},
	{
		name:     "alpha-upper",
		itemType: model.ListItemOrdered,
		re:       regexp.MustCompile(`^([A-Z])[.)]\s+`),
		number:   letterToNumber,
	},
	{
		name:     "roman-lower",
		itemType: model.ListItemOrdered,
		re:       regexp.MustCompile(`^([ivxlcdm]+)[.)]\s+`),
		number:   romanToNumber,
	},
	{
		name:     "roman-upper",
		itemType: model.ListItemOrdered,
		re:       regexp.MustCompile(`^([IVXLCDM]+)[.)]\s+`),
		number:   romanToNumber,
	},
	{
		name:     "bullet",
		itemType: model.ListItemUnordered,
		re:       regexp.MustCompile(`^([-*+•◦▪‣●○➤→])\s+`),
	},
	{
		name:     "definition",
		itemType: model.ListItemDefinition,
		re:       regexp.MustCompile(`^([^:\s][^:]{0,79}):\s+\S`),
	},
}

// letterToNumber maps a/A to 1, b/B to 2 and so on.
func letterToNumber(s string) int {
	if s == "" {
		return 0
	}
	r := rune(strings.ToLower(s)[0])
	if r < 'a' || r > 'z' {
		return 0
	}
	return int(r-'a') + 1
}

// romanToNumber converts a roman numeral, case-insensitively.
func romanToNumber(s string) int {
	values := map[rune]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}
	s = strings.ToLower(s)
	result := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		val := values[rune(s[i])]
		if val < prev {
			result -= val
		} else {
			result += val
		}
		prev = val
	}
	return result
}

// rawItem is one detected line before hierarchy building.
type rawItem struct {
	content  string
	marker   string
	pattern  string
	itemType model.ListItemType
	number   int
	indent   int
	level    int
}

// Detector parses raw list text into a ListStructure.
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Detection is the outcome of list detection.
type Detection struct {
	Structure *model.ListStructure

	// MarkerCoverage is the fraction of lines that carried a recognized
	// list marker (the plain fallback excluded).
	MarkerCoverage float64

	// Findings are hierarchy validation findings.
	Findings []string
}

// Detect analyzes list text. Returns a StructureExtractionError only when
// the text contains no usable lines at all.
func (d *Detector) Detect(text string) (*Detection, error) {
	lines := strings.Split(text, "\n")

	var items []rawItem
	marked := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item := d.classifyLine(line)
		if item.pattern != "plain" {
			marked++
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, &model.StructureExtractionError{Analyzer: "lists", Reason: "no content lines"}
	}

	reclassifyRomanRuns(items)
	assignLevels(items)

	structure := d.buildStructure(items)
	findings := d.ValidateHierarchy(items)

	return &Detection{
		Structure:      structure,
		MarkerCoverage: float64(marked) / float64(len(items)),
		Findings:       findings,
	}, nil
}

// classifyLine matches one line against the marker patterns in order.
func (d *Detector) classifyLine(line string) rawItem {
	indent := leadingIndent(line)
	body := strings.TrimLeft(line, " \t")

	for _, p := range markerPatterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		item := rawItem{
			marker:   strings.TrimSpace(m[0]),
			pattern:  p.name,
			itemType: p.itemType,
			indent:   indent,
		}
		if p.itemType == model.ListItemDefinition {
			// Keep the full "term: definition" text as content; the term
			// is recorded as the marker.
			item.marker = m[1]
			item.content = strings.TrimSpace(body)
		} else {
			item.content = strings.TrimSpace(body[len(m[0]):])
		}
		if p.number != nil {
			item.number = p.number(m[1])
		}
		return item
	}

	return rawItem{
		content:  strings.TrimSpace(body),
		pattern:  "plain",
		itemType: model.ListItemPlain,
		indent:   indent,
	}
}

// markerLetters strips the trailing punctuation from a marker, leaving
// the letter body ("ii." -> "ii").
func markerLetters(marker string) string {
	return strings.TrimRight(marker, ".)")
}

// reclassifyRomanRuns revisits ambiguous single-letter markers. The alpha
// patterns win ties for letters like "i" or "v", but inside a run that
// already carries an unambiguous roman marker ("ii", "iv") those single
// letters are roman numerals too, so "i. / ii. / iii." numbers 1, 2, 3
// rather than 9, 2, 3.
func reclassifyRomanRuns(items []rawItem) {
	families := []struct{ alpha, roman string }{
		{"alpha-lower", "roman-lower"},
		{"alpha-upper", "roman-upper"},
	}
	for _, fam := range families {
		start := 0
		for start < len(items) {
			if items[start].pattern != fam.alpha && items[start].pattern != fam.roman {
				start++
				continue
			}
			end := start
			for end < len(items) && items[end].indent == items[start].indent &&
				(items[end].pattern == fam.alpha || items[end].pattern == fam.roman) {
				end++
			}
			run := items[start:end]
			if runIsRoman(run, fam.roman) {
				for i := range run {
					if run[i].pattern == fam.alpha {
						run[i].pattern = fam.roman
						run[i].number = romanToNumber(markerLetters(run[i].marker))
					}
				}
			}
			start = end
		}
	}
}

// runIsRoman reports whether a run of same-indent ordered items is
// roman-consistent: at least one marker is already classified roman, and
// every remaining single-letter marker uses a roman numeral letter.
func runIsRoman(run []rawItem, romanName string) bool {
	hasRoman := false
	for _, it := range run {
		if it.pattern == romanName {
			hasRoman = true
			continue
		}
		letters := markerLetters(it.marker)
		if letters == "" || !strings.ContainsRune("ivxlcdmIVXLCDM", rune(letters[0])) {
			return false
		}
	}
	return hasRoman
}

// leadingIndent measures leading whitespace, counting tabs as 4 columns.
func leadingIndent(line string) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 4
		default:
			return indent
		}
	}
	return indent
}

// assignLevels deduplicates the observed indent widths and maps each item
// to the rank of its indent, so levels reflect relative nesting rather
// than raw column counts.
func assignLevels(items []rawItem) {
	seen := make(map[int]bool)
	for _, it := range items {
		seen[it.indent] = true
	}
	indents := make([]int, 0, len(seen))
	for ind := range seen {
		indents = append(indents, ind)
	}
	sort.Ints(indents)

	rank := make(map[int]int, len(indents))
	for i, ind := range indents {
		rank[ind] = i
	}
	for i := range items {
		items[i].level = rank[items[i].indent]
	}
}

// buildStructure converts flat leveled items into a nested tree using a
// parent stack. Items deeper than any available parent attach to the
// nearest existing ancestor.
func (d *Detector) buildStructure(items []rawItem) *model.ListStructure {
	var roots []*model.ListItem
	var stack []*model.ListItem

	maxDepth := 0
	for _, raw := range items {
		node := &model.ListItem{
			Content:  raw.content,
			Level:    raw.level,
			ItemType: raw.itemType,
			Number:   raw.number,
			Metadata: map[string]any{
				"marker":  raw.marker,
				"pattern": raw.pattern,
				"indent":  raw.indent,
			},
		}
		if raw.level > maxDepth {
			maxDepth = raw.level
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= raw.level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}

	structure := &model.ListStructure{
		Items:      roots,
		MaxDepth:   maxDepth,
		TotalItems: len(items),
	}
	structure.ListType, structure.HasMixedContent = overallType(items)
	return structure
}

// overallType reports the shared item type, or "mixed".
func overallType(items []rawItem) (string, bool) {
	if len(items) == 0 {
		return "mixed", false
	}
	first := items[0].itemType
	for _, it := range items[1:] {
		if it.itemType != first {
			return "mixed", true
		}
	}
	switch first {
	case model.ListItemOrdered:
		return "ordered", false
	case model.ListItemUnordered:
		return "unordered", false
	case model.ListItemDefinition:
		return "definition", false
	default:
		return "plain", false
	}
}

// ValidateHierarchy reports violations without repairing them: level
// jumps greater than one step, empty content and over-deep nesting.
func (d *Detector) ValidateHierarchy(items []rawItem) []string {
	var findings []string
	prevLevel := 0
	for i, it := range items {
		if i > 0 && it.level > prevLevel+1 {
			findings = append(findings, fmt.Sprintf("item %d jumps from level %d to %d", i, prevLevel, it.level))
		}
		if strings.TrimSpace(it.content) == "" {
			findings = append(findings, fmt.Sprintf("item %d has empty content", i))
		}
		if it.level > d.config.MaxDepth {
			findings = append(findings, fmt.Sprintf("item %d at level %d exceeds maximum depth %d", i, it.level, d.config.MaxDepth))
		}
		prevLevel = it.level
	}
	return findings
}
