package tables

import (
	"regexp"
	"strings"
)

// Config holds tunables for table analysis. The defaults carry over the
// empirically chosen thresholds from production use; they are settings,
// not constants to re-derive.
type Config struct {
	// MaxSampleLines bounds how many lines separator scoring samples.
	MaxSampleLines int

	// MinSeparatorScore is the minimum winning separator score; below it
	// the analyzer falls back to whitespace splitting.
	MinSeparatorScore float64

	// MinHeaderSignal is the minimum strategy confidence for a header
	// detection to fire.
	MinHeaderSignal float64

	// MaxRows and MaxColumns bound accepted table dimensions.
	MaxRows    int
	MaxColumns int

	// MinDataQuality is the minimum non-empty-cell ratio before the
	// validator reports a data-quality finding.
	MinDataQuality float64

	// TypeThreshold is the minimum share of matching values for a column
	// type to be assigned.
	TypeThreshold float64

	// FloatMinorityShare is the float share above which a mixed
	// integer/float column is typed as float rather than integer.
	FloatMinorityShare float64

	// MinConfidence is the overall confidence below which the parser
	// reports the result as unsuccessful.
	MinConfidence float64
}

// DefaultConfig returns the default table analysis configuration.
func DefaultConfig() Config {
	return Config{
		MaxSampleLines:     20,
		MinSeparatorScore:  0.45,
		MinHeaderSignal:    0.5,
		MaxRows:            1000,
		MaxColumns:         100,
		MinDataQuality:     0.25,
		TypeThreshold:      0.6,
		FloatMinorityShare: 0.2,
		MinConfidence:      0.3,
	}
}

// Analysis is the outcome of structural table analysis.
type Analysis struct {
	// Separator names the winning separator (pipe, tab, multispace,
	// comma, whitespace).
	Separator string

	// SeparatorScore is the winning separator's consistency+coverage
	// score, in [0, 1].
	SeparatorScore float64

	// Matrix holds the raw cell text, row-major.
	Matrix [][]string

	// HasHeaders reports whether a header row was detected.
	HasHeaders bool

	// HeaderStrategy names the strategy that fired, empty when none did.
	HeaderStrategy string

	// HeaderConfidence is the firing strategy's confidence, in [0, 1].
	HeaderConfidence float64
}

// Analyzer performs structural analysis of tabular text.
type Analyzer struct {
	config     Config
	strategies []headerStrategy
	typer      *DataTyper
}

// NewAnalyzer creates an analyzer with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration.
func NewAnalyzerWithConfig(config Config) *Analyzer {
	typer := NewDataTyperWithConfig(config)
	return &Analyzer{
		config: config,
		typer:  typer,
		// Evaluation order is observable behavior: formatting, numeric
		// contrast, vocabulary, type contrast. First match wins.
		strategies: []headerStrategy{
			&formattingStrategy{},
			&numericContrastStrategy{},
			&vocabularyStrategy{},
			&typeContrastStrategy{typer: typer},
		},
	}
}

// separator describes one candidate column separator.
type separator struct {
	name  string
	split func(line string) []string
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

func splitPipe(line string) []string {
	parts := strings.Split(line, "|")
	// Pipe tables commonly open and close with a bare pipe; drop the
	// resulting empty edge cells.
	if len(parts) > 1 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	return trimAll(parts)
}

func splitTab(line string) []string   { return trimAll(strings.Split(line, "\t")) }
func splitComma(line string) []string { return trimAll(strings.Split(line, ",")) }

func splitMultiSpace(line string) []string {
	return trimAll(multiSpaceRe.Split(strings.TrimSpace(line), -1))
}

func trimAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

var candidateSeparators = []separator{
	{name: "pipe", split: splitPipe},
	{name: "tab", split: splitTab},
	{name: "multispace", split: splitMultiSpace},
	{name: "comma", split: splitComma},
}

// Analyze performs full structural analysis of tabular text.
func (a *Analyzer) Analyze(text string) *Analysis {
	lines := contentLines(text)
	if len(lines) == 0 {
		return &Analysis{Separator: "whitespace"}
	}

	sep, score := a.detectSeparator(lines)
	matrix := a.parseMatrix(lines, sep)

	analysis := &Analysis{
		Separator:      sep.name,
		SeparatorScore: score,
		Matrix:         matrix,
	}

	if len(matrix) >= 2 {
		for _, strat := range a.strategies {
			fired, conf := strat.detect(matrix, a.config)
			if fired && conf >= a.config.MinHeaderSignal {
				analysis.HasHeaders = true
				analysis.HeaderStrategy = strat.name()
				analysis.HeaderConfidence = conf
				break
			}
		}
	}

	return analysis
}

// contentLines returns non-blank lines, skipping markdown separator rows
// such as |---|---|.
func contentLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isMarkdownRule(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return out
}

var markdownRuleRe = regexp.MustCompile(`^[|\s:+-]+$`)

func isMarkdownRule(line string) bool {
	return strings.Contains(line, "-") && markdownRuleRe.MatchString(line)
}

// detectSeparator scores each candidate by coverage (fraction of lines it
// splits into 2+ cells) and consistency (low variance of the resulting
// column counts) and returns the best one. Falls back to whitespace when
// no candidate clears the configured minimum.
func (a *Analyzer) detectSeparator(lines []string) (separator, float64) {
	sample := lines
	if len(sample) > a.config.MaxSampleLines {
		sample = sample[:a.config.MaxSampleLines]
	}

	best := separator{name: "whitespace", split: splitMultiSpace}
	bestScore := 0.0

	for _, cand := range candidateSeparators {
		var counts []int
		for _, line := range sample {
			if n := len(cand.split(line)); n >= 2 {
				counts = append(counts, n)
			}
		}
		if len(counts) == 0 {
			continue
		}

		coverage := float64(len(counts)) / float64(len(sample))
		consistency := 1.0 - normalizedVariance(counts)
		score := 0.6*coverage + 0.4*consistency

		if score > bestScore {
			best = cand
			bestScore = score
		}
	}

	if bestScore < a.config.MinSeparatorScore {
		return separator{name: "whitespace", split: splitMultiSpace}, bestScore
	}
	return best, bestScore
}

// normalizedVariance returns the variance of counts scaled by the squared
// mean, clamped to [0, 1]. Identical counts yield 0.
func normalizedVariance(counts []int) float64 {
	if len(counts) == 0 {
		return 1
	}
	mean := 0.0
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(len(counts))
	if mean == 0 {
		return 1
	}

	variance := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(counts))

	norm := variance / (mean * mean)
	if norm > 1 {
		norm = 1
	}
	return norm
}

// parseMatrix splits every line with the winning separator, padding short
// rows to the dominant width.
func (a *Analyzer) parseMatrix(lines []string, sep separator) [][]string {
	matrix := make([][]string, 0, len(lines))
	width := 0
	for _, line := range lines {
		cells := sep.split(line)
		if len(cells) > width {
			width = len(cells)
		}
		matrix = append(matrix, cells)
	}
	for i, row := range matrix {
		for len(row) < width {
			row = append(row, "")
		}
		matrix[i] = row
	}
	return matrix
}
