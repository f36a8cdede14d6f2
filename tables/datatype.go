package tables

import (
	"regexp"
	"strings"
)

// typePattern is one weighted classification rule.
type typePattern struct {
	name    string
	re      *regexp.Regexp
	weight  float64
}

// Raw type patterns in priority order. More specific patterns carry higher
// weight so that, for example, a percentage is not classified as a float.
var typePatterns = []typePattern{
	{"percentage", regexp.MustCompile(`^[+-]?\d+(\.\d+)?\s*%$`), 1.2},
	{"currency", regexp.MustCompile(`^[$€£¥]\s*\d{1,3}(,\d{3})*(\.\d+)?$|^\d{1,3}(,\d{3})*(\.\d+)?\s*[$€£¥]$`), 1.2},
	{"date_iso", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), 1.1},
	{"date_us", regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`), 1.1},
	{"date_long", regexp.MustCompile(`^\d{1,2}\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}$`), 1.1},
	{"time", regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?\s*([AaPp][Mm])?$`), 1.1},
	{"email", regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`), 1.1},
	{"phone", regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`), 0.8},
	{"url", regexp.MustCompile(`^(https?://|www\.)\S+$`), 1.1},
	{"boolean", regexp.MustCompile(`^(?i)(true|false|yes|no|y|n|on|off)$`), 1.0},
	{"float", regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})*\.\d+$|^[+-]?\d*\.\d+$`), 1.0},
	{"integer", regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})*$|^[+-]?\d+$`), 1.0},
}

// canonicalTypes maps raw pattern names to the small canonical type set
// exposed on TableCell.DataType and TableStructure.ColumnTypes.
var canonicalTypes = map[string]string{
	"integer":    "number",
	"float":      "number",
	"percentage": "percentage",
	"currency":   "currency",
	"date_iso":   "date",
	"date_us":    "date",
	"date_long":  "date",
	"time":       "time",
	"email":      "email",
	"phone":      "phone",
	"url":        "url",
	"boolean":    "boolean",
}

// Canonical maps a raw type name to its canonical form; unknown names
// canonicalize to "text".
func Canonical(raw string) string {
	if c, ok := canonicalTypes[raw]; ok {
		return c
	}
	return "text"
}

// DataTyper classifies cell values and whole columns.
type DataTyper struct {
	config Config
}

// NewDataTyper creates a typer with default configuration.
func NewDataTyper() *DataTyper {
	return NewDataTyperWithConfig(DefaultConfig())
}

// NewDataTyperWithConfig creates a typer with custom configuration.
func NewDataTyperWithConfig(config Config) *DataTyper {
	return &DataTyper{config: config}
}

// ClassifyValue returns the raw type name and match weight for one value.
// Empty values and values matching nothing classify as "text".
func (dt *DataTyper) ClassifyValue(value string) (string, float64) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "text", 0
	}
	for _, p := range typePatterns {
		if p.re.MatchString(value) {
			// The phone pattern is loose; require at least 7 digits so
			// short integers are not swallowed.
			if p.name == "phone" && countDigits(value) < 7 {
				continue
			}
			return p.name, p.weight
		}
	}
	return "text", 0
}

// ClassifyColumn infers the dominant raw type for a column. A type is
// assigned when its weighted share of non-empty values reaches the
// configured threshold; mixed integer/float columns prefer float when the
// float share is a meaningful minority. Returns ("text", quality) when no
// type dominates.
func (dt *DataTyper) ClassifyColumn(values []string) (string, float64) {
	scores := make(map[string]float64)
	counts := make(map[string]int)
	nonEmpty := 0

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		nonEmpty++
		name, weight := dt.ClassifyValue(v)
		scores[name] += weight
		counts[name]++
	}
	if nonEmpty == 0 {
		return "text", 0
	}

	// Integer and float jointly form a numeric column; prefer float when
	// floats are a meaningful minority of the numeric values.
	intShare := float64(counts["integer"]) / float64(nonEmpty)
	floatShare := float64(counts["float"]) / float64(nonEmpty)
	if intShare+floatShare >= dt.config.TypeThreshold && floatShare >= dt.config.FloatMinorityShare {
		return "float", intShare + floatShare
	}

	bestName := "text"
	bestCount := 0
	for name, c := range counts {
		if name == "text" {
			continue
		}
		if c > bestCount || (c == bestCount && scores[name] > scores[bestName]) {
			bestName = name
			bestCount = c
		}
	}

	share := float64(bestCount) / float64(nonEmpty)
	if bestName != "text" && share >= dt.config.TypeThreshold {
		return bestName, share
	}
	return "text", share
}

// TypeColumns infers the canonical type of every column in a matrix of
// body rows, returning the canonical names and a coverage score: the
// fraction of columns that received a non-text type.
func (dt *DataTyper) TypeColumns(rows [][]string) ([]string, float64) {
	if len(rows) == 0 {
		return nil, 0
	}
	cols := len(rows[0])
	types := make([]string, cols)
	typed := 0

	for c := 0; c < cols; c++ {
		var col []string
		for _, row := range rows {
			if c < len(row) {
				col = append(col, row[c])
			}
		}
		raw, _ := dt.ClassifyColumn(col)
		types[c] = Canonical(raw)
		if types[c] != "text" {
			typed++
		}
	}

	coverage := 0.0
	if cols > 0 {
		coverage = float64(typed) / float64(cols)
	}
	return types, coverage
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
