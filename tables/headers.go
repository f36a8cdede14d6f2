package tables

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// headerStrategy is one header-detection heuristic. Strategies are
// evaluated in a fixed order and the first that fires wins; they are never
// cross-checked against each other.
type headerStrategy interface {
	name() string
	detect(matrix [][]string, cfg Config) (bool, float64)
}

var titleCaser = cases.Title(language.English)

// formattingStrategy fires when the first row is predominantly title-case
// or upper-case text.
type formattingStrategy struct{}

func (s *formattingStrategy) name() string { return "formatting" }

func (s *formattingStrategy) detect(matrix [][]string, cfg Config) (bool, float64) {
	first := matrix[0]
	if len(first) == 0 {
		return false, 0
	}

	formatted := 0
	nonEmpty := 0
	for _, cell := range first {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		nonEmpty++
		if isNumericText(cell) {
			continue
		}
		if cell == strings.ToUpper(cell) && hasLetter(cell) {
			formatted++
			continue
		}
		if cell == titleCaser.String(strings.ToLower(cell)) {
			formatted++
		}
	}
	if nonEmpty == 0 {
		return false, 0
	}

	density := float64(formatted) / float64(nonEmpty)
	if density >= 0.6 {
		return true, density
	}
	return false, 0
}

// numericContrastStrategy fires when the first row is mostly non-numeric
// while the body rows are mostly numeric.
type numericContrastStrategy struct{}

func (s *numericContrastStrategy) name() string { return "numeric-contrast" }

func (s *numericContrastStrategy) detect(matrix [][]string, cfg Config) (bool, float64) {
	firstDensity := numericDensity(matrix[0])
	bodyCells := 0
	bodyNumeric := 0
	for _, row := range matrix[1:] {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			bodyCells++
			if isNumericText(cell) {
				bodyNumeric++
			}
		}
	}
	if bodyCells == 0 {
		return false, 0
	}

	bodyDensity := float64(bodyNumeric) / float64(bodyCells)
	if firstDensity <= 0.2 && bodyDensity >= 0.5 {
		return true, 0.5 + (bodyDensity-firstDensity)/2
	}
	return false, 0
}

// headerVocabulary lists words that commonly appear in header rows.
var headerVocabulary = map[string]bool{
	"name": true, "id": true, "date": true, "time": true, "type": true,
	"value": true, "total": true, "description": true, "count": true,
	"price": true, "amount": true, "status": true, "category": true,
	"year": true, "month": true, "age": true, "title": true, "email": true,
	"phone": true, "address": true, "city": true, "country": true,
	"quantity": true, "number": true, "code": true, "rate": true,
	"percent": true, "score": true, "label": true, "key": true,
}

// vocabularyStrategy fires when at least half of the first-row cells match
// known header words.
type vocabularyStrategy struct{}

func (s *vocabularyStrategy) name() string { return "vocabulary" }

func (s *vocabularyStrategy) detect(matrix [][]string, cfg Config) (bool, float64) {
	first := matrix[0]
	matched := 0
	nonEmpty := 0
	for _, cell := range first {
		cell = strings.ToLower(strings.TrimSpace(cell))
		if cell == "" {
			continue
		}
		nonEmpty++
		for _, word := range strings.Fields(cell) {
			if headerVocabulary[strings.Trim(word, ":#.")] {
				matched++
				break
			}
		}
	}
	if nonEmpty == 0 {
		return false, 0
	}

	share := float64(matched) / float64(nonEmpty)
	if share >= 0.5 {
		return true, 0.5 + share/2
	}
	return false, 0
}

// typeContrastStrategy fires when the inferred data type of the first row
// differs from the body type in at least half of the columns.
type typeContrastStrategy struct {
	typer *DataTyper
}

func (s *typeContrastStrategy) name() string { return "type-contrast" }

func (s *typeContrastStrategy) detect(matrix [][]string, cfg Config) (bool, float64) {
	if len(matrix) < 3 {
		// One body row is not enough signal for a type contrast.
		return false, 0
	}

	cols := len(matrix[0])
	if cols == 0 {
		return false, 0
	}

	differing := 0
	for c := 0; c < cols; c++ {
		firstType, _ := s.typer.ClassifyValue(matrix[0][c])

		var body []string
		for _, row := range matrix[1:] {
			if c < len(row) {
				body = append(body, row[c])
			}
		}
		bodyType, _ := s.typer.ClassifyColumn(body)

		if firstType != bodyType && bodyType != "text" {
			differing++
		}
	}

	share := float64(differing) / float64(cols)
	if share >= 0.5 {
		return true, 0.5 + share/2
	}
	return false, 0
}

func numericDensity(row []string) float64 {
	nonEmpty := 0
	numeric := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		nonEmpty++
		if isNumericText(cell) {
			numeric++
		}
	}
	if nonEmpty == 0 {
		return 0
	}
	return float64(numeric) / float64(nonEmpty)
}

func isNumericText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '-' || r == '+' || r == '%' || r == '$' || r == '€' || r == '£':
		default:
			return false
		}
	}
	return digits > 0
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
