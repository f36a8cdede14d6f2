package formula

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tsawler/docparse/model"
)

// DetectorConfig holds the complexity weights and tokenizer limits for
// the math detector.
type DetectorConfig struct {
	// ComponentWeight scales the token count term of the complexity score.
	ComponentWeight float64

	// NestingWeight scales the delimiter nesting term.
	NestingWeight float64

	// GreekWeight scales the Greek-letter density term.
	GreekWeight float64

	// CommandWeight scales the LaTeX command count term.
	CommandWeight float64

	// MaxComponents bounds the tokenizer output.
	MaxComponents int
}

// DefaultDetectorConfig returns the default detector configuration.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ComponentWeight: 0.15,
		NestingWeight:   0.8,
		GreekWeight:     3.0,
		CommandWeight:   0.5,
		MaxComponents:   500,
	}
}

// Detector classifies formula text and tokenizes it into typed
// components.
type Detector struct {
	config DetectorConfig
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultDetectorConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(config DetectorConfig) *Detector {
	return &Detector{config: config}
}

// Formula type patterns, checked in precedence order. The first match
// names the type.
var (
	matrixRe    = regexp.MustCompile(`\\begin\{[pbvB]?matrix\}|\[[^\[\]]*;[^\[\]]*\]`)
	integralRe  = regexp.MustCompile(`∫|∬|∭|∮|\\int\b|\\oint\b`)
	summationRe = regexp.MustCompile(`∑|∏|\\sum\b|\\prod\b`)
	fractionRe  = regexp.MustCompile(`\\frac\b|\b\w{1,6}\s*/\s*\w{1,6}\b|[½⅓⅔¼¾]`)
	equationRe  = regexp.MustCompile(`[=≠≤≥]|\\leq\b|\\geq\b|\\neq\b|\\equiv\b`)
	displayRe   = regexp.MustCompile(`^\s*(\$\$.*\$\$|\\\[.*\\\])\s*$`)
	inlineRe    = regexp.MustCompile(`^\s*(\$[^$]+\$|\\\(.*\\\))\s*$`)
)

var latexCommandRe = regexp.MustCompile(`\\[a-zA-Z]+`)

// functionNames are word tokens recognized as mathematical functions.
var functionNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true,
	"csc": true, "arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"log": true, "ln": true, "lg": true, "exp": true, "lim": true,
	"sqrt": true, "min": true, "max": true, "det": true, "mod": true,
	"sum": true, "prod": true, "int": true,
}

// operatorCommands are LaTeX commands tokenized as operators.
var operatorCommands = map[string]bool{
	"times": true, "div": true, "cdot": true, "pm": true, "mp": true,
	"leq": true, "geq": true, "neq": true, "equiv": true, "approx": true,
	"cup": true, "cap": true, "in": true, "subset": true, "to": true,
	"rightarrow": true,
}

// Detect classifies and tokenizes formula text. Blank input returns a
// StructureExtractionError.
func (d *Detector) Detect(text string) (*model.FormulaStructure, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &model.StructureExtractionError{Analyzer: "math detector", Reason: "empty formula text"}
	}

	fs := &model.FormulaStructure{
		FormulaType:   classifyType(trimmed),
		HasFractions:  fractionRe.MatchString(trimmed),
		HasIntegrals:  integralRe.MatchString(trimmed),
		HasSummations: summationRe.MatchString(trimmed),
		HasMatrices:   matrixRe.MatchString(trimmed),
	}

	fs.Components, fs.NestingLevel = d.tokenize(trimmed)
	fillInventories(fs)
	fs.ComplexityScore = d.complexity(trimmed, fs)
	return fs, nil
}

// classifyType applies the type patterns in precedence order.
func classifyType(text string) string {
	switch {
	case matrixRe.MatchString(text):
		return "matrix"
	case integralRe.MatchString(text):
		return "integral"
	case summationRe.MatchString(text):
		return "summation"
	case fractionRe.MatchString(text):
		return "fraction"
	case equationRe.MatchString(text):
		return "equation"
	case displayRe.MatchString(text):
		return "display"
	case inlineRe.MatchString(text):
		return "inline"
	default:
		return "expression"
	}
}

// tokenize splits the text into typed components, attaching sub- and
// superscripts to the preceding component. Returns the components and
// the maximum delimiter nesting depth.
func (d *Detector) tokenize(text string) ([]model.MathComponent, int) {
	var components []model.MathComponent
	runes := []rune(text)
	depth, maxDepth := 0, 0

	push := func(c model.MathComponent) {
		if len(components) < d.config.MaxComponents {
			components = append(components, c)
		}
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\\':
			word, next := readWord(runes, i+1)
			i = next
			switch {
			case word == "":
				i++ // lone backslash
			case operatorCommands[word]:
				push(model.MathComponent{Value: "\\" + word, Kind: model.MathComponentOperator})
			case functionNames[word] || word == "frac":
				push(model.MathComponent{Value: "\\" + word, Kind: model.MathComponentFunction})
			default:
				push(model.MathComponent{Value: "\\" + word, Kind: model.MathComponentVariable})
			}

		case r == '^' || r == '_':
			script, next := readScript(runes, i+1)
			i = next
			if len(components) > 0 {
				last := &components[len(components)-1]
				if r == '^' {
					last.Super = script
				} else {
					last.Sub = script
				}
			} else {
				push(model.MathComponent{Value: string(r), Kind: model.MathComponentOperator})
			}

		case unicode.IsLetter(r):
			word, next := readWord(runes, i)
			i = next
			if functionNames[strings.ToLower(word)] {
				push(model.MathComponent{Value: strings.ToLower(word), Kind: model.MathComponentFunction})
			} else if utfLen(word) == 1 || isGreekWord(word) {
				push(model.MathComponent{Value: word, Kind: model.MathComponentVariable})
			} else {
				// A multi-letter word is treated as implicit variable product.
				for _, vr := range word {
					push(model.MathComponent{Value: string(vr), Kind: model.MathComponentVariable})
				}
			}

		case unicode.IsDigit(r):
			num, next := readNumber(runes, i)
			i = next
			push(model.MathComponent{Value: num, Kind: model.MathComponentConstant})

		case strings.ContainsRune("()[]{}|,;", r):
			switch r {
			case '(', '[', '{':
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
			}
			push(model.MathComponent{Value: string(r), Kind: model.MathComponentDelimiter})
			i++

		case strings.ContainsRune("+-*/=<>±×÷·≤≥≠≈∑∏∫√", r):
			kind := model.MathComponentOperator
			if strings.ContainsRune("∑∏∫√", r) {
				kind = model.MathComponentFunction
			}
			push(model.MathComponent{Value: string(r), Kind: kind})
			i++

		default:
			push(model.MathComponent{Value: string(r), Kind: model.MathComponentVariable})
			i++
		}
	}
	return components, maxDepth
}

// readWord consumes a run of letters starting at i.
func readWord(runes []rune, i int) (string, int) {
	start := i
	for i < len(runes) && unicode.IsLetter(runes[i]) {
		i++
	}
	return string(runes[start:i]), i
}

// readNumber consumes digits with at most one decimal point.
func readNumber(runes []rune, i int) (string, int) {
	start := i
	seenDot := false
	for i < len(runes) {
		if unicode.IsDigit(runes[i]) {
			i++
		} else if runes[i] == '.' && !seenDot && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			seenDot = true
			i++
		} else {
			break
		}
	}
	return string(runes[start:i]), i
}

// readScript consumes a sub/superscript argument: either one token or a
// brace group.
func readScript(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", i
	}
	if runes[i] == '{' {
		depth := 1
		start := i + 1
		j := start
		for j < len(runes) && depth > 0 {
			switch runes[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		end := j
		if depth == 0 {
			end = j - 1
		}
		return string(runes[start:end]), j
	}
	if unicode.IsDigit(runes[i]) {
		return readNumber(runes, i)
	}
	if unicode.IsLetter(runes[i]) {
		return string(runes[i]), i + 1
	}
	return string(runes[i]), i + 1
}

func utfLen(s string) int { return len([]rune(s)) }

func isGreekWord(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Greek, r) {
			return false
		}
	}
	return s != ""
}

// fillInventories derives the variable, operator and function lists from
// the components, deduplicated in first-seen order.
func fillInventories(fs *model.FormulaStructure) {
	seen := make(map[string]bool)
	add := func(list *[]string, value string) {
		if !seen[value] {
			seen[value] = true
			*list = append(*list, value)
		}
	}
	for _, c := range fs.Components {
		switch c.Kind {
		case model.MathComponentVariable:
			if !strings.HasPrefix(c.Value, "\\") || isGreekCommand(c.Value) {
				add(&fs.Variables, c.Value)
			}
		case model.MathComponentOperator:
			add(&fs.Operators, c.Value)
		case model.MathComponentFunction:
			add(&fs.Functions, c.Value)
		}
	}
}

var greekCommandNames = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true,
	"epsilon": true, "zeta": true, "eta": true, "theta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true,
	"xi": true, "pi": true, "rho": true, "sigma": true, "tau": true,
	"upsilon": true, "phi": true, "chi": true, "psi": true, "omega": true,
}

func isGreekCommand(value string) bool {
	return greekCommandNames[strings.ToLower(strings.TrimPrefix(value, "\\"))]
}

// complexity combines token count, nesting depth, Greek density and
// LaTeX command density into a bounded [0, 10] score.
func (d *Detector) complexity(text string, fs *model.FormulaStructure) float64 {
	greek := 0
	total := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Greek, r) {
			greek++
		}
	}
	greekDensity := 0.0
	if total > 0 {
		greekDensity = float64(greek) / float64(total)
	}
	commands := len(latexCommandRe.FindAllString(text, -1))

	score := d.config.ComponentWeight*float64(len(fs.Components)) +
		d.config.NestingWeight*float64(fs.NestingLevel) +
		d.config.GreekWeight*greekDensity +
		d.config.CommandWeight*float64(commands)
	if score > 10 {
		score = 10
	}
	return score
}
