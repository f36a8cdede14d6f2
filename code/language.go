package code

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// languageSignature holds keyword patterns for one language. A pattern
// match contributes its weight to the language's score.
type languageSignature struct {
	language string
	patterns []*regexp.Regexp
}

var signatures = []languageSignature{
	{"python", compileAll(
		`(?m)^\s*def\s+\w+\s*\(`,
		`(?m)^\s*from\s+\w+\s+import\s`,
		`(?m)^\s*import\s+\w+\s*$`,
		`(?m)^\s*class\s+\w+(\(|:)`,
		`\bself\b`,
		`\belif\b`,
		`\bNone\b`,
		`\blambda\b`,
		`(?m):\s*$`,
	)},
	{"go", compileAll(
		`(?m)^\s*func\s+(\(\w+\s+\*?\w+\)\s+)?\w+\s*\(`,
		`(?m)^package\s+\w+`,
		`:=`,
		`\bchan\b`,
		`\bdefer\b`,
		`\bgoroutine\b|go\s+func\b`,
		`\bfmt\.\w+`,
	)},
	{"javascript", compileAll(
		`\bfunction\s+\w*\s*\(`,
		`\bconst\s+\w+\s*=`,
		`\blet\s+\w+\s*=`,
		`=>`,
		`\bconsole\.log\b`,
		`\brequire\(`,
		`\bexport\s+(default\s+)?`,
	)},
	{"java", compileAll(
		`\bpublic\s+(static\s+)?(class|void|int|String)\b`,
		`\bSystem\.out\.print`,
		`\bprivate\s+\w+\s+\w+\s*;`,
		`\bnew\s+\w+\s*\(`,
		`\bimport\s+java\.`,
	)},
	{"cpp", compileAll(
		`#include\s*<(iostream|vector|string|map)>`,
		`\bstd::`,
		`\btemplate\s*<`,
		`\bcout\b`,
		`\bnamespace\s+\w+`,
	)},
	{"c", compileAll(
		`#include\s*<(stdio|stdlib|string)\.h>`,
		`\bprintf\s*\(`,
		`\bmalloc\s*\(`,
		`\bint\s+main\s*\(`,
		`\bvoid\s+\w+\s*\(`,
	)},
	{"rust", compileAll(
		`\bfn\s+\w+\s*\(`,
		`\blet\s+mut\b`,
		`\bimpl\s+\w+`,
		`\bpub\s+fn\b`,
		`\bprintln!\s*\(`,
		`\bmatch\s+\w+\s*\{`,
	)},
	{"ruby", compileAll(
		`(?m)^\s*def\s+\w+\s*$`,
		`\bputs\s`,
		`(?m)^\s*end\s*$`,
		`\brequire\s+['"]`,
		`\battr_accessor\b`,
	)},
	{"shell", compileAll(
		`(?m)^#!/bin/(ba|z|da)?sh`,
		`\becho\s`,
		`(?m)^\s*fi\s*$`,
		`\$\{?\w+\}?`,
		`(?m)^\s*if\s+\[`,
	)},
	{"sql", compileAll(
		`(?i)\bSELECT\b.+\bFROM\b`,
		`(?i)\bINSERT\s+INTO\b`,
		`(?i)\bCREATE\s+TABLE\b`,
		`(?i)\bWHERE\b`,
		`(?i)\bGROUP\s+BY\b`,
	)},
	{"html", compileAll(
		`(?i)<!DOCTYPE\s+html`,
		`(?i)<html\b`,
		`(?i)<div\b`,
		`(?i)</\w+>`,
	)},
	{"css", compileAll(
		`[.#]?[\w-]+\s*\{[^}]*:[^}]*\}`,
		`\b(color|margin|padding|font-size)\s*:`,
		`@media\b`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// chromaNames maps chroma lexer names to the detector's language names.
var chromaNames = map[string]string{
	"python":     "python",
	"python 2":   "python",
	"go":         "go",
	"javascript": "javascript",
	"typescript": "javascript",
	"java":       "java",
	"c":          "c",
	"c++":        "cpp",
	"rust":       "rust",
	"ruby":       "ruby",
	"bash":       "shell",
	"shell":      "shell",
	"sql":        "sql",
	"html":       "html",
	"css":        "css",
}

// LanguageDetector guesses the language of a code block by blending
// chroma's content analysis with keyword-pattern scoring.
type LanguageDetector struct{}

// NewLanguageDetector creates a language detector.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

// Detect returns the most likely language and a confidence in [0, 1].
// Returns ("unknown", 0) when both signals are too weak to call.
func (d *LanguageDetector) Detect(source string) (string, float64) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "unknown", 0
	}

	keywordLang, keywordScore := d.keywordScore(source)

	chromaLang := ""
	if lexer := lexers.Analyse(source); lexer != nil {
		name := strings.ToLower(lexer.Config().Name)
		if mapped, ok := chromaNames[name]; ok {
			chromaLang = mapped
		}
	}

	switch {
	case chromaLang != "" && chromaLang == keywordLang:
		return keywordLang, clamp01(0.6 + 0.4*keywordScore)
	case keywordLang != "" && keywordScore >= 0.1:
		conf := 0.4 + 0.4*keywordScore
		if chromaLang != "" {
			// Conflicting signals reduce certainty.
			conf -= 0.15
		}
		return keywordLang, clamp01(conf)
	case chromaLang != "":
		return chromaLang, 0.5
	default:
		return "unknown", 0
	}
}

// keywordScore returns the best-scoring language and its normalized score.
func (d *LanguageDetector) keywordScore(source string) (string, float64) {
	bestLang := ""
	bestScore := 0.0
	for _, sig := range signatures {
		hits := 0
		for _, re := range sig.patterns {
			if re.MatchString(source) {
				hits++
			}
		}
		score := float64(hits) / float64(len(sig.patterns))
		if score > bestScore {
			bestLang = sig.language
			bestScore = score
		}
	}
	if bestScore == 0 {
		return "", 0
	}
	return bestLang, bestScore
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
