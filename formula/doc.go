// Package formula parses mathematical formula elements. A detector
// classifies the formula type and tokenizes it into typed components
// with attached sub- and superscripts; a converter produces LaTeX
// through a chain of strategies from pass-through down to a minimal
// substitution fallback. Exports cover LaTeX, presentation MathML,
// JSON and plain text.
package formula
