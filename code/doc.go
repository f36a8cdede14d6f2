// Package code parses code block elements: it detects the source
// language, extracts structure (functions, classes, imports, variables),
// scores complexity and renders highlighted, JSON and metrics exports.
//
// Go source gets a real AST pass via go/parser; a syntax error falls back
// to regex extraction and is recorded on the structure instead of
// aborting the parse. Other languages are analyzed with per-family regex
// patterns, plus an indentation consistency scan for Python.
package code
