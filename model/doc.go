// Package model defines the shared value types used throughout the docparse
// library: document elements, parser results, structural entities for tables,
// lists, code and formulas, and the error taxonomy.
//
// Types in this package are plain values with no behavior beyond validation
// and rendering helpers. Elements are treated as read-only inputs; results
// are immutable once produced by a parser.
package model
