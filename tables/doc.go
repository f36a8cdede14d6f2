// Package tables analyzes tabular text elements: it detects the dominant
// column separator, parses the cell matrix, detects header rows through an
// ordered chain of strategies, infers cell spans and column data types,
// validates the resulting structure and renders export formats.
//
// Header detection deliberately returns on the first strategy that fires;
// the strategy order is part of observable behavior and must not be
// re-ranked.
package tables
