package model

import (
	"fmt"
	"strings"
)

// TableCell represents one cell of a parsed table.
type TableCell struct {
	Content string `json:"content"`

	// RowSpan and ColSpan are always >= 1.
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`

	// DataType is the canonical inferred type of the cell content
	// (number, date, time, boolean, email, phone, url, currency,
	// percentage, text).
	DataType string `json:"data_type,omitempty"`

	// Confidence is the type-inference confidence, in [0, 1].
	Confidence float64 `json:"confidence"`
}

// NewTableCell creates a cell, rejecting spans below 1. Confidence is
// clamped to [0, 1].
func NewTableCell(content string, rowSpan, colSpan int, dataType string, confidence float64) (TableCell, error) {
	if rowSpan < 1 {
		return TableCell{}, fmt.Errorf("row span %d: must be >= 1", rowSpan)
	}
	if colSpan < 1 {
		return TableCell{}, fmt.Errorf("col span %d: must be >= 1", colSpan)
	}
	return TableCell{
		Content:    content,
		RowSpan:    rowSpan,
		ColSpan:    colSpan,
		DataType:   dataType,
		Confidence: ClampConfidence(confidence),
	}, nil
}

// TableStructure is the parsed shape of a table element.
type TableStructure struct {
	// Headers holds the header row cells when HasHeaders is true.
	Headers []TableCell `json:"headers,omitempty"`

	// Rows holds the body cells.
	Rows [][]TableCell `json:"rows"`

	// ColumnTypes holds the dominant inferred type per column.
	ColumnTypes []string `json:"column_types,omitempty"`

	HasHeaders bool `json:"has_headers"`
}

// RowCount returns the number of body rows.
func (t *TableStructure) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnCount returns the number of columns, preferring the header row.
func (t *TableStructure) ColumnCount() int {
	if t == nil {
		return 0
	}
	if t.HasHeaders && len(t.Headers) > 0 {
		return len(t.Headers)
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// HeaderNames returns the header contents, or nil when headerless.
func (t *TableStructure) HeaderNames() []string {
	if t == nil || !t.HasHeaders {
		return nil
	}
	names := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		names[i] = h.Content
	}
	return names
}

// CellCount returns the number of body cells.
func (t *TableStructure) CellCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		n += len(row)
	}
	return n
}

// DataQuality returns the ratio of non-empty body cells, in [0, 1].
func (t *TableStructure) DataQuality() float64 {
	total := t.CellCount()
	if total == 0 {
		return 0
	}
	filled := 0
	for _, row := range t.Rows {
		for _, cell := range row {
			if strings.TrimSpace(cell.Content) != "" {
				filled++
			}
		}
	}
	return float64(filled) / float64(total)
}
