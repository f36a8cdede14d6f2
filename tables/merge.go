package tables

import (
	"strings"

	"github.com/tsawler/docparse/model"
)

// CellMerger infers row and column spans from empty-cell runs. A run of
// empty cells directly after a non-empty cell in the same row extends that
// cell's column span; an empty cell directly below a non-empty cell in the
// same column extends its row span.
type CellMerger struct{}

// NewCellMerger creates a cell merger.
func NewCellMerger() *CellMerger {
	return &CellMerger{}
}

// Merge converts a raw text matrix into typed cells with inferred spans.
// Cell confidence is filled in later by the data typer; spans are always
// at least 1.
func (cm *CellMerger) Merge(matrix [][]string) [][]model.TableCell {
	if len(matrix) == 0 {
		return nil
	}

	rows := make([][]model.TableCell, len(matrix))
	for r, rawRow := range matrix {
		rows[r] = make([]model.TableCell, len(rawRow))
		for c, content := range rawRow {
			rows[r][c] = model.TableCell{
				Content: content,
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}

	cm.inferColSpans(rows)
	cm.inferRowSpans(rows)
	return rows
}

func (cm *CellMerger) inferColSpans(rows [][]model.TableCell) {
	for _, row := range rows {
		for c := 0; c < len(row); c++ {
			if strings.TrimSpace(row[c].Content) == "" {
				continue
			}
			span := 1
			for next := c + 1; next < len(row) && strings.TrimSpace(row[next].Content) == ""; next++ {
				span++
			}
			row[c].ColSpan = span
		}
	}
}

func (cm *CellMerger) inferRowSpans(rows [][]model.TableCell) {
	if len(rows) < 2 {
		return
	}
	cols := len(rows[0])
	for c := 0; c < cols; c++ {
		for r := 0; r < len(rows); r++ {
			if c >= len(rows[r]) || strings.TrimSpace(rows[r][c].Content) == "" {
				continue
			}
			span := 1
			for next := r + 1; next < len(rows) && c < len(rows[next]) &&
				strings.TrimSpace(rows[next][c].Content) == ""; next++ {
				// Only extend the row span when the row below is not
				// already consumed by a column span in this row.
				if rows[next][c].ColSpan > 1 {
					break
				}
				span++
			}
			// A cell spanning both axes is ambiguous with this heuristic;
			// column spans take precedence.
			if rows[r][c].ColSpan == 1 {
				rows[r][c].RowSpan = span
			}
			r += span - 1
		}
	}
}
