package tables

import (
	"fmt"

	"github.com/tsawler/docparse/model"
)

// StructureValidator checks a parsed table structure for dimensional and
// span consistency. Findings are reported as strings; validation never
// mutates the structure.
type StructureValidator struct {
	config Config
}

// NewStructureValidator creates a validator with default configuration.
func NewStructureValidator() *StructureValidator {
	return NewStructureValidatorWithConfig(DefaultConfig())
}

// NewStructureValidatorWithConfig creates a validator with custom
// configuration.
func NewStructureValidatorWithConfig(config Config) *StructureValidator {
	return &StructureValidator{config: config}
}

// Validate returns all findings for the structure, and a quality score in
// [0, 1] combining finding count and data quality.
func (v *StructureValidator) Validate(ts *model.TableStructure) ([]string, float64) {
	var findings []string

	if ts == nil || (len(ts.Rows) == 0 && len(ts.Headers) == 0) {
		return []string{"table structure is empty"}, 0
	}

	if len(ts.Rows) > v.config.MaxRows {
		findings = append(findings, fmt.Sprintf("row count %d exceeds maximum %d", len(ts.Rows), v.config.MaxRows))
	}

	cols := ts.ColumnCount()
	if cols > v.config.MaxColumns {
		findings = append(findings, fmt.Sprintf("column count %d exceeds maximum %d", cols, v.config.MaxColumns))
	}

	for i, row := range ts.Rows {
		if len(row) != cols {
			findings = append(findings, fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), cols))
		}
		for j, cell := range row {
			if cell.RowSpan < 1 || cell.ColSpan < 1 {
				findings = append(findings, fmt.Sprintf("cell (%d,%d) has invalid span", i, j))
				continue
			}
			if j+cell.ColSpan > cols {
				findings = append(findings, fmt.Sprintf("cell (%d,%d) column span %d crosses the table edge", i, j, cell.ColSpan))
			}
			if i+cell.RowSpan > len(ts.Rows) {
				findings = append(findings, fmt.Sprintf("cell (%d,%d) row span %d crosses the table edge", i, j, cell.RowSpan))
			}
		}
	}

	quality := ts.DataQuality()
	if quality < v.config.MinDataQuality {
		findings = append(findings, fmt.Sprintf("data quality %.2f below minimum %.2f", quality, v.config.MinDataQuality))
	}

	score := quality
	if len(findings) > 0 {
		penalty := 0.15 * float64(len(findings))
		if penalty > 0.9 {
			penalty = 0.9
		}
		score = quality * (1 - penalty)
	}
	return findings, model.ClampConfidence(score)
}
