package tables

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/docparse/model"
)

// Exporter renders a table structure into the supported export formats.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Formats lists the export format names the exporter produces.
func (e *Exporter) Formats() []string {
	return []string{"csv", "json", "html", "markdown", "xlsx"}
}

// Export renders every supported format. The xlsx rendering is binary and
// therefore base64-encoded. Individual format failures are reported as
// warnings via the returned slice, never as errors.
func (e *Exporter) Export(ts *model.TableStructure) (map[string]string, []string) {
	out := make(map[string]string, 5)
	var warnings []string

	out["csv"] = e.CSV(ts)
	out["markdown"] = e.Markdown(ts)
	out["html"] = e.HTML(ts)

	if js, err := json.MarshalIndent(ts, "", "  "); err == nil {
		out["json"] = string(js)
	} else {
		warnings = append(warnings, fmt.Sprintf("json export failed: %v", err))
	}

	if xlsx, err := e.XLSX(ts); err == nil {
		out["xlsx"] = xlsx
	} else {
		warnings = append(warnings, fmt.Sprintf("xlsx export failed: %v", err))
	}

	return out, warnings
}

// CSV renders the table as RFC 4180 CSV, header row first when present.
func (e *Exporter) CSV(ts *model.TableStructure) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if ts.HasHeaders {
		w.Write(ts.HeaderNames())
	}
	for _, row := range ts.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cell.Content
		}
		w.Write(record)
	}
	w.Flush()
	return buf.String()
}

// Markdown renders a pipe table. Splitting any rendered row on "|" and
// discarding blank edge fields reproduces the structure's column count.
func (e *Exporter) Markdown(ts *model.TableStructure) string {
	cols := ts.ColumnCount()
	if cols == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(c, "\n", " "))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	if ts.HasHeaders {
		writeRow(ts.HeaderNames())
	} else if len(ts.Rows) > 0 {
		first := make([]string, len(ts.Rows[0]))
		for i, cell := range ts.Rows[0] {
			first[i] = cell.Content
		}
		writeRow(first)
	}

	sb.WriteString("|")
	for i := 0; i < cols; i++ {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	start := 0
	if !ts.HasHeaders {
		start = 1
	}
	for _, row := range ts.Rows[start:] {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.Content
		}
		writeRow(cells)
	}
	return sb.String()
}

// HTML renders a table element with span attributes and escaped content.
func (e *Exporter) HTML(ts *model.TableStructure) string {
	var sb strings.Builder
	sb.WriteString("<table>\n")

	if ts.HasHeaders {
		sb.WriteString("  <thead>\n    <tr>")
		for _, cell := range ts.Headers {
			sb.WriteString("<th>")
			sb.WriteString(html.EscapeString(cell.Content))
			sb.WriteString("</th>")
		}
		sb.WriteString("</tr>\n  </thead>\n")
	}

	sb.WriteString("  <tbody>\n")
	for _, row := range ts.Rows {
		sb.WriteString("    <tr>")
		for _, cell := range row {
			sb.WriteString("<td")
			if cell.RowSpan > 1 {
				fmt.Fprintf(&sb, " rowspan=\"%d\"", cell.RowSpan)
			}
			if cell.ColSpan > 1 {
				fmt.Fprintf(&sb, " colspan=\"%d\"", cell.ColSpan)
			}
			sb.WriteString(">")
			sb.WriteString(html.EscapeString(cell.Content))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("  </tbody>\n</table>")
	return sb.String()
}

// XLSX renders a single-sheet workbook, base64-encoded.
func (e *Exporter) XLSX(ts *model.TableStructure) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	rowIdx := 1

	if ts.HasHeaders {
		for c, name := range ts.HeaderNames() {
			cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return "", err
			}
		}
		rowIdx++
	}

	for _, row := range ts.Rows {
		for c, tc := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, tc.Content); err != nil {
				return "", err
			}
		}
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
