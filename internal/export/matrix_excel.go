// Package export renders attendance matrices as xlsx workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"classtrack/internal/attendance"
)

var statusLabels = map[string]string{
	attendance.StatusPresent:   "Present",
	attendance.StatusAbsent:    "Absent",
	attendance.StatusNotMarked: "Not Marked",
	attendance.StatusUpcoming:  "Upcoming",
}

type cellStyle struct {
	fill string
	font string
}

// Cell colors match the statuses: green present, red absent, yellow
// unmarked.
var statusStyles = map[string]cellStyle{
	attendance.StatusPresent:   {fill: "00C853", font: "FFFFFF"},
	attendance.StatusAbsent:    {fill: "D50000", font: "FFFFFF"},
	attendance.StatusNotMarked: {fill: "FFF176", font: "000000"},
	attendance.StatusUpcoming:  {fill: "90CAF9", font: "000000"},
}

// MatrixWorkbook builds a single-sheet workbook from a matrix: one row per
// student, one column per session or timetable slot week, status cells
// color-coded.
func MatrixWorkbook(m attendance.Matrix) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Attendance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	styles := make(map[string]int, len(statusStyles))
	for status, cs := range statusStyles {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{cs.fill}},
			Font: &excelize.Font{Color: cs.font},
		})
		if err != nil {
			return nil, fmt.Errorf("style %s: %w", status, err)
		}
		styles[status] = id
	}

	header := []string{"Name", "Email"}
	for _, col := range m.Columns {
		header = append(header, col.Label)
	}
	for c, h := range header {
		cell := fmt.Sprintf("%s1", colName(c+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end := colName(len(header)) + "1"
	_ = f.SetCellStyle(sheet, "A1", end, bold)
	_ = f.AutoFilter(sheet, "A1:"+end, nil)

	for r, student := range m.Students {
		row := r + 2
		_ = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), student.Name)
		_ = f.SetCellStr(sheet, fmt.Sprintf("B%d", row), student.Email)
		statuses := m.Cells[student.ID]
		for c := range m.Columns {
			status := attendance.StatusNotMarked
			if c < len(statuses) && statuses[c] != "" {
				status = statuses[c]
			}
			cell := fmt.Sprintf("%s%d", colName(c+3), row)
			if err := f.SetCellStr(sheet, cell, labelFor(status)); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
			if id, ok := styles[status]; ok {
				_ = f.SetCellStyle(sheet, cell, cell, id)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 24)
	if len(m.Columns) > 0 {
		_ = f.SetColWidth(sheet, "C", colName(len(header)), 16)
	}
	return f, nil
}

func labelFor(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return statusLabels[attendance.StatusNotMarked]
}

// colName converts a 1-based column index to its spreadsheet name.
func colName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
