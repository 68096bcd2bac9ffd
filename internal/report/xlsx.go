package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"geoattend/internal/session"
)

// MasterWorkbook renders the master matrix as a spreadsheet, same columns as
// the CSV export.
func MasterWorkbook(rows []MasterRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Master"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student ID", "Student Name"}
	for wk := 1; wk <= session.WeeksPerTerm; wk++ {
		headers = append(headers, fmt.Sprintf("Week %d Lecture", wk), fmt.Sprintf("Week %d Section", wk))
	}
	headers = append(headers, "Total Present", "Total Absent", "Absence %", "Status Warning")

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		values := []any{row.StudentID, row.StudentName}
		for wk := 0; wk < session.WeeksPerTerm; wk++ {
			values = append(values, bitInt(row.Lecture[wk]), bitInt(row.Section[wk]))
		}
		values = append(values, row.TotalPresent, row.TotalAbsent,
			fmt.Sprintf("%.1f%%", row.AbsencePercent), string(row.Warning))

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func bitInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
