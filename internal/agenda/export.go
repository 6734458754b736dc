package agenda

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"Date", "Time", "Duration (min)", "Professional", "Service", "Status", "Recurring"}

// ExportExcel writes an agenda range as a single-sheet workbook for the
// admin panel. Names are resolved by the caller; unknown IDs fall back to
// their numeric form.
func ExportExcel(w io.Writer, entries []Entry, professionalNames, serviceNames map[int64]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Agenda"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for row, e := range entries {
		recurring := ""
		if e.IsRecurringInstance {
			recurring = fmt.Sprintf("rule #%d", e.RecurringRuleID)
		}
		values := []interface{}{
			e.StartTime.Format("2006-01-02"),
			e.StartTime.Format("15:04"),
			e.DurationMinutes,
			nameOrID(professionalNames, e.ProfessionalID),
			nameOrID(serviceNames, e.ServiceID),
			e.Status,
			recurring,
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func nameOrID(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
