// Package export renders a month of the schedule as an Excel workbook.
package export

import (
	"fmt"
	"strings"

	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in exported workbooks
const SheetName = "Розклад"

// ErrEmptyMonth is returned when the month has no assignments
var ErrEmptyMonth = errors.New("no assignments in month")

// MonthKey returns the MM.YYYY month of a canonical date
func MonthKey(date string) (string, error) {
	t, err := schedule.ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format("01.2006"), nil
}

// Months lists the months that have at least one assignment, in calendar order
func Months(sched schedule.Schedule) []string {
	seen := make(map[string]bool)
	var out []string
	for _, date := range sched.Dates() {
		m, err := MonthKey(date)
		if err != nil || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// FileName returns the attachment name for a month export
func FileName(month string) string {
	return fmt.Sprintf("rozklad-%s.xlsx", strings.ReplaceAll(month, ".", "-"))
}

// Workbook builds an .xlsx document with one row per date of month
func Workbook(sched schedule.Schedule, month string) ([]byte, error) {
	var dates []string
	for _, date := range sched.Dates() {
		if m, err := MonthKey(date); err == nil && m == month {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return nil, errors.Wrap(ErrEmptyMonth, month)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "failed to name sheet")
	}

	header := []string{"Дата", "День", "Проповідники"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, errors.Wrap(err, "failed to write header")
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return nil, errors.Wrap(err, "failed to style header")
	}

	for i, date := range dates {
		row := i + 2
		t, _ := schedule.ParseDate(date)
		values := []interface{}{date, schedule.WeekdayAbbrev(t), strings.Join(sched[date], ", ")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, errors.Wrapf(err, "failed to write row for %s", date)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return nil, errors.Wrap(err, "failed to size columns")
	}
	if err := f.SetColWidth(SheetName, "C", "C", 40); err != nil {
		return nil, errors.Wrap(err, "failed to size columns")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode workbook")
	}
	return buf.Bytes(), nil
}
