package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"bikedash/internal/core"
)

// Workbook renders d as an xlsx file with one sheet per table.
func Workbook(d core.Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Bike sharing dashboard",
		Subject:     fmt.Sprintf("%s to %s", d.Start, d.End),
		Creator:     "bikedash",
		Description: fmt.Sprintf("Bike sharing usage from %s to %s, %d records", d.Start, d.End, d.Records),
		Created:     time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for _, t := range Tables(d) {
		if err := writeSheet(f, t, header); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", t.Name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return err
	}

	headerRow := make([]any, len(t.Header))
	for i, h := range t.Header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(t.Name, cell(1, 1), &headerRow); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(t.Header))
	if err := f.SetCellStyle(t.Name, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, row := range t.Rows {
		r := row
		if err := f.SetSheetRow(t.Name, cell(1, i+2), &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(t.Name, "A", last, 20)
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}
