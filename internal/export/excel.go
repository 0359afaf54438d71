package export

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"waste-console/internal/locale"
)

const (
	SummarySheet = "Summary"
	RecordsSheet = "Records"
)

func renderExcel(ctx context.Context, doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with "Sheet1"; rename it instead of adding a third sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, errors.Wrap(err, "rename summary sheet")
	}
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return nil, errors.Wrap(err, "create records sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}

	if err := writeSummarySheet(f, doc, bold); err != nil {
		return nil, err
	}
	if err := writeRecordsSheet(ctx, f, doc, bold); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, doc Document, bold int) error {
	set := func(cell string, v any) error {
		return f.SetCellValue(SummarySheet, cell, v)
	}
	if err := set("A1", doc.Title); err != nil {
		return errors.Wrap(err, "write title")
	}
	_ = f.SetCellStyle(SummarySheet, "A1", "A1", bold)

	row := 3
	for _, line := range doc.HeaderLines() {
		if err := f.SetSheetRow(SummarySheet, cellName(1, row), &[]any{line[0], line[1]}); err != nil {
			return errors.Wrap(err, "write summary header")
		}
		_ = f.SetCellStyle(SummarySheet, cellName(1, row), cellName(1, row), bold)
		row++
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "E", 18)

	if len(doc.Groups) == 0 {
		return nil
	}

	row++
	header := []any{"Name", "Total (t)", "Waste code", "Quantity (t)", "Share"}
	if err := f.SetSheetRow(SummarySheet, cellName(1, row), &header); err != nil {
		return errors.Wrap(err, "write breakdown header")
	}
	_ = f.SetCellStyle(SummarySheet, cellName(1, row), cellName(len(header), row), bold)
	row++

	for _, g := range doc.Groups {
		line := []any{g.Name, locale.FormatTons(g.Total)}
		if err := f.SetSheetRow(SummarySheet, cellName(1, row), &line); err != nil {
			return errors.Wrap(err, "write breakdown")
		}
		row++
		for _, s := range g.Shares() {
			line := []any{"", "", s.Code, locale.FormatTons(s.Quantity), locale.FormatPercent(s.Percent)}
			if err := f.SetSheetRow(SummarySheet, cellName(1, row), &line); err != nil {
				return errors.Wrap(err, "write breakdown")
			}
			row++
		}
	}
	return nil
}

func writeRecordsSheet(ctx context.Context, f *excelize.File, doc Document, bold int) error {
	labels := doc.Labels()
	header := make([]any, len(labels))
	for i, l := range labels {
		header[i] = l
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write records header")
	}
	if len(labels) > 0 {
		_ = f.SetCellStyle(RecordsSheet, "A1", cellName(len(labels), 1), bold)
		last, _ := excelize.ColumnNumberToName(len(labels))
		_ = f.SetColWidth(RecordsSheet, "A", last, 16)
	}

	for i, r := range doc.Rows {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cells := make([]any, len(r))
		for j, v := range r {
			cells[j] = v
		}
		if err := f.SetSheetRow(RecordsSheet, cellName(1, i+2), &cells); err != nil {
			return errors.Wrapf(err, "write record %d", i+1)
		}
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
