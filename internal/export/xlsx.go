package export

import (
	"fmt"
	"io"

	"github.com/kursadbilgin/dining-desk/internal/dataset"
	"github.com/xuri/excelize/v2"
)

const (
	SheetReservations     = "Reservations"
	SheetDietary          = "Dietary"
	SheetSpecialOccasions = "Special Occasions"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	vipFillColor = "#FFE5B4"
	columnWidth  = 24
)

var headers = []any{"Name", "Date", "Party Size", "Dietary Information", "Special Occasion", "Additional Information"}

// WriteReservations renders a bucket overview as a workbook with one sheet per table.
// VIP rows are highlighted on every sheet.
func WriteReservations(w io.Writer, overview dataset.Overview) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	vipStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{vipFillColor}},
	})
	if err != nil {
		return fmt.Errorf("failed to create vip style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetReservations); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}

	sheets := []struct {
		name string
		rows []dataset.Row
	}{
		{name: SheetReservations, rows: overview.Reservations},
		{name: SheetDietary, rows: overview.Dietary},
		{name: SheetSpecialOccasions, rows: overview.SpecialOccasions},
	}

	s := sheetWriter{file: f, headerStyle: headerStyle, vipStyle: vipStyle}
	for _, sheet := range sheets {
		if err := s.write(sheet.name, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type sheetWriter struct {
	file        *excelize.File
	headerStyle int
	vipStyle    int
}

func (s sheetWriter) write(sheet string, rows []dataset.Row) error {
	if sheet != SheetReservations {
		if _, err := s.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
	}

	if err := s.file.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %q header: %w", sheet, err)
	}
	if err := s.file.SetRowStyle(sheet, 1, 1, s.headerStyle); err != nil {
		return fmt.Errorf("failed to style %q header: %w", sheet, err)
	}
	if err := s.file.SetColWidth(sheet, "A", "F", columnWidth); err != nil {
		return fmt.Errorf("failed to size %q columns: %w", sheet, err)
	}

	for i, row := range rows {
		line := i + 2
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}

		values := []any{row.Name, row.Date, partySizeValue(row), row.DietaryInformation, row.SpecialOccasion, row.AdditionalInformation}
		if err := s.file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", sheet, line, err)
		}

		if row.VIP() {
			end, err := excelize.CoordinatesToCellName(len(headers), line)
			if err != nil {
				return err
			}
			if err := s.file.SetCellStyle(sheet, cell, end, s.vipStyle); err != nil {
				return fmt.Errorf("failed to highlight %q row %d: %w", sheet, line, err)
			}
		}
	}
	return nil
}

func partySizeValue(row dataset.Row) any {
	if !row.PartySize.Known {
		return ""
	}
	return row.PartySize.Value
}
