package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Billing"

// XLSXRenderer writes datasets into a single-sheet workbook. Numeric cells are
// stored as numbers so totals can be summed in a spreadsheet.
type XLSXRenderer struct{}

// NewXLSXRenderer constructs an XLSX renderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Extension() string { return "xlsx" }

// Render builds the workbook in memory.
func (r *XLSXRenderer) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rowIdx := 1
	if data.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", data.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		rowIdx = 3
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeXLSXRow(f, rowIdx, data.Headers, len(data.Headers)); err != nil {
		return nil, err
	}
	if err := styleRow(f, rowIdx, len(data.Headers), bold); err != nil {
		return nil, err
	}
	rowIdx++

	for _, row := range data.Rows {
		if err := writeXLSXRow(f, rowIdx, row, len(data.Headers)); err != nil {
			return nil, err
		}
		rowIdx++
	}
	if len(data.Totals) > 0 {
		if err := writeXLSXRow(f, rowIdx, data.Totals, len(data.Headers)); err != nil {
			return nil, err
		}
		if err := styleRow(f, rowIdx, len(data.Headers), bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeXLSXRow(f *excelize.File, rowIdx int, row []string, width int) error {
	for i := 0; i < width; i++ {
		ref, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		value := cell(row, i)
		var setErr error
		if n, convErr := strconv.ParseFloat(value, 64); convErr == nil && value != "" {
			setErr = f.SetCellValue(xlsxSheet, ref, n)
		} else {
			setErr = f.SetCellStr(xlsxSheet, ref, value)
		}
		if setErr != nil {
			return fmt.Errorf("write cell %s: %w", ref, setErr)
		}
	}
	return nil
}

func styleRow(f *excelize.File, rowIdx, width, style int) error {
	first, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, rowIdx)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(xlsxSheet, first, last, style); err != nil {
		return fmt.Errorf("style row %d: %w", rowIdx, err)
	}
	return nil
}
