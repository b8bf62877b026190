package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/regmap/internal/core"
)

// ErrInvalidWorkbook wraps errors from opening a damaged or non-xlsx file.
var ErrInvalidWorkbook = errors.New("invalid workbook")

// ReadWorkbook returns one raw table per sheet, in workbook order. Merged
// ranges are filled with their top-left value so label and header cells
// spanning several columns are seen by every column.
func ReadWorkbook(r io.Reader, file string) ([]core.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	var tables []core.RawTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if err := fillMerged(f, sheet, rows); err != nil {
			return nil, fmt.Errorf("read merged cells of %q: %w", sheet, err)
		}
		tables = append(tables, core.RawTable{
			Source: core.Provenance{File: file, Sheet: sheet},
			Rows:   padRows(rows),
		})
	}
	return tables, nil
}

func fillMerged(f *excelize.File, sheet string, grid [][]string) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return err
	}
	for _, m := range merges {
		val := m.GetCellValue()
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		for r := startRow - 1; r < endRow && r < len(grid); r++ {
			for len(grid[r]) < endCol {
				grid[r] = append(grid[r], "")
			}
			for c := startCol - 1; c < endCol; c++ {
				grid[r][c] = val
			}
		}
	}
	return nil
}
