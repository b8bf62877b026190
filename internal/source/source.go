// Package source decodes uploaded documents into the raw tables the
// normalization pipeline consumes.
//
// Supported inputs:
//   - .xlsx / .xlsm workbooks: one table per sheet, merged cells filled
//   - .csv exports: UTF-8 (with or without BOM) or Windows-1252, ; or , separated
//   - .json: tables already extracted from HTML or PDF documents
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/regmap/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when the document has no bytes at all.
	ErrEmptyFile = errors.New("empty file")
)

// Formats lists the extensions Read understands.
var Formats = []string{".xlsx", ".xlsm", ".csv", ".json"}

// Read decodes a document into raw tables. The file name selects the reader
// and is recorded in each table's provenance.
func Read(ctx context.Context, name string, data []byte) ([]core.RawTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := filepath.Base(name)
	var (
		tables []core.RawTable
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		tables, err = ReadWorkbook(bytes.NewReader(data), base)
	case ".csv":
		tables, err = ReadCSV(bytes.NewReader(data), base)
	case ".json":
		tables, err = ReadTables(bytes.NewReader(data), base)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// padRows makes every row of a grid as wide as the widest one.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}
