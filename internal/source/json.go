package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/regmap/internal/core"
)

// ErrInvalidTables is returned when a JSON document is not a table list.
var ErrInvalidTables = errors.New("invalid tables document")

// jsonTable is the interchange form written by the HTML and PDF table
// extractors. Cells may be strings, numbers, booleans or null.
type jsonTable struct {
	Source core.Provenance `json:"source"`
	Sheet  string          `json:"sheet"`
	Page   int             `json:"page"`
	Rows   [][]any         `json:"rows"`
}

type jsonDocument struct {
	Tables []jsonTable `json:"tables"`
}

// ReadTables decodes pre-extracted tables. Both a bare array of tables and an
// object with a "tables" key are accepted.
func ReadTables(r io.Reader, file string) ([]core.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var list []jsonTable
	if data[0] == '[' {
		err = json.Unmarshal(data, &list)
	} else {
		var doc jsonDocument
		err = json.Unmarshal(data, &doc)
		list = doc.Tables
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}

	tables := make([]core.RawTable, 0, len(list))
	for _, jt := range list {
		src := jt.Source
		if src.File == "" {
			src.File = file
		}
		if src.Sheet == "" {
			src.Sheet = jt.Sheet
		}
		if src.Page == 0 {
			src.Page = jt.Page
		}

		rows := make([][]string, len(jt.Rows))
		for i, row := range jt.Rows {
			rows[i] = make([]string, len(row))
			for j, cell := range row {
				rows[i][j] = cellText(cell)
			}
		}
		tables = append(tables, core.RawTable{Source: src, Rows: padRows(rows)})
	}
	return tables, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return core.FormatNumber(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(x)
	}
}
