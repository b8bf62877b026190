package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/regmap/internal/core"
)

// sniffLines is how many lines are inspected when guessing the delimiter.
const sniffLines = 20

// ReadCSV decodes a delimited text export into a single raw table.
//
// Vendor exports come from Excel on Windows: the text may carry a UTF-8 or
// UTF-16 byte order mark, or be plain Windows-1252, and the field separator
// is often ';' in locales that use a decimal comma.
func ReadCSV(r io.Reader, file string) ([]core.RawTable, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return []core.RawTable{{
		Source: core.Provenance{File: file},
		Rows:   padRows(rows),
	}}, nil
}

// decodeText returns UTF-8 text without a byte order mark. Input that is not
// valid UTF-8 is read as UTF-16 when it starts with a UTF-16 BOM and as
// Windows-1252 otherwise.
func decodeText(data []byte) ([]byte, error) {
	var dec transform.Transformer
	if utf8.Valid(data) {
		dec = unicode.UTF8BOM.NewDecoder()
	} else {
		dec = unicode.BOMOverride(charmap.Windows1252.NewDecoder())
	}
	out, _, err := transform.Bytes(dec, data)
	return out, err
}

// sniffDelimiter picks ';', ',' or tab, whichever occurs most often outside
// quotes in the first lines. Ties go to ','.
func sniffDelimiter(text []byte) rune {
	counts := map[rune]int{}
	inQuote := false
	lines := 0
	for _, c := range string(text) {
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\n':
			lines++
		case c == ';' || c == ',' || c == '\t':
			counts[c]++
		}
		if lines >= sniffLines {
			break
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
