package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Conversion struct {
	ID            pgtype.UUID
	Backend       string
	FileName      string
	RecordCount   int32
	SkippedTables int32
	Reports       []byte
	Workbook      []byte
	DurationMs    int64
	CreatedAt     pgtype.Timestamptz
}

type ConversionRecord struct {
	ConversionID   pgtype.UUID
	RecordID       int32
	Register       string
	Name           string
	SystemCategory string
	Data           []byte
}
