package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertConversion = `-- name: InsertConversion :exec
INSERT INTO conversions (id, backend, file_name, record_count, skipped_tables, reports, workbook, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertConversionParams struct {
	ID            pgtype.UUID
	Backend       string
	FileName      string
	RecordCount   int32
	SkippedTables int32
	Reports       []byte
	Workbook      []byte
	DurationMs    int64
}

func (q *Queries) InsertConversion(ctx context.Context, arg InsertConversionParams) error {
	_, err := q.db.Exec(ctx, insertConversion,
		arg.ID,
		arg.Backend,
		arg.FileName,
		arg.RecordCount,
		arg.SkippedTables,
		arg.Reports,
		arg.Workbook,
		arg.DurationMs,
	)
	return err
}

type InsertConversionRecordsParams struct {
	ConversionID   pgtype.UUID
	RecordID       int32
	Register       string
	Name           string
	SystemCategory string
	Data           []byte
}

// InsertConversionRecords bulk loads records with COPY.
func (q *Queries) InsertConversionRecords(ctx context.Context, arg []InsertConversionRecordsParams) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"conversion_records"},
		[]string{"conversion_id", "record_id", "register", "name", "system_category", "data"},
		&iteratorForInsertConversionRecords{rows: arg},
	)
}

type iteratorForInsertConversionRecords struct {
	rows                 []InsertConversionRecordsParams
	skippedFirstNextCall bool
}

func (r *iteratorForInsertConversionRecords) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForInsertConversionRecords) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].ConversionID,
		r.rows[0].RecordID,
		r.rows[0].Register,
		r.rows[0].Name,
		r.rows[0].SystemCategory,
		r.rows[0].Data,
	}, nil
}

func (r iteratorForInsertConversionRecords) Err() error {
	return nil
}

const listConversions = `-- name: ListConversions :many
SELECT id, backend, file_name, record_count, skipped_tables, reports, duration_ms, created_at
FROM conversions
WHERE ($1::text = '' OR backend = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListConversionsParams struct {
	Backend string
	Limit   int32
	Offset  int32
}

// ListConversions returns conversion summaries without workbook bytes.
func (q *Queries) ListConversions(ctx context.Context, arg ListConversionsParams) ([]Conversion, error) {
	rows, err := q.db.Query(ctx, listConversions, arg.Backend, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Conversion
	for rows.Next() {
		var i Conversion
		if err := rows.Scan(
			&i.ID,
			&i.Backend,
			&i.FileName,
			&i.RecordCount,
			&i.SkippedTables,
			&i.Reports,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getConversion = `-- name: GetConversion :one
SELECT id, backend, file_name, record_count, skipped_tables, reports, workbook, duration_ms, created_at
FROM conversions
WHERE id = $1
`

func (q *Queries) GetConversion(ctx context.Context, id pgtype.UUID) (Conversion, error) {
	row := q.db.QueryRow(ctx, getConversion, id)
	var i Conversion
	err := row.Scan(
		&i.ID,
		&i.Backend,
		&i.FileName,
		&i.RecordCount,
		&i.SkippedTables,
		&i.Reports,
		&i.Workbook,
		&i.DurationMs,
		&i.CreatedAt,
	)
	return i, err
}

const getConversionRecords = `-- name: GetConversionRecords :many
SELECT data
FROM conversion_records
WHERE conversion_id = $1
ORDER BY record_id
`

// GetConversionRecords returns the JSON encoded records of a conversion.
func (q *Queries) GetConversionRecords(ctx context.Context, conversionID pgtype.UUID) ([][]byte, error) {
	rows, err := q.db.Query(ctx, getConversionRecords, conversionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		items = append(items, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const purgeOldConversions = `-- name: PurgeOldConversions :execrows
DELETE FROM conversions
WHERE id IN (
    SELECT id FROM conversions
    WHERE created_at < now() - make_interval(days => $1::int)
    ORDER BY created_at
    LIMIT $2::int
)
`

type PurgeOldConversionsParams struct {
	RetentionDays int32
	BatchSize     int32
}

func (q *Queries) PurgeOldConversions(ctx context.Context, arg PurgeOldConversionsParams) (int64, error) {
	result, err := q.db.Exec(ctx, purgeOldConversions, arg.RetentionDays, arg.BatchSize)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
