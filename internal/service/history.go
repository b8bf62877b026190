package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/regmap/internal/core"
	db "github.com/JonMunkholm/regmap/internal/database"
)

// DefaultHistoryLimit is used when a listing asks for no limit.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps a single history page.
const MaxHistoryLimit = 500

// Summary is a conversion without its records or workbook.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	Backend       string    `json:"backend"`
	FileName      string    `json:"file_name"`
	RecordCount   int       `json:"record_count"`
	SkippedTables int       `json:"skipped_tables"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListParams filters and pages the history.
type ListParams struct {
	Backend string
	Limit   int
	Offset  int
}

// Store persists conversions.
type Store interface {
	Save(ctx context.Context, c *Conversion) error
	List(ctx context.Context, p ListParams) ([]Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*Conversion, error)
	Purge(ctx context.Context, retentionDays, batchSize int) (int64, error)
}

// History lists past conversions, newest first.
func (s *Service) History(ctx context.Context, p ListParams) ([]Summary, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	if p.Limit <= 0 {
		p.Limit = DefaultHistoryLimit
	}
	p.Limit = min(p.Limit, MaxHistoryLimit)
	p.Offset = max(p.Offset, 0)
	return s.store.List(ctx, p)
}

// Get returns a stored conversion with records and workbook.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Conversion, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.Get(ctx, id)
}

// PostgresStore keeps conversions in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save writes a conversion and its records in one transaction.
func (p *PostgresStore) Save(ctx context.Context, c *Conversion) error {
	reports, err := json.Marshal(c.Reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	params := make([]db.InsertConversionRecordsParams, len(c.Records))
	for i, rec := range c.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.ID, err)
		}
		params[i] = db.InsertConversionRecordsParams{
			ConversionID:   pgUUID(c.ID),
			RecordID:       int32(rec.ID),
			Register:       rec.Register,
			Name:           rec.Name,
			SystemCategory: string(rec.SystemCategory),
			Data:           data,
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(p.pool).WithTx(tx)
	err = q.InsertConversion(ctx, db.InsertConversionParams{
		ID:            pgUUID(c.ID),
		Backend:       c.Backend,
		FileName:      c.FileName,
		RecordCount:   int32(len(c.Records)),
		SkippedTables: int32(skipped(c)),
		Reports:       reports,
		Workbook:      c.Workbook,
		DurationMs:    c.DurationMs,
	})
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	if _, err := q.InsertConversionRecords(ctx, params); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return tx.Commit(ctx)
}

// List returns conversion summaries.
func (p *PostgresStore) List(ctx context.Context, lp ListParams) ([]Summary, error) {
	rows, err := db.New(p.pool).ListConversions(ctx, db.ListConversionsParams{
		Backend: lp.Backend,
		Limit:   int32(lp.Limit),
		Offset:  int32(lp.Offset),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(rows))
	for i, r := range rows {
		out[i] = Summary{
			ID:            uuid.UUID(r.ID.Bytes),
			Backend:       r.Backend,
			FileName:      r.FileName,
			RecordCount:   int(r.RecordCount),
			SkippedTables: int(r.SkippedTables),
			DurationMs:    r.DurationMs,
			CreatedAt:     r.CreatedAt.Time,
		}
	}
	return out, nil
}

// Get loads a conversion with its records.
func (p *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Conversion, error) {
	q := db.New(p.pool)
	row, err := q.GetConversion(ctx, pgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	c := &Conversion{
		ID:         id,
		Backend:    row.Backend,
		FileName:   row.FileName,
		DurationMs: row.DurationMs,
		CreatedAt:  row.CreatedAt.Time,
		Workbook:   row.Workbook,
	}
	if len(row.Reports) > 0 {
		if err := json.Unmarshal(row.Reports, &c.Reports); err != nil {
			return nil, fmt.Errorf("decode reports: %w", err)
		}
	}

	data, err := q.GetConversionRecords(ctx, pgUUID(id))
	if err != nil {
		return nil, err
	}
	c.Records = make([]core.Record, len(data))
	for i, d := range data {
		if err := json.Unmarshal(d, &c.Records[i]); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
	}
	return c, nil
}

// Purge deletes conversions older than retentionDays in batches and returns
// the number removed.
func (p *PostgresStore) Purge(ctx context.Context, retentionDays, batchSize int) (int64, error) {
	q := db.New(p.pool)
	var total int64
	for {
		n, err := q.PurgeOldConversions(ctx, db.PurgeOldConversionsParams{
			RetentionDays: int32(retentionDays),
			BatchSize:     int32(batchSize),
		})
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(batchSize) || ctx.Err() != nil {
			return total, nil
		}
	}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func skipped(c *Conversion) int {
	n := 0
	for _, r := range c.Reports {
		if r.Skipped {
			n++
		}
	}
	return n
}
