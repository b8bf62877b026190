// Package service ties document decoding, the normalization pipeline, export
// and the conversion history together behind one API used by the HTTP server
// and the CLI.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/regmap/internal/config"
	"github.com/JonMunkholm/regmap/internal/core"
	"github.com/JonMunkholm/regmap/internal/export"
	"github.com/JonMunkholm/regmap/internal/logging"
	"github.com/JonMunkholm/regmap/internal/metrics"
	"github.com/JonMunkholm/regmap/internal/source"
)

var (
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrFileTooLarge       = errors.New("file too large")
	ErrNoFile             = errors.New("no file provided")
	ErrHistoryDisabled    = errors.New("history disabled")
	ErrConversionNotFound = errors.New("conversion not found")
)

// ConvertRequest is one document to normalize.
type ConvertRequest struct {
	Backend  string
	FileName string
	Data     []byte
}

// Conversion is the outcome of a successful run.
type Conversion struct {
	ID         uuid.UUID          `json:"id"`
	Backend    string             `json:"backend"`
	FileName   string             `json:"file_name"`
	OutputName string             `json:"output_name"`
	Records    []core.Record      `json:"records"`
	Reports    []core.TableReport `json:"reports"`
	DurationMs int64              `json:"duration_ms"`
	CreatedAt  time.Time          `json:"created_at"`
	Workbook   []byte             `json:"-"`
}

// BackendInfo describes a registered backend for listings.
type BackendInfo struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Group       string   `json:"group"`
	Formats     []string `json:"formats"`
}

// Service runs conversions. It is safe for concurrent use.
type Service struct {
	cfg     config.ConvertConfig
	history config.HistoryConfig
	store   Store
	slots   *slots
	now     func() time.Time
}

// New creates a Service. A nil store disables the conversion history.
func New(cfg *config.Config, store Store) *Service {
	return &Service{
		cfg:     cfg.Convert,
		history: cfg.History,
		store:   store,
		slots:   newSlots(cfg.Convert.MaxConcurrent, cfg.Convert.MaxWaitTime),
		now:     time.Now,
	}
}

// HistoryEnabled reports whether conversions are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.store != nil
}

// Backends lists registered backends ordered by group and label.
func (s *Service) Backends() []BackendInfo {
	var out []BackendInfo
	for _, group := range core.Groups() {
		for _, b := range core.ByGroup(group) {
			out = append(out, BackendInfo{
				Key:         b.Key,
				Label:       b.Label,
				Description: b.Description,
				Group:       b.Group,
				Formats:     b.Formats,
			})
		}
	}
	return out
}

// Convert decodes a document and runs the selected backend over it.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*Conversion, error) {
	if len(req.Data) == 0 {
		if req.FileName == "" {
			return nil, ErrNoFile
		}
		return nil, source.ErrEmptyFile
	}
	if s.cfg.MaxFileSize > 0 && int64(len(req.Data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), s.cfg.MaxFileSize)
	}

	b, err := s.backend(req.Backend)
	if err != nil {
		return nil, err
	}
	if ext := filepath.Ext(req.FileName); !b.Accepts(ext) {
		return nil, fmt.Errorf("%w: backend %s does not read %q files", source.ErrUnsupportedFormat, b.Key, ext)
	}

	release, err := s.acquire(ctx, b.Key)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tables, err := source.Read(ctx, req.FileName, req.Data)
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues(b.Key, metrics.StatusFailed).Inc()
		return nil, err
	}
	return s.run(ctx, b, req.FileName, tables)
}

// ConvertTables runs a backend over tables extracted by an external tool.
func (s *Service) ConvertTables(ctx context.Context, backend, fileName string, tables []core.RawTable) (*Conversion, error) {
	b, err := s.backend(backend)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		fileName = "tables.json"
	}

	release, err := s.acquire(ctx, b.Key)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.run(ctx, b, fileName, tables)
}

// SlotStatus returns the state of the conversion slots.
func (s *Service) SlotStatus() SlotStatus {
	return s.slots.status()
}

// WaitForConversions blocks until running conversions finish or ctx ends.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.slots.wait(ctx)
}

func (s *Service) backend(key string) (core.Backend, error) {
	if key == "" {
		key = s.cfg.DefaultBackend
	}
	b, ok := core.Get(key)
	if !ok {
		return core.Backend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, key)
	}
	return b, nil
}

func (s *Service) acquire(ctx context.Context, backend string) (func(), error) {
	release, err := s.slots.acquire(ctx, backend)
	if errors.Is(err, ErrTooManyConversions) {
		st := s.slots.status()
		logging.FromContext(ctx).Warn("no conversion slot available",
			"backend", backend,
			"active", st.Active,
			"busy_backends", st.busiest(),
		)
	}
	return release, err
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *Service) run(ctx context.Context, b core.Backend, fileName string, tables []core.RawTable) (*Conversion, error) {
	id := uuid.New()
	ctx = logging.ContextWith(ctx, "conversion_id", id, "file", filepath.Base(fileName))
	logger := logging.FromContext(ctx).With("backend", b.Key)
	start := s.now()

	result, err := core.NewPipeline(b).Run(ctx, tables)
	elapsed := s.now().Sub(start)
	if err != nil {
		status := metrics.StatusFailed
		switch {
		case errors.Is(err, core.ErrNothingExtracted):
			status = metrics.StatusEmpty
		case errors.Is(err, context.DeadlineExceeded):
			status = metrics.StatusTimeout
		}
		metrics.RecordConversion(b.Key, status, 0, 0, elapsed)
		logger.Warn("conversion failed", "tables", len(tables), "error", err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.XLSX(&buf, result.Records); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	conv := &Conversion{
		ID:         id,
		Backend:    b.Key,
		FileName:   filepath.Base(fileName),
		OutputName: export.FileName(fileName, export.FormatXLSX),
		Records:    result.Records,
		Reports:    result.Reports,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
		Workbook:   buf.Bytes(),
	}
	metrics.RecordConversion(b.Key, metrics.StatusOK, len(conv.Records), result.Skipped(), elapsed)

	if s.store != nil {
		if err := s.store.Save(ctx, conv); err != nil {
			logger.Error("failed to save conversion", "error", err)
		}
	}

	logger.Info("conversion completed",
		"records", len(conv.Records),
		"tables", len(tables),
		"skipped", result.Skipped(),
		"duration_ms", conv.DurationMs,
	)
	return conv, nil
}
