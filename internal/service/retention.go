package service

// retention.go removes conversions older than the configured retention.
// It runs as a long-lived background job and logs failures without stopping.

import (
	"context"
	"time"

	"github.com/JonMunkholm/regmap/internal/logging"
	"github.com/JonMunkholm/regmap/internal/metrics"
)

// StartRetention purges old conversions now and then every CheckInterval
// until ctx is cancelled. It returns immediately when history is disabled.
func (s *Service) StartRetention(ctx context.Context) {
	if s.store == nil {
		return
	}
	cfg := s.history
	logger := logging.FromContext(ctx)
	logger.Info("history retention started",
		"retention_days", cfg.RetentionDays,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	s.runRetention(ctx)

	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("history retention stopped")
			return
		case <-ticker.C:
			s.runRetention(ctx)
		}
	}
}

func (s *Service) runRetention(ctx context.Context) {
	start := time.Now()
	purged, err := s.store.Purge(ctx, s.history.RetentionDays, s.history.BatchSize)
	if err != nil {
		logging.FromContext(ctx).Error("history purge failed", "error", err)
		return
	}
	metrics.HistoryPurged.Add(float64(purged))
	logging.FromContext(ctx).Info("purged old conversions",
		"conversions_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
