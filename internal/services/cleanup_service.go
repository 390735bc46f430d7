package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/repositories"
)

// RevokedTokenGrace keeps revoked refresh tokens around briefly so a replayed
// token is reported as revoked rather than unknown.
const RevokedTokenGrace = 24 * time.Hour

// CleanupService periodically removes expired token bookkeeping and old audit entries.
type CleanupService struct {
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	auditService         AuditServiceInterface
	metrics              MetricsRecorderInterface
	cfg                  config.MaintenanceConfig
	logger               *slog.Logger
}

func NewCleanupService(
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	cfg config.MaintenanceConfig,
	logger *slog.Logger,
) CleanupServiceInterface {
	return &CleanupService{
		refreshTokenRepo:     refreshTokenRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		auditService:         auditService,
		metrics:              metrics,
		cfg:                  cfg,
		logger:               logger,
	}
}

// Start runs a pass immediately and then on every tick until ctx is cancelled.
// It returns nil on cancellation so it can sit in an errgroup beside the server.
func (s *CleanupService) Start(ctx context.Context) error {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	s.logger.Info("starting maintenance worker", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("maintenance run failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("maintenance worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs every cleanup step; a failing step does not stop the others.
func (s *CleanupService) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	started := time.Now()

	steps := []struct {
		kind string
		run  func() (int64, error)
	}{
		{"refresh_tokens_expired", s.refreshTokenRepo.DeleteExpired},
		{"refresh_tokens_revoked", func() (int64, error) {
			return s.refreshTokenRepo.DeleteRevokedOlderThan(RevokedTokenGrace)
		}},
		{"blacklisted_tokens", s.blacklistedTokenRepo.DeleteExpired},
		{"audit_logs", func() (int64, error) {
			return s.auditService.PurgeOlderThan(ctx, s.cfg.AuditRetention)
		}},
	}

	var errs []error
	for _, step := range steps {
		deleted, err := step.run()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.kind, err))
			continue
		}
		if deleted > 0 {
			s.logger.Debug("maintenance removed rows",
				slog.String("kind", step.kind),
				slog.Int64("deleted", deleted))
		}
		if s.metrics != nil {
			s.metrics.RecordGauge("cleanup_deleted", float64(deleted), map[string]string{"kind": step.kind})
		}
	}

	if s.metrics != nil {
		s.metrics.RecordProcessingTime("cleanup", time.Since(started))
	}

	return errors.Join(errs...)
}
