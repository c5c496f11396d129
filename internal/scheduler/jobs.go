package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/aristath/yieldfolio/internal/reliability"
	"github.com/aristath/yieldfolio/internal/utils"
	"github.com/rs/zerolog"
)

// Default per-run deadlines
const (
	DefaultProjectionTimeout = 10 * time.Minute
	DefaultRefreshTimeout    = 10 * time.Minute
	DefaultBackupTimeout     = 30 * time.Minute
)

// ScheduleRegenerator regenerates projected dividends for every owner
type ScheduleRegenerator interface {
	RegenerateAll(ctx context.Context) (dividends.Summary, error)
}

// PriceRefresher refreshes cached market data on stored holdings
type PriceRefresher interface {
	RefreshAll(ctx context.Context) ([]portfolio.RefreshResult, error)
}

// BackupRunner uploads a database backup and prunes old ones
type BackupRunner interface {
	CreateAndUploadBackup(ctx context.Context) (*reliability.BackupInfo, error)
	RotateOldBackups(ctx context.Context, retentionDays int) (int, error)
}

// ProjectDividendsJob keeps every holding's projected dividends generated as the
// calendar rolls into a new year
type ProjectDividendsJob struct {
	service ScheduleRegenerator
	timeout time.Duration
	log     zerolog.Logger
}

// NewProjectDividendsJob creates a new ProjectDividendsJob
func NewProjectDividendsJob(service ScheduleRegenerator, log zerolog.Logger) *ProjectDividendsJob {
	return &ProjectDividendsJob{
		service: service,
		timeout: DefaultProjectionTimeout,
		log:     log.With().Str("job", "project_dividends").Logger(),
	}
}

// Name returns the job name
func (j *ProjectDividendsJob) Name() string {
	return "project_dividends"
}

// Run executes the projection for every owner
func (j *ProjectDividendsJob) Run() error {
	defer utils.OperationTimer(j.Name(), j.log)()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	summary, err := j.service.RegenerateAll(ctx)
	j.log.Info().
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Dividend projection finished")

	if err != nil {
		return fmt.Errorf("dividend projection: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("dividend projection: %d holdings failed", summary.Failed)
	}
	return nil
}

// RefreshPricesJob refreshes cached prices, dividends and payout frequencies on holdings
type RefreshPricesJob struct {
	service PriceRefresher
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshPricesJob creates a new RefreshPricesJob
func NewRefreshPricesJob(service PriceRefresher, log zerolog.Logger) *RefreshPricesJob {
	return &RefreshPricesJob{
		service: service,
		timeout: DefaultRefreshTimeout,
		log:     log.With().Str("job", "refresh_prices").Logger(),
	}
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Run executes the refresh. Symbols without data are logged, not returned.
func (j *RefreshPricesJob) Run() error {
	defer utils.OperationTimer(j.Name(), j.log)()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	results, err := j.service.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}

	updated := 0
	for _, r := range results {
		if r.Updated {
			updated++
			continue
		}
		j.log.Warn().Str("symbol", r.Symbol).Str("reason", r.Error).Msg("Symbol not refreshed")
	}

	j.log.Info().
		Int("symbols", len(results)).
		Int("updated", updated).
		Msg("Price refresh finished")
	return nil
}

// BackupJob uploads a database snapshot and rotates old backups
type BackupJob struct {
	backups       BackupRunner
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(backups BackupRunner, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		timeout:       DefaultBackupTimeout,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup followed by rotation. Rotation is skipped when the upload fails.
func (j *BackupJob) Run() error {
	defer utils.OperationTimer(j.Name(), j.log)()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	if _, err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		return fmt.Errorf("backup rotation: %w", err)
	}
	return nil
}
