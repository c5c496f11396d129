package di

import (
	"fmt"

	"github.com/aristath/yieldfolio/internal/config"
	"github.com/aristath/yieldfolio/internal/reliability"
	"github.com/aristath/yieldfolio/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and schedules them on a new scheduler.
// The scheduler is stored on the container but not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container.PortfolioService == nil {
		return nil, fmt.Errorf("services must be initialized before jobs")
	}

	jobs := &JobInstances{
		ProjectDividends: scheduler.NewProjectDividendsJob(container.PortfolioService, log),
		RefreshPrices:    scheduler.NewRefreshPricesJob(container.PortfolioService, log),
		Maintenance:      reliability.NewMaintenanceJob(container.DB, cfg.DataDir, log),
	}
	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	sched := scheduler.New(log)

	if err := sched.AddJob(cfg.ProjectionSchedule, jobs.ProjectDividends); err != nil {
		return nil, err
	}
	if err := sched.AddJob(cfg.PriceRefreshSchedule, jobs.RefreshPrices); err != nil {
		return nil, err
	}
	if err := sched.AddJob(cfg.MaintenanceSchedule, jobs.Maintenance); err != nil {
		return nil, err
	}
	if jobs.Backup != nil {
		if err := sched.AddJob(cfg.BackupSchedule, jobs.Backup); err != nil {
			return nil, err
		}
	}

	container.Scheduler = sched
	return jobs, nil
}
