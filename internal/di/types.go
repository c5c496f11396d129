package di

import (
	"github.com/aristath/yieldfolio/internal/database"
	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/marketdata"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/aristath/yieldfolio/internal/reliability"
	"github.com/aristath/yieldfolio/internal/scheduler"
)

// Container holds every long-lived dependency of the application
type Container struct {
	// Database
	DB *database.DB

	// Market data
	Providers  []domain.MarketDataProvider // Priority order
	MarketData *marketdata.Service

	// Repositories
	HoldingRepo *portfolio.HoldingRepository
	EntryRepo   *dividends.EntryRepository

	// Services
	Generator        *dividends.Generator
	PortfolioService *portfolio.Service
	BackupService    *reliability.BackupService // nil when no backup bucket is configured

	Scheduler *scheduler.Scheduler
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	ProjectDividends *scheduler.ProjectDividendsJob
	RefreshPrices    *scheduler.RefreshPricesJob
	Maintenance      *reliability.MaintenanceJob
	Backup           *scheduler.BackupJob // nil when backups are disabled
}

// All returns the registered jobs, skipping disabled ones
func (j *JobInstances) All() []scheduler.Job {
	jobs := []scheduler.Job{j.ProjectDividends, j.RefreshPrices, j.Maintenance}
	if j.Backup != nil {
		jobs = append(jobs, j.Backup)
	}
	return jobs
}
