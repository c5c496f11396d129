package di

import (
	"fmt"

	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container has no database")
	}

	conn := container.DB.Conn()
	container.HoldingRepo = portfolio.NewHoldingRepository(conn, log)
	container.EntryRepo = dividends.NewEntryRepository(conn, log)

	return nil
}
