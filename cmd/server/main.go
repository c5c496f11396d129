// Package main is the entry point for the yieldfolio dividend-income tracker.
// It serves the market-data, portfolio and projected-dividend APIs and runs the
// background jobs that keep projections, prices and backups current.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/yieldfolio/internal/config"
	"github.com/aristath/yieldfolio/internal/di"
	"github.com/aristath/yieldfolio/internal/server"
	"github.com/aristath/yieldfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting yieldfolio")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		DB:        container.DB,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Market:    container.MarketData,
		Providers: container.MarketData.Providers(),
		Portfolio: container.PortfolioService,
		Entries:   container.EntryRepo,
		Jobs:      jobs.All(),
		Runner:    container.Scheduler,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	// Catch up on projections missed while the process was down
	go func() {
		if err := container.Scheduler.RunNow(jobs.ProjectDividends); err != nil {
			log.Warn().Err(err).Msg("Startup dividend projection incomplete")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
