package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/yieldfolio/internal/clients/alphavantage"
	"github.com/aristath/yieldfolio/internal/clients/finnhub"
	"github.com/aristath/yieldfolio/internal/clients/yahoo"
	"github.com/aristath/yieldfolio/internal/config"
	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/marketdata"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/aristath/yieldfolio/internal/reliability"
	"github.com/rs/zerolog"
)

// BuildProviders creates the market-data providers in the configured order.
// Providers that need an API key are skipped when none is set.
func BuildProviders(cfg *config.Config, log zerolog.Logger) []domain.MarketDataProvider {
	var providers []domain.MarketDataProvider

	for _, name := range cfg.MarketProviders {
		switch name {
		case config.ProviderFinnhub:
			if cfg.FinnhubAPIKey == "" {
				log.Warn().Str("provider", name).Msg("No API key configured, provider disabled")
				continue
			}
			providers = append(providers, finnhub.NewAdapter(finnhub.NewClient(cfg.FinnhubAPIKey, log)))

		case config.ProviderAlphaVantage:
			if cfg.AlphaVantageAPIKey == "" {
				log.Warn().Str("provider", name).Msg("No API key configured, provider disabled")
				continue
			}
			client := alphavantage.NewClient(cfg.AlphaVantageAPIKey, log)
			client.SetDailyLimit(cfg.AlphaVantageDailyLimit)
			providers = append(providers, alphavantage.NewAdapter(client))

		case config.ProviderYahoo:
			providers = append(providers, yahoo.NewAdapter(yahoo.NewClient(log)))
		}
	}

	return providers
}

// InitializeServices creates the market-data aggregator, the dividend generator,
// the portfolio service and, when a bucket is configured, the backup service
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.HoldingRepo == nil || container.EntryRepo == nil {
		return fmt.Errorf("repositories must be initialized before services")
	}

	container.Providers = BuildProviders(cfg, log)
	if len(container.Providers) == 0 {
		log.Warn().Msg("No market-data providers available; quotes will be zero-filled")
	}

	container.MarketData = marketdata.NewService(
		container.Providers,
		marketdata.Timeouts{
			Quote:     cfg.QuoteTimeout,
			Overview:  cfg.OverviewTimeout,
			Dividends: cfg.DividendsTimeout,
			Search:    cfg.SearchTimeout,
			History:   cfg.HistoryTimeout,
		},
		cfg.SearchEnrichLimit,
		log,
	)

	container.Generator = dividends.NewGenerator(container.EntryRepo, container.HoldingRepo, log)
	container.PortfolioService = portfolio.NewService(
		container.HoldingRepo,
		container.EntryRepo,
		container.Generator,
		container.MarketData,
		log,
	)

	if cfg.Backup.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		uploader, err := reliability.NewS3Uploader(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup uploader: %w", err)
		}
		container.BackupService = reliability.NewBackupService(container.DB, uploader, cfg.DataDir, cfg.Backup.Prefix, log)
	} else {
		log.Info().Msg("Backups disabled (no bucket configured)")
	}

	return nil
}
