// Package main is the entry point for the trading simulator server.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/johnkiller1245/investment-trading-platform/internal/clients/yahoo"
	"github.com/johnkiller1245/investment-trading-platform/internal/config"
	"github.com/johnkiller1245/investment-trading-platform/internal/database"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/accounts"
	accounthandlers "github.com/johnkiller1245/investment-trading-platform/internal/modules/accounts/handlers"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/portfolio"
	portfoliohandlers "github.com/johnkiller1245/investment-trading-platform/internal/modules/portfolio/handlers"
	"github.com/johnkiller1245/investment-trading-platform/internal/modules/trading"
	tradinghandlers "github.com/johnkiller1245/investment-trading-platform/internal/modules/trading/handlers"
	"github.com/johnkiller1245/investment-trading-platform/internal/quotecache"
	"github.com/johnkiller1245/investment-trading-platform/internal/scheduler"
	"github.com/johnkiller1245/investment-trading-platform/internal/server"
	"github.com/johnkiller1245/investment-trading-platform/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize logging
// 3. Open the ledger and cache databases and apply schemas
// 4. Wire repositories, services, and handlers
// 5. Start the background scheduler and HTTP server
// 6. Wait for a shutdown signal and stop everything gracefully
//
// The application uses a 2-database architecture:
// - ledger.db: Financial state and audit trail (accounts, positions, transactions)
// - cache.db: Ephemeral operational data (quote cache, sessions)
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting trading simulator")

	// Ledger gets the maximum-safety profile: money must survive a crash.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	// Cache data is fully rebuildable, so it trades durability for speed.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{ledgerDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to apply schema")
		}
	}

	// Repositories
	quoteCacheRepo := quotecache.NewRepository(cacheDB.Conn())
	accountRepo := accounts.NewRepository(ledgerDB.Conn(), log)
	sessionRepo := accounts.NewSessionRepository(cacheDB.Conn(), log)
	ledgerRepo := trading.NewLedgerRepository(ledgerDB.Conn(), log)

	// Market data client (cache-first, stale fallback on provider errors)
	yahooClient := yahoo.NewClient(quoteCacheRepo, cfg.QuoteTTL, cfg.QuoteTimeout, log)

	// Services
	accountService := accounts.NewService(accountRepo, sessionRepo, cfg.StartingBalance, cfg.SessionTTL, log)
	tradingService := trading.NewService(ledgerRepo, yahooClient, log)
	portfolioService := portfolio.NewService(ledgerRepo, yahooClient, log)

	// HTTP handlers
	accountHandler := accounthandlers.NewHandler(accountService, log)
	tradingHandler := tradinghandlers.NewHandler(tradingService, yahooClient, log)
	portfolioHandler := portfoliohandlers.NewHandler(portfolioService, log)

	// Background maintenance jobs
	sched := scheduler.New(log)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{"@every 10m", quotecache.NewCleanupJob(quoteCacheRepo, log)},
		{"@hourly", accounts.NewSessionCleanupJob(sessionRepo, log)},
		{"0 3 * * *", scheduler.NewWALCheckpointJob(log, ledgerDB, cacheDB)},
	}
	for _, j := range jobs {
		if err := sched.Register(j.spec, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		LedgerDB:         ledgerDB,
		CacheDB:          cacheDB,
		AccountService:   accountService,
		AccountHandler:   accountHandler,
		TradingHandler:   tradingHandler,
		PortfolioHandler: portfolioHandler,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight requests get up to 10 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
