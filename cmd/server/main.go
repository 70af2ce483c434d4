// Package main is the entry point for the wheeltrack portfolio service.
// It records wheel-strategy trades in an append-only ledger and serves the
// derived portfolio summary and performance views over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sambutler/wheeltrack/internal/clientdata"
	"github.com/sambutler/wheeltrack/internal/clients/exchangerate"
	"github.com/sambutler/wheeltrack/internal/clients/yahoo"
	"github.com/sambutler/wheeltrack/internal/config"
	"github.com/sambutler/wheeltrack/internal/database"
	"github.com/sambutler/wheeltrack/internal/modules/performance"
	performancehandlers "github.com/sambutler/wheeltrack/internal/modules/performance/handlers"
	"github.com/sambutler/wheeltrack/internal/modules/summary"
	summaryhandlers "github.com/sambutler/wheeltrack/internal/modules/summary/handlers"
	"github.com/sambutler/wheeltrack/internal/modules/trades"
	tradeshandlers "github.com/sambutler/wheeltrack/internal/modules/trades/handlers"
	"github.com/sambutler/wheeltrack/internal/reliability"
	"github.com/sambutler/wheeltrack/internal/scheduler"
	"github.com/sambutler/wheeltrack/internal/server"
	"github.com/sambutler/wheeltrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("benchmark", cfg.BenchmarkSymbol).
		Msg("Starting wheeltrack")

	// Ledger: the append-only trade log, maximum durability.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	// Cache: upstream API responses, rebuildable, maximum speed.
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
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories and API clients
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	tradeRepo := trades.NewRepository(ledgerDB.Conn(), log)
	rateClient := exchangerate.NewClient(cacheRepo, log)
	priceClient := yahoo.NewClient(cacheRepo, log)

	// Services
	summaryService := summary.NewService(tradeRepo, priceClient, rateClient, cfg.BaseCurrency, cfg.QuoteCurrency, log)
	performanceService := performance.NewService(tradeRepo, priceClient, cfg.BenchmarkSymbol, log)

	// Background jobs
	sched := scheduler.New(log)
	registerJob := func(schedule string, job scheduler.Job) {
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	registerJob("@hourly", clientdata.NewCleanupJob(cacheRepo, log))
	registerJob("30 6 * * *", yahoo.NewWarmJob(priceClient, tradeRepo, cfg.BenchmarkSymbol, log))

	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage")
		}
		backupService := reliability.NewBackupService(ledgerDB, s3Client, cfg.DataDir, log)
		registerJob("15 3 * * *", reliability.NewBackupJob(backupService, log))
	} else {
		log.Info().Msg("Ledger backups disabled (no S3 endpoint configured)")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:                 log,
		Config:              cfg,
		LedgerDB:            ledgerDB,
		CacheDB:             cacheDB,
		TradeHandlers:       tradeshandlers.NewTradeHandlers(tradeRepo, rateClient, cfg.BaseCurrency, cfg.QuoteCurrency, log),
		SummaryHandlers:     summaryhandlers.NewSummaryHandlers(summaryService, log),
		PerformanceHandlers: performancehandlers.NewPerformanceHandlers(performanceService, cfg.ChartsDir(), log),
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
