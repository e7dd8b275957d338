package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"latte/internal/cache"
	"latte/internal/config"
	"latte/internal/core"
	"latte/internal/export"
	apphttp "latte/internal/http"
	"latte/internal/log"
	"latte/internal/report"
	"latte/internal/scheduler"
	"latte/internal/storage"
)

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	logger := log.Must(log.New(os.Getenv("LOG_LEVEL")))
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("configuration validation failed", zap.Error(err))
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.SQLiteDBPath))
	}
	defer repo.Close()

	farmCache := cache.NewLRUCache[core.FarmSummary](cfg.CacheMaxEntries, cfg.CacheTTL)
	animalCache := cache.NewLRUCache[core.AnimalSummary](cfg.CacheMaxEntries, cfg.CacheTTL)

	cacheManager := cache.NewManager(log.Named(logger, "cache"))
	cacheManager.Register(farmCache)
	cacheManager.Register(animalCache)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	engine := report.NewEngine(repo,
		report.WithFarmCache(farmCache),
		report.WithAnimalCache(animalCache))

	if cfg.ExportSchedule != "" {
		sinks, err := buildSinks(cfg, logger)
		if err != nil {
			logger.Fatal("failed to configure export sinks", zap.Error(err))
		}
		sched := scheduler.New(engine, sinks, cfg.ExportSchedule, cfg.ExportTimeout,
			log.Named(logger, "scheduler"))
		if err := sched.Start(); err != nil {
			logger.Fatal("failed to start export scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := apphttp.NewServer(":"+cfg.Port, engine, repo, cfg.CORSAllowedOrigins,
		log.Named(logger, "http"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting latte server", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}

// buildSinks assembles the export destinations: always the CSV
// directory, plus the spreadsheet mirror when configured.
func buildSinks(cfg *config.Config, logger *zap.Logger) ([]export.Sink, error) {
	sinks := []export.Sink{
		export.NewFileSink(cfg.ExportDir, log.Named(logger, "export")),
	}

	if cfg.SheetsConfigured() {
		sheetsSink, err := export.NewSheetsSink(context.Background(),
			cfg.GoogleCredentialsFile, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
			log.Named(logger, "export"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sheetsSink)
	}
	return sinks, nil
}
