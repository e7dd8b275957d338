// latte-export runs one export cycle and exits, for cron-less
// deployments and ad-hoc ops use.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"latte/internal/config"
	"latte/internal/export"
	"latte/internal/log"
	"latte/internal/report"
	"latte/internal/scheduler"
	"latte/internal/storage"
)

func main() {
	farm := flag.String("farm", "", "export a single farm instead of all farms")
	flag.Parse()

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

	engine := report.NewEngine(repo)

	sinks := []export.Sink{
		export.NewFileSink(cfg.ExportDir, log.Named(logger, "export")),
	}
	if cfg.SheetsConfigured() {
		sheetsSink, err := export.NewSheetsSink(context.Background(),
			cfg.GoogleCredentialsFile, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
			log.Named(logger, "export"))
		if err != nil {
			logger.Fatal("failed to configure sheets sink", zap.Error(err))
		}
		sinks = append(sinks, sheetsSink)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExportTimeout)
	defer cancel()

	if *farm != "" {
		if err := exportOne(ctx, engine, sinks, *farm); err != nil {
			logger.Fatal("export failed", zap.String("farm", *farm), zap.Error(err))
		}
		logger.Info("export finished", zap.String("farm", *farm))
		return
	}

	runner := scheduler.New(engine, sinks, "@daily", cfg.ExportTimeout,
		log.Named(logger, "export"))
	if err := runner.RunOnce(ctx); err != nil {
		logger.Fatal("export cycle failed", zap.Error(err))
	}
	logger.Info("export cycle finished")
}

func exportOne(ctx context.Context, engine *report.Engine, sinks []export.Sink, farm string) error {
	summary, err := engine.FarmSummary(ctx, farm)
	if err != nil {
		return err
	}
	for _, sink := range sinks {
		if err := sink.Export(ctx, farm, summary.Annual); err != nil {
			return err
		}
	}
	return nil
}
