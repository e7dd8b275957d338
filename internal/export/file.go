package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"latte/internal/core"
)

// FileSink writes annual reports as CSV files under a fixed directory.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink creates a sink writing into dir, creating it on demand.
func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Name() string { return "file" }

// Export writes <scope>_annual_report.csv, replacing any previous
// export for the same scope.
func (s *FileSink) Export(ctx context.Context, scope string, rows []core.AnnualProduction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(s.dir, ReportFilename(scope))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := WriteAnnualReport(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("export %q: %w", scope, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	s.logger.Info("annual report exported",
		zap.String("scope", scope),
		zap.String("path", path),
		zap.Int("years", len(rows)))
	return nil
}
