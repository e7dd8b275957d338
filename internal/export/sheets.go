package export

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"latte/internal/core"
)

// SheetsSink mirrors annual reports into a Google spreadsheet. The
// configured worksheet holds one section per exported scope, so a
// multi-farm export cycle leaves every farm's report in place instead
// of only the last one written. Exports against the same sink are
// serialized: the Clear/Update pair is not atomic on the Sheets side,
// and the scheduler fans out over farms concurrently.
type SheetsSink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	logger        *zap.Logger

	mu      sync.Mutex
	reports map[string][]core.AnnualProduction
}

// NewSheetsSink builds a Sheets-backed sink using service-account
// credentials from credentialsFile.
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zap.Logger) (*SheetsSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}

	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		reports:       make(map[string][]core.AnnualProduction),
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Export records the scope's rows and rewrites the worksheet with
// every scope exported so far, one block per scope in name order.
func (s *SheetsSink) Export(ctx context.Context, scope string, rows []core.AnnualProduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[scope] = rows
	values := annualSheetValues(s.reports)

	if _, err := s.service.Spreadsheets.Values.
		Clear(s.spreadsheetID, s.sheetName, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear worksheet %q: %w", s.sheetName, err)
	}

	payload := &sheetsapi.ValueRange{Values: values}
	if _, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, s.sheetName+"!A1", payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("update worksheet %q: %w", s.sheetName, err)
	}

	s.logger.Info("annual reports mirrored to spreadsheet",
		zap.String("scope", scope),
		zap.String("sheet", s.sheetName),
		zap.Int("scopes", len(s.reports)),
		zap.Int("years", len(rows)))
	return nil
}

// annualSheetValues flattens the per-scope reports into worksheet
// cells: a shared header row, then each scope's rows grouped together,
// scopes in lexical order so reruns produce identical layouts.
func annualSheetValues(reports map[string][]core.AnnualProduction) [][]any {
	scopes := make([]string, 0, len(reports))
	for scope := range reports {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	header := make([]any, 0, len(AnnualHeader)+1)
	header = append(header, "Scope")
	for _, h := range AnnualHeader {
		header = append(header, h)
	}

	values := [][]any{header}
	for _, scope := range scopes {
		for _, row := range reports[scope] {
			values = append(values, []any{
				scope,
				strconv.Itoa(row.Year),
				FormatWhole(row.Liters),
				FormatWhole(float64(row.Days)),
				FormatTenth(row.AvgDaily),
			})
		}
	}
	return values
}
