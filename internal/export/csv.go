package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"latte/internal/core"
)

// AnnualHeader is the fixed column set of the annual report.
var AnnualHeader = []string{"Year", "Total Liters", "Days Milked", "Avg Daily (L)"}

// WriteAnnualReport renders the annual breakdown as UTF-8 CSV: one row
// per year, liters and days with thousands separators and no decimals,
// the average with one decimal. Empty input produces a header-only
// file.
func WriteAnnualReport(w io.Writer, rows []core.AnnualProduction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(AnnualHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Year),
			FormatWhole(row.Liters),
			FormatWhole(float64(row.Days)),
			FormatTenth(row.AvgDaily),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for year %d: %w", row.Year, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FormatWhole renders a value rounded to a whole number with thousands
// separators, e.g. 12345.6 -> "12,346".
func FormatWhole(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	return groupThousands(d.String())
}

// FormatTenth renders a value with exactly one decimal and thousands
// separators, e.g. 1234.56 -> "1,234.6".
func FormatTenth(v float64) string {
	s := decimal.NewFromFloat(v).Round(1).StringFixed(1)
	intPart, frac, _ := strings.Cut(s, ".")
	return groupThousands(intPart) + "." + frac
}

// groupThousands inserts commas into a plain integer string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// ReportFilename is the canonical download/export name for a scope's
// annual report.
func ReportFilename(scope string) string {
	return SanitizeScope(scope) + "_annual_report.csv"
}

// SanitizeScope makes a farm name or ear tag safe for use as a file
// name component.
func SanitizeScope(scope string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		case r == ' ':
			return '_'
		default:
			return '_'
		}
	}, strings.TrimSpace(scope))

	if sanitized == "" {
		return "report"
	}
	return sanitized
}
