package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day with no time-of-day component, always UTC.
	Date struct {
		time.Time
	}

	// Animal is a registered animal owned by the external ingestion
	// process; this engine only reads it.
	Animal struct {
		EarTag    string
		Farm      string
		BirthDate *Date
	}

	// YieldRecord is a single recorded milking session. Several records
	// may share a date.
	YieldRecord struct {
		Date   Date
		Liters float64
	}

	// AnnualProduction is one row of the annual breakdown. Animals is
	// only populated for farm-scoped breakdowns; an animal's own annual
	// rows leave it at zero.
	AnnualProduction struct {
		Year     int
		Liters   float64
		Days     int
		Animals  int
		AvgDaily float64
	}

	// MonthlyTrendPoint is one bucket of the trailing 12-month trend.
	// Sessions means distinct animals at farm scope and record count at
	// animal scope; the asymmetry is intentional.
	MonthlyTrendPoint struct {
		Month    string // YYYY-MM
		Liters   int64
		Sessions int
	}

	// MonthSum is a month-keyed liters subtotal as produced by the store.
	MonthSum struct {
		Month  string
		Liters float64
	}

	// MonthCount is a month-keyed session subtotal as produced by the store.
	MonthCount struct {
		Month    string
		Sessions int
	}

	// YieldStats are descriptive statistics over single-record yields.
	// A scope with zero records has no stats at all; callers receive a
	// nil *YieldStats, never a zeroed one.
	YieldStats struct {
		AvgYield float64
		MaxYield float64
		MinYield float64
	}

	// FarmSummary is the complete farm-scoped report.
	FarmSummary struct {
		Farm              string
		TotalLiters       float64
		LactationDays     int
		AnimalsRegistered int
		Annual            []AnnualProduction
		Trend             []MonthlyTrendPoint
	}

	// AnimalSummary is the complete animal-scoped report.
	AnimalSummary struct {
		EarTag        string
		Farm          string
		BirthDate     *Date
		TotalLiters   float64
		LactationDays int
		DurationDays  int
		Stats         *YieldStats
		Annual        []AnnualProduction
		Trend         []MonthlyTrendPoint
		Recent        []YieldRecord
	}
)

var (
	ErrAnimalNotFound = errors.New("animal not found")
	ErrEmptyFarm      = errors.New("empty farm name")
	ErrEmptyEarTag    = errors.New("empty ear tag")
	ErrInvalidDate    = errors.New("invalid date")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// IsEmpty reports whether the date is unset (optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time) / (24 * time.Hour))
}

// MonthKey returns the YYYY-MM bucket key for the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AgeMonths returns the animal's age in whole months as of today,
// counting a month as 30 days. The second return is false when no
// birth date is recorded.
func (a Animal) AgeMonths(today Date) (int, bool) {
	if a.BirthDate == nil || a.BirthDate.IsEmpty() {
		return 0, false
	}
	days := a.BirthDate.DaysUntil(today)
	if days < 0 {
		return 0, false
	}
	return days / 30, true
}

// Validate checks the identifying fields of an animal.
func (a Animal) Validate() error {
	if strings.TrimSpace(a.EarTag) == "" {
		return ErrEmptyEarTag
	}
	if strings.TrimSpace(a.Farm) == "" {
		return ErrEmptyFarm
	}
	return nil
}
