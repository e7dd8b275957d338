package report

import (
	"context"
	"fmt"
	"time"

	"latte/internal/cache"
	"latte/internal/core"
)

const (
	// trendWindowDays is the trailing window of the monthly trend.
	trendWindowDays = 365
	// detailWindowDays is the trailing window of the per-record detail.
	detailWindowDays = 180
)

// Store is the read-only query surface the engine needs. It is
// satisfied by *storage.Repository; tests supply fakes.
type Store interface {
	Farms(ctx context.Context) ([]string, error)
	Animals(ctx context.Context, farm string) ([]core.Animal, error)
	Animal(ctx context.Context, earTag string) (core.Animal, error)

	FarmTotals(ctx context.Context, farm string) (liters float64, days int, err error)
	FarmAnnual(ctx context.Context, farm string) ([]core.AnnualProduction, error)
	FarmMonthlyLiters(ctx context.Context, farm string, since core.Date) ([]core.MonthSum, error)
	FarmMonthlySessions(ctx context.Context, farm string, since core.Date) ([]core.MonthCount, error)

	AnimalTotals(ctx context.Context, earTag string) (liters float64, days int, err error)
	AnimalAnnual(ctx context.Context, earTag string) ([]core.AnnualProduction, error)
	AnimalMonthlyLiters(ctx context.Context, earTag string, since core.Date) ([]core.MonthSum, error)
	AnimalMonthlySessions(ctx context.Context, earTag string, since core.Date) ([]core.MonthCount, error)
	AnimalSpan(ctx context.Context, earTag string) (first, last core.Date, ok bool, err error)
	AnimalStats(ctx context.Context, earTag string) (*core.YieldStats, error)
	AnimalRecords(ctx context.Context, earTag string, since core.Date) ([]core.YieldRecord, error)
}

// Engine computes the farm-level and animal-level reporting views.
// Every call is independently re-executable; the optional caches are a
// performance shortcut, never a correctness mechanism, and their keys
// embed the as-of date so results cannot survive a day rollover.
type Engine struct {
	store       Store
	now         func() time.Time
	farmCache   cache.Cache[core.FarmSummary]
	animalCache cache.Cache[core.AnimalSummary]
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the time source used for trailing windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFarmCache memoizes farm summaries.
func WithFarmCache(c cache.Cache[core.FarmSummary]) Option {
	return func(e *Engine) { e.farmCache = c }
}

// WithAnimalCache memoizes animal summaries.
func WithAnimalCache(c cache.Cache[core.AnimalSummary]) Option {
	return func(e *Engine) { e.animalCache = c }
}

// NewEngine creates a reporting engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current calendar day.
func (e *Engine) Today() core.Date {
	return core.DateOf(e.now())
}

// Farms lists the known farm names.
func (e *Engine) Farms(ctx context.Context) ([]string, error) {
	farms, err := e.store.Farms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	return farms, nil
}

// Animals lists the animals of a farm.
func (e *Engine) Animals(ctx context.Context, farm string) ([]core.Animal, error) {
	animals, err := e.store.Animals(ctx, farm)
	if err != nil {
		return nil, fmt.Errorf("list animals for farm %q: %w", farm, err)
	}
	return animals, nil
}

// Animal looks up a single animal; unknown tags surface
// core.ErrAnimalNotFound.
func (e *Engine) Animal(ctx context.Context, earTag string) (core.Animal, error) {
	animal, err := e.store.Animal(ctx, earTag)
	if err != nil {
		return core.Animal{}, fmt.Errorf("look up animal %q: %w", earTag, err)
	}
	return animal, nil
}

// FarmSummary computes the full farm-scoped report. A farm with no
// records yields zero totals and empty series, never an error.
func (e *Engine) FarmSummary(ctx context.Context, farm string) (core.FarmSummary, error) {
	today := e.Today()
	key := scopeKey(farm, today)

	if e.farmCache != nil {
		if cached, ok := e.farmCache.Get(key); ok {
			return cached, nil
		}
	}

	summary := core.FarmSummary{Farm: farm}

	liters, days, err := e.store.FarmTotals(ctx, farm)
	if err != nil {
		return core.FarmSummary{}, fmt.Errorf("farm summary for %q: %w", farm, err)
	}
	summary.TotalLiters = liters
	summary.LactationDays = days

	annual, err := e.store.FarmAnnual(ctx, farm)
	if err != nil {
		return core.FarmSummary{}, fmt.Errorf("farm summary for %q: %w", farm, err)
	}
	summary.Annual = fillAvgDaily(annual)

	summary.Trend, err = e.monthlyTrend(ctx, farm, today,
		e.store.FarmMonthlyLiters, e.store.FarmMonthlySessions)
	if err != nil {
		return core.FarmSummary{}, fmt.Errorf("farm summary for %q: %w", farm, err)
	}

	animals, err := e.store.Animals(ctx, farm)
	if err != nil {
		return core.FarmSummary{}, fmt.Errorf("farm summary for %q: %w", farm, err)
	}
	summary.AnimalsRegistered = len(animals)

	if e.farmCache != nil {
		e.farmCache.Set(key, summary)
	}
	return summary, nil
}

// AnimalSummary computes the full animal-scoped report. A known animal
// with zero records yields zero totals, nil stats, and empty series;
// an unknown ear tag is core.ErrAnimalNotFound.
func (e *Engine) AnimalSummary(ctx context.Context, earTag string) (core.AnimalSummary, error) {
	today := e.Today()
	key := scopeKey(earTag, today)

	if e.animalCache != nil {
		if cached, ok := e.animalCache.Get(key); ok {
			return cached, nil
		}
	}

	animal, err := e.store.Animal(ctx, earTag)
	if err != nil {
		return core.AnimalSummary{}, err
	}

	summary := core.AnimalSummary{
		EarTag:    animal.EarTag,
		Farm:      animal.Farm,
		BirthDate: animal.BirthDate,
	}

	liters, days, err := e.store.AnimalTotals(ctx, earTag)
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}
	summary.TotalLiters = liters
	summary.LactationDays = days

	// Inclusive span between first and last record; an animal without
	// records falls back to its lactation-day count, which is zero.
	first, last, ok, err := e.store.AnimalSpan(ctx, earTag)
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}
	if ok {
		summary.DurationDays = first.DaysUntil(last) + 1
	} else {
		summary.DurationDays = days
	}

	summary.Stats, err = e.store.AnimalStats(ctx, earTag)
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}

	annual, err := e.store.AnimalAnnual(ctx, earTag)
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}
	summary.Annual = fillAvgDaily(annual)

	summary.Trend, err = e.monthlyTrend(ctx, earTag, today,
		e.store.AnimalMonthlyLiters, e.store.AnimalMonthlySessions)
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}

	summary.Recent, err = e.store.AnimalRecords(ctx, earTag, today.AddDays(-detailWindowDays))
	if err != nil {
		return core.AnimalSummary{}, fmt.Errorf("animal summary for %q: %w", earTag, err)
	}

	if e.animalCache != nil {
		e.animalCache.Set(key, summary)
	}
	return summary, nil
}

type (
	monthLitersFn   func(ctx context.Context, scope string, since core.Date) ([]core.MonthSum, error)
	monthSessionsFn func(ctx context.Context, scope string, since core.Date) ([]core.MonthCount, error)
)

// monthlyTrend loads both month-keyed series over the trailing window
// and merges them. The two scopes differ only in the session predicate
// their store queries apply; the merge itself is shared.
func (e *Engine) monthlyTrend(ctx context.Context, scope string, today core.Date, liters monthLitersFn, sessions monthSessionsFn) ([]core.MonthlyTrendPoint, error) {
	since := today.AddDays(-trendWindowDays)

	sums, err := liters(ctx, scope, since)
	if err != nil {
		return nil, fmt.Errorf("monthly liters: %w", err)
	}
	counts, err := sessions(ctx, scope, since)
	if err != nil {
		return nil, fmt.Errorf("monthly sessions: %w", err)
	}
	return MergeMonthly(sums, counts), nil
}

// fillAvgDaily derives the one-decimal average-daily column. Rows exist
// only for years with at least one record, so days is always positive;
// the guard stays anyway so a malformed row can never divide by zero.
func fillAvgDaily(annual []core.AnnualProduction) []core.AnnualProduction {
	for i := range annual {
		if avg, ok := core.AvgDaily(annual[i].Liters, annual[i].Days); ok {
			annual[i].AvgDaily = avg
		}
	}
	return annual
}

func scopeKey(scope string, asOf core.Date) string {
	return scope + "@" + asOf.String()
}
