package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"latte/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the read-only SQLite access layer for the animals and
// milk_yield tables. All aggregation arithmetic (SUM, COUNT DISTINCT,
// AVG, MIN, MAX) lives in SQL; callers receive plain domain values.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if necessary) the SQLite database at
// dbPath, runs migrations, and returns a ready repository.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the underlying handle is still reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Farms returns the distinct, non-empty farm names in lexicographic
// order. Rows with an empty farm_name are excluded.
func (r *Repository) Farms(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT farm_name FROM animals WHERE farm_name <> '' ORDER BY farm_name`)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	defer rows.Close()

	var farms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan farm name: %w", err)
		}
		farms = append(farms, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate farms: %w", err)
	}
	return farms, nil
}

// Animals returns the animals of a farm ordered by ear tag. An unknown
// or empty farm yields an empty slice, not an error.
func (r *Repository) Animals(ctx context.Context, farm string) ([]core.Animal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ear_tag, farm_name, birth_date FROM animals WHERE farm_name = ? ORDER BY ear_tag`,
		farm)
	if err != nil {
		return nil, fmt.Errorf("list animals for farm %q: %w", farm, err)
	}
	defer rows.Close()

	var animals []core.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		animals = append(animals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate animals: %w", err)
	}
	return animals, nil
}

// Animal looks up a single animal by ear tag. An unknown tag returns
// core.ErrAnimalNotFound.
func (r *Repository) Animal(ctx context.Context, earTag string) (core.Animal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT ear_tag, farm_name, birth_date FROM animals WHERE ear_tag = ?`, earTag)

	a, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return core.Animal{}, fmt.Errorf("animal %q: %w", earTag, core.ErrAnimalNotFound)
	}
	if err != nil {
		return core.Animal{}, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnimal(row rowScanner) (core.Animal, error) {
	var (
		a     core.Animal
		birth sql.NullString
	)
	if err := row.Scan(&a.EarTag, &a.Farm, &birth); err != nil {
		if err == sql.ErrNoRows {
			return core.Animal{}, err
		}
		return core.Animal{}, fmt.Errorf("scan animal: %w", err)
	}
	if birth.Valid && birth.String != "" {
		d, err := core.ParseDate(birth.String)
		if err != nil {
			return core.Animal{}, fmt.Errorf("animal %q birth date: %w", a.EarTag, err)
		}
		a.BirthDate = &d
	}
	return a, nil
}

// FarmTotals returns all-time total liters and distinct lactation days
// across every animal of the farm. An empty scope is (0, 0), never an
// error.
func (r *Repository) FarmTotals(ctx context.Context, farm string) (float64, int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(m.yield_value), 0), COUNT(DISTINCT m.record_date)
		   FROM milk_yield m JOIN animals a ON m.ear_tag = a.ear_tag
		  WHERE a.farm_name = ?`, farm)

	var (
		liters float64
		days   int
	)
	if err := row.Scan(&liters, &days); err != nil {
		return 0, 0, fmt.Errorf("farm totals for %q: %w", farm, err)
	}
	return liters, days, nil
}

// FarmAnnual returns the per-year breakdown for a farm, ordered by year
// ascending. Years without records are absent, never zero-filled.
// AvgDaily is left for the reporting layer to derive.
func (r *Repository) FarmAnnual(ctx context.Context, farm string) ([]core.AnnualProduction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.record_year,
		        SUM(m.yield_value),
		        COUNT(DISTINCT m.record_date),
		        COUNT(DISTINCT m.ear_tag)
		   FROM milk_yield m JOIN animals a ON m.ear_tag = a.ear_tag
		  WHERE a.farm_name = ?
		  GROUP BY m.record_year
		  ORDER BY m.record_year`, farm)
	if err != nil {
		return nil, fmt.Errorf("farm annual breakdown for %q: %w", farm, err)
	}
	defer rows.Close()

	var annual []core.AnnualProduction
	for rows.Next() {
		var p core.AnnualProduction
		if err := rows.Scan(&p.Year, &p.Liters, &p.Days, &p.Animals); err != nil {
			return nil, fmt.Errorf("scan annual row: %w", err)
		}
		annual = append(annual, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annual rows: %w", err)
	}
	return annual, nil
}

// FarmMonthlyLiters returns month-keyed liters subtotals for a farm
// since the given date, ordered by month.
func (r *Repository) FarmMonthlyLiters(ctx context.Context, farm string, since core.Date) ([]core.MonthSum, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', m.record_date), SUM(m.yield_value)
		   FROM milk_yield m JOIN animals a ON m.ear_tag = a.ear_tag
		  WHERE a.farm_name = ? AND m.record_date >= ?
		  GROUP BY 1 ORDER BY 1`, farm, since.String())
	if err != nil {
		return nil, fmt.Errorf("farm monthly liters for %q: %w", farm, err)
	}
	return collectMonthSums(rows)
}

// FarmMonthlySessions returns, per month since the given date, the
// number of distinct animals of the farm with at least one record.
// Farm-level "sessions" deliberately count animals, not records; the
// per-record count only exists at animal scope.
func (r *Repository) FarmMonthlySessions(ctx context.Context, farm string, since core.Date) ([]core.MonthCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', m.record_date), COUNT(DISTINCT m.ear_tag)
		   FROM milk_yield m JOIN animals a ON m.ear_tag = a.ear_tag
		  WHERE a.farm_name = ? AND m.record_date >= ?
		  GROUP BY 1 ORDER BY 1`, farm, since.String())
	if err != nil {
		return nil, fmt.Errorf("farm monthly sessions for %q: %w", farm, err)
	}
	return collectMonthCounts(rows)
}

// AnimalTotals returns all-time total liters and distinct lactation
// days for a single animal.
func (r *Repository) AnimalTotals(ctx context.Context, earTag string) (float64, int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(yield_value), 0), COUNT(DISTINCT record_date)
		   FROM milk_yield WHERE ear_tag = ?`, earTag)

	var (
		liters float64
		days   int
	)
	if err := row.Scan(&liters, &days); err != nil {
		return 0, 0, fmt.Errorf("animal totals for %q: %w", earTag, err)
	}
	return liters, days, nil
}

// AnimalAnnual returns the per-year breakdown for a single animal,
// ordered by year ascending. The Animals column stays zero at this
// scope.
func (r *Repository) AnimalAnnual(ctx context.Context, earTag string) ([]core.AnnualProduction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record_year, SUM(yield_value), COUNT(DISTINCT record_date)
		   FROM milk_yield
		  WHERE ear_tag = ?
		  GROUP BY record_year
		  ORDER BY record_year`, earTag)
	if err != nil {
		return nil, fmt.Errorf("animal annual breakdown for %q: %w", earTag, err)
	}
	defer rows.Close()

	var annual []core.AnnualProduction
	for rows.Next() {
		var p core.AnnualProduction
		if err := rows.Scan(&p.Year, &p.Liters, &p.Days); err != nil {
			return nil, fmt.Errorf("scan annual row: %w", err)
		}
		annual = append(annual, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annual rows: %w", err)
	}
	return annual, nil
}

// AnimalMonthlyLiters returns month-keyed liters subtotals for a single
// animal since the given date.
func (r *Repository) AnimalMonthlyLiters(ctx context.Context, earTag string, since core.Date) ([]core.MonthSum, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', record_date), SUM(yield_value)
		   FROM milk_yield
		  WHERE ear_tag = ? AND record_date >= ?
		  GROUP BY 1 ORDER BY 1`, earTag, since.String())
	if err != nil {
		return nil, fmt.Errorf("animal monthly liters for %q: %w", earTag, err)
	}
	return collectMonthSums(rows)
}

// AnimalMonthlySessions returns the number of records per month for a
// single animal since the given date. Unlike the farm-level query this
// counts every record: at animal scope a session is one milking.
func (r *Repository) AnimalMonthlySessions(ctx context.Context, earTag string, since core.Date) ([]core.MonthCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', record_date), COUNT(*)
		   FROM milk_yield
		  WHERE ear_tag = ? AND record_date >= ?
		  GROUP BY 1 ORDER BY 1`, earTag, since.String())
	if err != nil {
		return nil, fmt.Errorf("animal monthly sessions for %q: %w", earTag, err)
	}
	return collectMonthCounts(rows)
}

// AnimalSpan returns the first and last record dates for an animal.
// ok is false when the animal has no records at all.
func (r *Repository) AnimalSpan(ctx context.Context, earTag string) (first, last core.Date, ok bool, err error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT MIN(record_date), MAX(record_date) FROM milk_yield WHERE ear_tag = ?`, earTag)

	var mn, mx sql.NullString
	if err := row.Scan(&mn, &mx); err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("animal span for %q: %w", earTag, err)
	}
	if !mn.Valid || !mx.Valid {
		return core.Date{}, core.Date{}, false, nil
	}

	first, err = core.ParseDate(mn.String)
	if err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("animal span for %q: %w", earTag, err)
	}
	last, err = core.ParseDate(mx.String)
	if err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("animal span for %q: %w", earTag, err)
	}
	return first, last, true, nil
}

// AnimalStats returns the average (one decimal), maximum, and minimum
// single-record yield for an animal. With zero records the SQL
// aggregates are NULL and the result is nil: absent stats are a nil
// struct, never zeroes.
func (r *Repository) AnimalStats(ctx context.Context, earTag string) (*core.YieldStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT ROUND(AVG(yield_value), 1), MAX(yield_value), MIN(yield_value)
		   FROM milk_yield WHERE ear_tag = ?`, earTag)

	var avg, max, min sql.NullFloat64
	if err := row.Scan(&avg, &max, &min); err != nil {
		return nil, fmt.Errorf("animal stats for %q: %w", earTag, err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &core.YieldStats{
		AvgYield: avg.Float64,
		MaxYield: max.Float64,
		MinYield: min.Float64,
	}, nil
}

// AnimalRecords returns the raw (date, liters) records for an animal
// since the given date, chronologically ascending.
func (r *Repository) AnimalRecords(ctx context.Context, earTag string, since core.Date) ([]core.YieldRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record_date, yield_value
		   FROM milk_yield
		  WHERE ear_tag = ? AND record_date >= ?
		  ORDER BY record_date, id`, earTag, since.String())
	if err != nil {
		return nil, fmt.Errorf("animal records for %q: %w", earTag, err)
	}
	defer rows.Close()

	var records []core.YieldRecord
	for rows.Next() {
		var (
			rec     core.YieldRecord
			rawDate string
		)
		if err := rows.Scan(&rawDate, &rec.Liters); err != nil {
			return nil, fmt.Errorf("scan yield record: %w", err)
		}
		rec.Date, err = core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("yield record date: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yield records: %w", err)
	}
	return records, nil
}

func collectMonthSums(rows *sql.Rows) ([]core.MonthSum, error) {
	defer rows.Close()

	var sums []core.MonthSum
	for rows.Next() {
		var s core.MonthSum
		if err := rows.Scan(&s.Month, &s.Liters); err != nil {
			return nil, fmt.Errorf("scan month sum: %w", err)
		}
		sums = append(sums, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month sums: %w", err)
	}
	return sums, nil
}

func collectMonthCounts(rows *sql.Rows) ([]core.MonthCount, error) {
	defer rows.Close()

	var counts []core.MonthCount
	for rows.Next() {
		var c core.MonthCount
		if err := rows.Scan(&c.Month, &c.Sessions); err != nil {
			return nil, fmt.Errorf("scan month count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month counts: %w", err)
	}
	return counts, nil
}
