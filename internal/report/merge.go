package report

import (
	"sort"

	"latte/internal/core"
)

// MergeMonthly joins a month-keyed liters series and a month-keyed
// session series into a single trend, as a full outer join on the month
// key: a month present on only one side gets 0 for the other. Liters
// are rounded to the nearest whole liter. The result is sorted by month
// ascending (lexicographic YYYY-MM order is date order).
func MergeMonthly(liters []core.MonthSum, sessions []core.MonthCount) []core.MonthlyTrendPoint {
	if len(liters) == 0 && len(sessions) == 0 {
		return nil
	}

	byMonth := make(map[string]*core.MonthlyTrendPoint, len(liters))
	for _, s := range liters {
		byMonth[s.Month] = &core.MonthlyTrendPoint{
			Month:  s.Month,
			Liters: core.RoundLiters(s.Liters),
		}
	}
	for _, c := range sessions {
		if p, ok := byMonth[c.Month]; ok {
			p.Sessions = c.Sessions
			continue
		}
		byMonth[c.Month] = &core.MonthlyTrendPoint{
			Month:    c.Month,
			Sessions: c.Sessions,
		}
	}

	trend := make([]core.MonthlyTrendPoint, 0, len(byMonth))
	for _, p := range byMonth {
		trend = append(trend, *p)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })
	return trend
}
