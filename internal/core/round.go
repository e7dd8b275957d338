package core

import "github.com/shopspring/decimal"

// Round1 rounds a value to one decimal place, half away from zero,
// matching the store's ROUND() aggregate so figures computed in Go and
// figures computed in SQL never disagree.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// AvgDaily computes liters per distinct day rounded to one decimal.
// The bool is false when days is zero: an empty scope has no average,
// it is never reported as 0.0 and never divides by zero.
func AvgDaily(liters float64, days int) (float64, bool) {
	if days <= 0 {
		return 0, false
	}
	avg := decimal.NewFromFloat(liters).
		Div(decimal.NewFromInt(int64(days))).
		Round(1)
	return avg.InexactFloat64(), true
}

// RoundLiters rounds a liters subtotal to the nearest whole liter, as
// displayed in the monthly trend.
func RoundLiters(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}
