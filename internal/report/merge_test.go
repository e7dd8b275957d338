package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"latte/internal/core"
)

func TestMergeMonthlyFullOuterJoin(t *testing.T) {
	liters := []core.MonthSum{
		{Month: "2024-01", Liters: 120.4},
		{Month: "2024-03", Liters: 88.6},
	}
	sessions := []core.MonthCount{
		{Month: "2024-02", Sessions: 3},
		{Month: "2024-03", Sessions: 5},
	}

	got := MergeMonthly(liters, sessions)

	assert.Equal(t, []core.MonthlyTrendPoint{
		{Month: "2024-01", Liters: 120, Sessions: 0},
		{Month: "2024-02", Liters: 0, Sessions: 3},
		{Month: "2024-03", Liters: 89, Sessions: 5},
	}, got)
}

func TestMergeMonthlyDisjointSets(t *testing.T) {
	liters := []core.MonthSum{{Month: "2023-11", Liters: 10}}
	sessions := []core.MonthCount{{Month: "2024-01", Sessions: 2}}

	got := MergeMonthly(liters, sessions)

	assert.Equal(t, []core.MonthlyTrendPoint{
		{Month: "2023-11", Liters: 10, Sessions: 0},
		{Month: "2024-01", Liters: 0, Sessions: 2},
	}, got)
}

func TestMergeMonthlySortsAcrossYearBoundary(t *testing.T) {
	liters := []core.MonthSum{
		{Month: "2024-02", Liters: 1},
		{Month: "2023-12", Liters: 2},
		{Month: "2024-01", Liters: 3},
	}

	got := MergeMonthly(liters, nil)

	assert.Equal(t, "2023-12", got[0].Month)
	assert.Equal(t, "2024-01", got[1].Month)
	assert.Equal(t, "2024-02", got[2].Month)
}

func TestMergeMonthlyEmptyInputs(t *testing.T) {
	assert.Nil(t, MergeMonthly(nil, nil))
	assert.Len(t, MergeMonthly(nil, []core.MonthCount{{Month: "2024-01", Sessions: 1}}), 1)
}
