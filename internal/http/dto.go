package http

import (
	"latte/internal/core"
)

// Wire types for the JSON API. Summaries are mapped field by field so
// the core types stay free of serialization tags.

type farmListResponse struct {
	Farms []string `json:"farms"`
}

type animalDTO struct {
	EarTag    string     `json:"ear_tag"`
	BirthDate *core.Date `json:"birth_date"`
	AgeMonths *int       `json:"age_months"`
}

type animalListResponse struct {
	Farm    string      `json:"farm"`
	Animals []animalDTO `json:"animals"`
}

type annualRowDTO struct {
	Year     int     `json:"year"`
	Liters   float64 `json:"liters"`
	Days     int     `json:"days"`
	Animals  int     `json:"animals,omitempty"`
	AvgDaily float64 `json:"avg_daily"`
}

type trendPointDTO struct {
	Month    string `json:"month"`
	Liters   int64  `json:"liters"`
	Sessions int    `json:"sessions"`
}

type yieldStatsDTO struct {
	AvgYield float64 `json:"avg_yield"`
	MaxYield float64 `json:"max_yield"`
	MinYield float64 `json:"min_yield"`
}

type recordDTO struct {
	Date   core.Date `json:"date"`
	Liters float64   `json:"liters"`
}

type farmSummaryResponse struct {
	Farm              string          `json:"farm"`
	TotalLiters       float64         `json:"total_liters"`
	LactationDays     int             `json:"lactation_days"`
	AnimalsRegistered int             `json:"animals_registered"`
	Annual            []annualRowDTO  `json:"annual"`
	Trend             []trendPointDTO `json:"trend"`
}

type animalSummaryResponse struct {
	EarTag        string          `json:"ear_tag"`
	Farm          string          `json:"farm"`
	BirthDate     *core.Date      `json:"birth_date"`
	AgeMonths     *int            `json:"age_months"`
	TotalLiters   float64         `json:"total_liters"`
	LactationDays int             `json:"lactation_days"`
	DurationDays  int             `json:"duration_days"`
	Stats         *yieldStatsDTO  `json:"stats"`
	Annual        []annualRowDTO  `json:"annual"`
	Trend         []trendPointDTO `json:"trend"`
	Recent        []recordDTO     `json:"recent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAnimalDTO(a core.Animal, today core.Date) animalDTO {
	dto := animalDTO{EarTag: a.EarTag, BirthDate: a.BirthDate}
	if months, ok := a.AgeMonths(today); ok {
		dto.AgeMonths = &months
	}
	return dto
}

func toAnnualRows(annual []core.AnnualProduction) []annualRowDTO {
	rows := make([]annualRowDTO, 0, len(annual))
	for _, p := range annual {
		rows = append(rows, annualRowDTO{
			Year:     p.Year,
			Liters:   p.Liters,
			Days:     p.Days,
			Animals:  p.Animals,
			AvgDaily: p.AvgDaily,
		})
	}
	return rows
}

func toTrendPoints(trend []core.MonthlyTrendPoint) []trendPointDTO {
	points := make([]trendPointDTO, 0, len(trend))
	for _, p := range trend {
		points = append(points, trendPointDTO{Month: p.Month, Liters: p.Liters, Sessions: p.Sessions})
	}
	return points
}

func toFarmSummaryResponse(s core.FarmSummary) farmSummaryResponse {
	return farmSummaryResponse{
		Farm:              s.Farm,
		TotalLiters:       s.TotalLiters,
		LactationDays:     s.LactationDays,
		AnimalsRegistered: s.AnimalsRegistered,
		Annual:            toAnnualRows(s.Annual),
		Trend:             toTrendPoints(s.Trend),
	}
}

func toAnimalSummaryResponse(s core.AnimalSummary, today core.Date) animalSummaryResponse {
	resp := animalSummaryResponse{
		EarTag:        s.EarTag,
		Farm:          s.Farm,
		BirthDate:     s.BirthDate,
		TotalLiters:   s.TotalLiters,
		LactationDays: s.LactationDays,
		DurationDays:  s.DurationDays,
		Annual:        toAnnualRows(s.Annual),
		Trend:         toTrendPoints(s.Trend),
		Recent:        make([]recordDTO, 0, len(s.Recent)),
	}

	animal := core.Animal{EarTag: s.EarTag, Farm: s.Farm, BirthDate: s.BirthDate}
	if months, ok := animal.AgeMonths(today); ok {
		resp.AgeMonths = &months
	}

	if s.Stats != nil {
		resp.Stats = &yieldStatsDTO{
			AvgYield: s.Stats.AvgYield,
			MaxYield: s.Stats.MaxYield,
			MinYield: s.Stats.MinYield,
		}
	}

	for _, r := range s.Recent {
		resp.Recent = append(resp.Recent, recordDTO{Date: r.Date, Liters: r.Liters})
	}
	return resp
}
