package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"latte/internal/report"
	"latte/internal/storage"
)

func newTestServer(t *testing.T, seed func(t *testing.T, db *sql.DB)) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "latte.db")
	repo, err := storage.NewRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	if seed != nil {
		db, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		seed(t, db)
		require.NoError(t, db.Close())
	}

	engine := report.NewEngine(repo, report.WithClock(func() time.Time {
		return time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	return NewServer(":0", engine, repo, nil, zap.NewNop())
}

func seedGreenPastures(t *testing.T, db *sql.DB) {
	t.Helper()

	stmts := []string{
		`INSERT INTO animals (ear_tag, farm_name, birth_date) VALUES ('T001', 'Green Pastures', '2021-05-20')`,
		`INSERT INTO animals (ear_tag, farm_name, birth_date) VALUES ('T002', 'Green Pastures', NULL)`,
		`INSERT INTO animals (ear_tag, farm_name, birth_date) VALUES ('W001', 'Willow Creek', NULL)`,
		`INSERT INTO milk_yield (ear_tag, record_date, record_year, yield_value) VALUES ('T001', '2023-01-10', 2023, 20)`,
		`INSERT INTO milk_yield (ear_tag, record_date, record_year, yield_value) VALUES ('T001', '2023-01-10', 2023, 15)`,
		`INSERT INTO milk_yield (ear_tag, record_date, record_year, yield_value) VALUES ('T001', '2023-02-01', 2023, 18)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestListFarms(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/farms")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Farms []string `json:"farms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Green Pastures", "Willow Creek"}, resp.Farms)
}

func TestListFarmsEmptyDatabase(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, "/api/v1/farms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"farms":[]}`, rec.Body.String())
}

func TestListAnimalsEscapedFarmName(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/farms/Green%20Pastures/animals")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Farm    string `json:"farm"`
		Animals []struct {
			EarTag    string  `json:"ear_tag"`
			BirthDate *string `json:"birth_date"`
			AgeMonths *int    `json:"age_months"`
		} `json:"animals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Green Pastures", resp.Farm)
	require.Len(t, resp.Animals, 2)

	assert.Equal(t, "T001", resp.Animals[0].EarTag)
	require.NotNil(t, resp.Animals[0].BirthDate)
	assert.Equal(t, "2021-05-20", *resp.Animals[0].BirthDate)
	require.NotNil(t, resp.Animals[0].AgeMonths)
	assert.Equal(t, 24, *resp.Animals[0].AgeMonths) // 742 days / 30

	assert.Equal(t, "T002", resp.Animals[1].EarTag)
	assert.Nil(t, resp.Animals[1].BirthDate)
	assert.Nil(t, resp.Animals[1].AgeMonths)
}

func TestFarmSummary(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/farms/Green%20Pastures/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp farmSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 53.0, resp.TotalLiters)
	assert.Equal(t, 2, resp.LactationDays)
	assert.Equal(t, 2, resp.AnimalsRegistered)

	require.Len(t, resp.Annual, 1)
	assert.Equal(t, 2023, resp.Annual[0].Year)
	assert.Equal(t, 53.0, resp.Annual[0].Liters)
	assert.Equal(t, 2, resp.Annual[0].Days)
	assert.Equal(t, 1, resp.Annual[0].Animals)
	assert.Equal(t, 26.5, resp.Annual[0].AvgDaily)

	require.Len(t, resp.Trend, 2)
	assert.Equal(t, "2023-01", resp.Trend[0].Month)
	assert.Equal(t, int64(35), resp.Trend[0].Liters)
	assert.Equal(t, 1, resp.Trend[0].Sessions)
}

func TestFarmSummaryEmptyScopeIsOK(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/farms/Nowhere/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp farmSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.TotalLiters)
	assert.NotNil(t, resp.Annual)
	assert.Empty(t, resp.Annual)
}

func TestAnimalSummary(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/animals/T001/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp animalSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "T001", resp.EarTag)
	assert.Equal(t, "Green Pastures", resp.Farm)
	assert.Equal(t, 53.0, resp.TotalLiters)
	assert.Equal(t, 2, resp.LactationDays)
	assert.Equal(t, 23, resp.DurationDays)

	require.NotNil(t, resp.Stats)
	assert.Equal(t, 17.7, resp.Stats.AvgYield)
	assert.Equal(t, 20.0, resp.Stats.MaxYield)
	assert.Equal(t, 15.0, resp.Stats.MinYield)

	// Animal scope: sessions are record counts.
	require.Len(t, resp.Trend, 2)
	assert.Equal(t, 2, resp.Trend[0].Sessions)

	require.Len(t, resp.Recent, 3)
}

func TestAnimalSummaryZeroRecordsHasNullStats(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/animals/T002/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"stats":null`)

	var resp animalSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.TotalLiters)
	assert.Equal(t, 0, resp.DurationDays)
	assert.Empty(t, resp.Trend)
	assert.Empty(t, resp.Recent)
}

func TestAnimalSummaryNotFound(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/animals/ghost/summary")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"animal not found"}`, rec.Body.String())
}

func TestFarmCSVDownload(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/farms/Green%20Pastures/report.csv")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Green_Pastures_annual_report.csv"`,
		rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Year,Total Liters,Days Milked,Avg Daily (L)", lines[0])
	assert.Equal(t, "2023,53,2,26.5", lines[1])
}

func TestAnimalCSVNotFound(t *testing.T) {
	s := newTestServer(t, seedGreenPastures)

	rec := doRequest(t, s, "/api/v1/animals/ghost/report.csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, doRequest(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, "/readyz").Code)
}
