package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/core"
)

func TestFileSinkExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewFileSink(dir, nil)

	rows := []core.AnnualProduction{{Year: 2023, Liters: 53, Days: 2, AvgDaily: 26.5}}
	require.NoError(t, sink.Export(context.Background(), "Green Pastures", rows))

	data, err := os.ReadFile(filepath.Join(dir, "Green_Pastures_annual_report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Year,Total Liters,Days Milked,Avg Daily (L)\n2023,53,2,26.5\n", string(data))
}

func TestFileSinkOverwritesPreviousExport(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir, nil)
	ctx := context.Background()

	require.NoError(t, sink.Export(ctx, "T001", []core.AnnualProduction{
		{Year: 2022, Liters: 100, Days: 10, AvgDaily: 10.0},
	}))
	require.NoError(t, sink.Export(ctx, "T001", nil))

	data, err := os.ReadFile(filepath.Join(dir, "T001_annual_report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Year,Total Liters,Days Milked,Avg Daily (L)\n", string(data))
}

func TestFileSinkRespectsCancelledContext(t *testing.T) {
	sink := NewFileSink(t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Export(ctx, "T001", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
