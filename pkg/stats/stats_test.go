package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

func reading(temp, hum float64) models.Reading {
	return models.Reading{Temperature: temp, Humidity: hum}
}

func TestSummarizeEmpty(t *testing.T) {
	stationID := uuid.New()
	summary := Summarize(stationID, 24, nil)

	assert.Equal(t, stationID, summary.StationID)
	assert.Equal(t, 0, summary.RecordCount)
	assert.NotEmpty(t, summary.Error)
	assert.Nil(t, summary.Temperature)
	assert.Nil(t, summary.Humidity)
	assert.Nil(t, summary.Wind)
	assert.Nil(t, summary.Rainfall)
}

func TestSummarizeTemperature(t *testing.T) {
	readings := []models.Reading{
		reading(10, 40),
		reading(20, 50),
		reading(30, 60),
	}

	summary := Summarize(uuid.New(), 24, readings)

	require.NotNil(t, summary.Temperature)
	assert.InDelta(t, 20.0, summary.Temperature.Avg, 1e-9)
	assert.Equal(t, 10.0, summary.Temperature.Min)
	assert.Equal(t, 30.0, summary.Temperature.Max)
	require.NotNil(t, summary.Temperature.StdDev)
	assert.InDelta(t, 10.0, *summary.Temperature.StdDev, 1e-9)

	require.NotNil(t, summary.Humidity)
	assert.InDelta(t, 50.0, summary.Humidity.Avg, 1e-9)
	assert.Equal(t, 40.0, summary.Humidity.Min)
	assert.Equal(t, 60.0, summary.Humidity.Max)
}

func TestSummarizeSingleReadingNoStdDev(t *testing.T) {
	summary := Summarize(uuid.New(), 1, []models.Reading{reading(21.5, 55)})

	assert.Equal(t, 1, summary.RecordCount)
	require.NotNil(t, summary.Temperature)
	assert.Nil(t, summary.Temperature.StdDev)
	assert.Equal(t, 21.5, summary.Temperature.Min)
	assert.Equal(t, 21.5, summary.Temperature.Max)
}

func TestSummarizeWindAndRainfall(t *testing.T) {
	withWind := reading(15, 50)
	withWind.WindSpeedMS = floatPtr(4.0)
	withWind.TotalRainfall = floatPtr(3.0)

	gusty := reading(16, 52)
	gusty.WindSpeedMS = floatPtr(8.0)
	gusty.TotalRainfall = floatPtr(4.5)

	noWind := reading(17, 54)

	summary := Summarize(uuid.New(), 24, []models.Reading{withWind, gusty, noWind})

	require.NotNil(t, summary.Wind)
	assert.InDelta(t, 6.0, summary.Wind.AvgSpeedMS, 1e-9)
	assert.Equal(t, 8.0, summary.Wind.MaxSpeedMS)

	require.NotNil(t, summary.Rainfall)
	assert.InDelta(t, 7.5, summary.Rainfall.TotalMM, 1e-9)
}

func TestSummarizeRainfallIgnoresRainRate(t *testing.T) {
	wet := reading(14, 70)
	wet.TotalRainfall = floatPtr(2.25)
	wet.RainRateMmPerHour = floatPtr(9.0)

	summary := Summarize(uuid.New(), 24, []models.Reading{wet})

	require.NotNil(t, summary.Rainfall)
	assert.InDelta(t, 2.25, summary.Rainfall.TotalMM, 1e-9)
}

func TestSummarizeNoWindData(t *testing.T) {
	summary := Summarize(uuid.New(), 24, []models.Reading{reading(10, 40), reading(12, 42)})
	assert.Nil(t, summary.Wind)
	require.NotNil(t, summary.Rainfall)
	assert.Equal(t, 0.0, summary.Rainfall.TotalMM)
}

func TestClassifyHealth(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	hoursAgo := now.Add(-3 * time.Hour)
	daysAgo := now.Add(-48 * time.Hour)

	tests := []struct {
		name   string
		active bool
		lastAt *time.Time
		want   string
	}{
		{"inactive station", false, &recent, StatusInactive},
		{"inactive wins over no data", false, nil, StatusInactive},
		{"no data", true, nil, StatusNoData},
		{"stale beyond 24h", true, &daysAgo, StatusStale},
		{"warning beyond 1h", true, &hoursAgo, StatusWarning},
		{"healthy", true, &recent, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			station := models.Station{Active: tt.active}
			assert.Equal(t, tt.want, ClassifyHealth(station, tt.lastAt, now))
		})
	}
}

func TestBuildHealthReport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lastAt := now.Add(-30 * time.Minute)
	station := models.Station{ID: uuid.New(), Name: "rooftop", Active: true}

	report := BuildHealthReport(station, &lastAt, 6, 140, now)

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, station.ID, report.StationID)
	assert.Equal(t, "rooftop", report.StationName)
	require.NotNil(t, report.SecondsSinceData)
	assert.Equal(t, int64(1800), *report.SecondsSinceData)
	assert.Equal(t, 6, report.ReadingsLastHour)
	assert.Equal(t, 140, report.ReadingsLast24H)
}

func TestSummarizeHealth(t *testing.T) {
	reports := []HealthReport{
		{Status: StatusHealthy},
		{Status: StatusHealthy},
		{Status: StatusStale},
		{Status: StatusNoData},
	}

	summary := SummarizeHealth(reports)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.ByStatus[StatusHealthy])
	assert.Equal(t, 1, summary.ByStatus[StatusStale])
	assert.Equal(t, 1, summary.ByStatus[StatusNoData])
}

func TestWindowSince(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-24*time.Hour), WindowSince(now, 24))
}
