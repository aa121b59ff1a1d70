// Package stats computes aggregate statistics and health classifications
// over station readings.
package stats

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// TemperatureStats summarizes the temperature series of a window
type TemperatureStats struct {
	Avg    float64  `json:"avg"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	StdDev *float64 `json:"stddev"`
}

// HumidityStats summarizes the humidity series of a window
type HumidityStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// WindStats summarizes wind speed over a window. Readings without wind data
// are excluded.
type WindStats struct {
	AvgSpeedMS float64 `json:"avg_speed_ms"`
	MaxSpeedMS float64 `json:"max_speed_ms"`
}

// RainfallStats totals rainfall over a window
type RainfallStats struct {
	TotalMM float64 `json:"total_mm"`
}

// Summary is the aggregate report for one station and period
type Summary struct {
	StationID   uuid.UUID         `json:"station_id"`
	PeriodHours int               `json:"period_hours"`
	RecordCount int               `json:"record_count"`
	Temperature *TemperatureStats `json:"temperature,omitempty"`
	Humidity    *HumidityStats    `json:"humidity,omitempty"`
	Wind        *WindStats        `json:"wind,omitempty"`
	Rainfall    *RainfallStats    `json:"rainfall,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Summarize computes the statistics for a set of readings covering the given
// period. An empty window yields a zero-count summary with an explanatory
// error marker rather than a failure.
func Summarize(stationID uuid.UUID, periodHours int, readings []models.Reading) Summary {
	summary := Summary{
		StationID:   stationID,
		PeriodHours: periodHours,
		RecordCount: len(readings),
	}

	if len(readings) == 0 {
		summary.Error = "no data available for the selected period"
		return summary
	}

	temps := make([]float64, 0, len(readings))
	hums := make([]float64, 0, len(readings))
	var winds []float64
	var rainfallTotal float64

	for _, r := range readings {
		temps = append(temps, r.Temperature)
		hums = append(hums, r.Humidity)
		if r.WindSpeedMS != nil {
			winds = append(winds, *r.WindSpeedMS)
		}
		if r.TotalRainfall != nil {
			rainfallTotal += *r.TotalRainfall
		}
	}

	summary.Temperature = &TemperatureStats{
		Avg:    mean(temps),
		Min:    minOf(temps),
		Max:    maxOf(temps),
		StdDev: stdDev(temps),
	}
	summary.Humidity = &HumidityStats{
		Avg: mean(hums),
		Min: minOf(hums),
		Max: maxOf(hums),
	}
	if len(winds) > 0 {
		summary.Wind = &WindStats{
			AvgSpeedMS: mean(winds),
			MaxSpeedMS: maxOf(winds),
		}
	}
	summary.Rainfall = &RainfallStats{TotalMM: rainfallTotal}

	return summary
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// stdDev returns the sample standard deviation, nil when fewer than two
// values are available.
func stdDev(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	sd := math.Sqrt(sum / float64(len(values)-1))
	return &sd
}

// WindowSince converts a period in hours to the cutoff timestamp
func WindowSince(now time.Time, periodHours int) time.Time {
	return now.Add(-time.Duration(periodHours) * time.Hour)
}
