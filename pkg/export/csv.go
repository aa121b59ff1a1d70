// Package export renders station readings in downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// csvHeader is the fixed column order of a readings export
var csvHeader = []string{
	"timestamp",
	"temperature",
	"humidity",
	"wind_speed_ms",
	"wind_direction_degrees",
	"total_rainfall",
	"dew_point",
}

// WriteCSV streams readings as CSV, header first. Absent optional values are
// written as empty cells.
func WriteCSV(w io.Writer, readings []models.Reading) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, reading := range readings {
		row := []string{
			reading.TakenAt.UTC().Format(time.RFC3339),
			formatFloat(reading.Temperature),
			formatFloat(reading.Humidity),
			formatOptional(reading.WindSpeedMS),
			formatOptional(reading.WindDirectionDegrees),
			formatOptional(reading.TotalRainfall),
			formatOptional(reading.DewPoint),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename builds the attachment name for a station export
func Filename(stationName string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", stationName, now.UTC().Format("20060102_150405"))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
