package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// Health status values, ordered from worst to best
const (
	StatusInactive = "inactive"
	StatusNoData   = "no_data"
	StatusStale    = "stale"
	StatusWarning  = "warning"
	StatusHealthy  = "healthy"
)

// Freshness thresholds for the health classification
const (
	staleThreshold   = 24 * time.Hour
	warningThreshold = time.Hour
)

// HealthReport describes the data freshness of a single station
type HealthReport struct {
	StationID        uuid.UUID  `json:"station_id"`
	StationName      string     `json:"station_name"`
	Status           string     `json:"status"`
	LastReadingAt    *time.Time `json:"last_reading_at"`
	SecondsSinceData *int64     `json:"seconds_since_data"`
	ReadingsLastHour int        `json:"readings_last_hour"`
	ReadingsLast24H  int        `json:"readings_last_24h"`
}

// HealthSummary aggregates per-status counts over a fleet of stations
type HealthSummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Stations []HealthReport `json:"stations"`
}

// ClassifyHealth applies the health decision table, first matching rule wins:
// inactive, no data, stale past 24h, warning past 1h, healthy otherwise.
func ClassifyHealth(station models.Station, lastReadingAt *time.Time, now time.Time) string {
	switch {
	case !station.Active:
		return StatusInactive
	case lastReadingAt == nil:
		return StatusNoData
	case now.Sub(*lastReadingAt) > staleThreshold:
		return StatusStale
	case now.Sub(*lastReadingAt) > warningThreshold:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// BuildHealthReport assembles the per-station freshness report
func BuildHealthReport(station models.Station, lastReadingAt *time.Time, countLastHour, countLast24H int, now time.Time) HealthReport {
	report := HealthReport{
		StationID:        station.ID,
		StationName:      station.Name,
		Status:           ClassifyHealth(station, lastReadingAt, now),
		LastReadingAt:    lastReadingAt,
		ReadingsLastHour: countLastHour,
		ReadingsLast24H:  countLast24H,
	}
	if lastReadingAt != nil {
		seconds := int64(now.Sub(*lastReadingAt).Seconds())
		report.SecondsSinceData = &seconds
	}
	return report
}

// SummarizeHealth rolls individual reports into a fleet summary
func SummarizeHealth(reports []HealthReport) HealthSummary {
	summary := HealthSummary{
		Total:    len(reports),
		ByStatus: make(map[string]int),
		Stations: reports,
	}
	for _, r := range reports {
		summary.ByStatus[r.Status]++
	}
	return summary
}
