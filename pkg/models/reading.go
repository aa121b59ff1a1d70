package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Reading represents a single timestamped set of measurements from a station.
// Temperature and humidity are mandatory; the remaining sensors may be absent
// on stations that do not carry them.
type Reading struct {
	ID                   int64     `json:"id"`
	StationID            uuid.UUID `json:"station_id"`
	Temperature          float64   `json:"temperature"`
	Humidity             float64   `json:"humidity"`
	DewPoint             *float64  `json:"dew_point,omitempty"`
	WindSpeedMS          *float64  `json:"wind_speed_ms,omitempty"`
	WindGustMS           *float64  `json:"wind_gust_ms,omitempty"`
	WindDirectionDegrees *float64  `json:"wind_direction_degrees,omitempty"`
	TotalRainfall        *float64  `json:"total_rainfall,omitempty"`
	RainRateMmPerHour    *float64  `json:"rain_rate_mm_per_hour,omitempty"`
	TakenAt              time.Time `json:"timestamp"`
}

// ReadingCreate is the payload for submitting a reading. StationID is only
// required on the bulk endpoint; the per-station endpoint takes it from the
// URL.
type ReadingCreate struct {
	StationID            uuid.UUID  `json:"station_id,omitempty"`
	Temperature          *float64   `json:"temperature" validate:"required"`
	Humidity             *float64   `json:"humidity" validate:"required,min=0,max=100"`
	DewPoint             *float64   `json:"dew_point,omitempty"`
	WindSpeedMS          *float64   `json:"wind_speed_ms,omitempty" validate:"omitempty,min=0"`
	WindGustMS           *float64   `json:"wind_gust_ms,omitempty" validate:"omitempty,min=0"`
	WindDirectionDegrees *float64   `json:"wind_direction_degrees,omitempty" validate:"omitempty,min=0,max=360"`
	TotalRainfall        *float64   `json:"total_rainfall,omitempty" validate:"omitempty,min=0"`
	RainRateMmPerHour    *float64   `json:"rain_rate_mm_per_hour,omitempty" validate:"omitempty,min=0"`
	Timestamp            *time.Time `json:"timestamp,omitempty"`
}

// ToReading converts the payload into a Reading for the given station. A
// missing timestamp defaults to now.
func (rc *ReadingCreate) ToReading(stationID uuid.UUID, now time.Time) Reading {
	takenAt := now
	if rc.Timestamp != nil {
		takenAt = *rc.Timestamp
	}

	return Reading{
		StationID:            stationID,
		Temperature:          *rc.Temperature,
		Humidity:             *rc.Humidity,
		DewPoint:             rc.DewPoint,
		WindSpeedMS:          rc.WindSpeedMS,
		WindGustMS:           rc.WindGustMS,
		WindDirectionDegrees: rc.WindDirectionDegrees,
		TotalRainfall:        rc.TotalRainfall,
		RainRateMmPerHour:    rc.RainRateMmPerHour,
		TakenAt:              takenAt,
	}
}

// Validate checks a payload struct against its validation tags
func Validate(payload interface{}) error {
	return validate.Struct(payload)
}
