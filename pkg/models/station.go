package models

import (
	"time"

	"github.com/google/uuid"
)

// Station represents a registered weather station
type Station struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Description  *string    `json:"description,omitempty"`
	Active       bool       `json:"active"`
	LastDataTime *time.Time `json:"last_data_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StationDetail is a station together with its most recent reading
type StationDetail struct {
	Station
	LatestData *Reading `json:"latest_data,omitempty"`
}

// StationCreate is the payload for registering a new station
type StationCreate struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=100"`
	Location    string     `json:"location" validate:"required,max=200"`
	Latitude    float64    `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64    `json:"longitude" validate:"min=-180,max=180"`
	Description *string    `json:"description,omitempty"`
}

// StationUpdate is the payload for updating station metadata.
// Nil fields are left unchanged.
type StationUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Description *string  `json:"description,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// StationListFilter narrows down station listings
type StationListFilter struct {
	Active *bool
	Skip   int
	Limit  int
}
