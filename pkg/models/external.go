package models

import (
	"time"

	"github.com/google/uuid"
)

// Source types for external weather providers
const (
	SourceTypeOpenWeatherMap = "openweathermap"
	SourceTypeAemet          = "aemet"
	SourceTypeWeatherAPI     = "weatherapi"
	SourceTypeIPMA           = "ipma"
	SourceTypeSMHI           = "smhi"
	SourceTypeCustom         = "custom"
)

// FieldMapping maps canonical reading field names to dotted paths inside a
// provider payload, e.g. {"temperature": "main.temp"}.
type FieldMapping map[string]string

// ExternalSource is a configured third-party data provider
type ExternalSource struct {
	ID                  uuid.UUID    `json:"id"`
	Name                string       `json:"name"`
	SourceType          string       `json:"source_type"`
	APIKey              *string      `json:"api_key,omitempty"`
	APIURL              *string      `json:"api_url,omitempty"`
	FieldMapping        FieldMapping `json:"field_mapping"`
	Active              bool         `json:"active"`
	LastSync            *time.Time   `json:"last_sync,omitempty"`
	SyncIntervalMinutes int          `json:"sync_interval_minutes"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// ExternalSourceCreate is the payload for registering a provider
type ExternalSourceCreate struct {
	Name                string       `json:"name" validate:"required,max=100"`
	SourceType          string       `json:"source_type" validate:"required,oneof=openweathermap aemet weatherapi ipma smhi custom"`
	APIKey              *string      `json:"api_key,omitempty"`
	APIURL              *string      `json:"api_url,omitempty" validate:"omitempty,url"`
	FieldMapping        FieldMapping `json:"field_mapping"`
	SyncIntervalMinutes int          `json:"sync_interval_minutes" validate:"omitempty,min=1"`
	Active              *bool        `json:"active,omitempty"`
}

// ExternalSourceUpdate is the payload for updating a provider. Nil fields are
// left unchanged.
type ExternalSourceUpdate struct {
	Name                *string      `json:"name,omitempty" validate:"omitempty,max=100"`
	APIKey              *string      `json:"api_key,omitempty"`
	APIURL              *string      `json:"api_url,omitempty" validate:"omitempty,url"`
	FieldMapping        FieldMapping `json:"field_mapping,omitempty"`
	SyncIntervalMinutes *int         `json:"sync_interval_minutes,omitempty" validate:"omitempty,min=1"`
	Active              *bool        `json:"active,omitempty"`
}

// ExternalRecord is one raw payload received from a provider, kept verbatim as
// an audit trail next to its normalized form. A record is mutated exactly once
// by background processing: either processed becomes true or an error message
// is recorded.
type ExternalRecord struct {
	ID              int64                  `json:"id"`
	SourceID        uuid.UUID              `json:"source_id"`
	StationID       *uuid.UUID             `json:"station_id,omitempty"`
	RawData         map[string]interface{} `json:"raw_data"`
	NormalizedData  map[string]interface{} `json:"normalized_data"`
	LocationName    *string                `json:"location_name,omitempty"`
	Latitude        *float64               `json:"latitude,omitempty"`
	Longitude       *float64               `json:"longitude,omitempty"`
	SourceTimestamp *time.Time             `json:"source_timestamp,omitempty"`
	ReceivedAt      time.Time              `json:"received_at"`
	Processed       bool                   `json:"processed"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
}

// ExternalRecordCreate is the payload for the ingest endpoint
type ExternalRecordCreate struct {
	SourceID        uuid.UUID              `json:"source_id" validate:"required"`
	StationID       *uuid.UUID             `json:"station_id,omitempty"`
	RawData         map[string]interface{} `json:"raw_data" validate:"required"`
	LocationName    *string                `json:"location_name,omitempty"`
	Latitude        *float64               `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude       *float64               `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	SourceTimestamp *time.Time             `json:"source_timestamp,omitempty"`
}

// ExternalRecordFilter narrows down record listings
type ExternalRecordFilter struct {
	SourceID  *uuid.UUID
	StationID *uuid.UUID
	Processed *bool
	Skip      int
	Limit     int
}
