package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink grants tokenized public access to a single station's data. The
// four capability bits are independent; access_count only moves forward and,
// once max_accesses is set, never exceeds it.
type ShareLink struct {
	ID             uuid.UUID  `json:"id"`
	StationID      uuid.UUID  `json:"station_id"`
	Token          string     `json:"token"`
	Description    *string    `json:"description,omitempty"`
	CanViewData    bool       `json:"can_view_data"`
	CanViewCurrent bool       `json:"can_view_current"`
	CanViewHistory bool       `json:"can_view_history"`
	CanDownload    bool       `json:"can_download"`
	Active         bool       `json:"active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessed   *time.Time `json:"last_accessed,omitempty"`
	AccessCount    int        `json:"access_count"`
	MaxAccesses    *int       `json:"max_accesses,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ShareLinkCreate is the payload for issuing a share link. Unset capability
// bits default to everything but download.
type ShareLinkCreate struct {
	StationID      uuid.UUID `json:"station_id" validate:"required"`
	Description    *string   `json:"description,omitempty" validate:"omitempty,max=200"`
	CanViewData    *bool     `json:"can_view_data,omitempty"`
	CanViewCurrent *bool     `json:"can_view_current,omitempty"`
	CanViewHistory *bool     `json:"can_view_history,omitempty"`
	CanDownload    *bool     `json:"can_download,omitempty"`
	ExpiresInDays  *int      `json:"expires_in_days,omitempty" validate:"omitempty,min=1"`
	MaxAccesses    *int      `json:"max_accesses,omitempty" validate:"omitempty,min=1"`
}

// ShareLinkUpdate is the payload for updating a share link. Nil fields are
// left unchanged.
type ShareLinkUpdate struct {
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=200"`
	CanViewData    *bool      `json:"can_view_data,omitempty"`
	CanViewCurrent *bool      `json:"can_view_current,omitempty"`
	CanViewHistory *bool      `json:"can_view_history,omitempty"`
	CanDownload    *bool      `json:"can_download,omitempty"`
	Active         *bool      `json:"active,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxAccesses    *int       `json:"max_accesses,omitempty" validate:"omitempty,min=1"`
}

// ShareLinkFilter narrows down share link listings
type ShareLinkFilter struct {
	StationID *uuid.UUID
	Active    *bool
	Skip      int
	Limit     int
}
