// Package share implements tokenized public access to station data: token
// issuance, verification, capability gating and race-safe access accounting.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// tokenBytes is the entropy of a share token. 48 random bytes make guessing
// or enumerating tokens computationally infeasible.
const tokenBytes = 48

var (
	// ErrExpired means the link's expiry timestamp is in the past
	ErrExpired = errors.New("share link has expired")
	// ErrQuotaExceeded means the link's access limit has been reached
	ErrQuotaExceeded = errors.New("share link access limit reached")
	// ErrCapabilityDenied means the link lacks the capability bit an
	// endpoint requires
	ErrCapabilityDenied = errors.New("share link does not permit this operation")
)

// Capability identifies one of the four permission bits on a share link
type Capability int

const (
	CapViewData Capability = iota
	CapViewCurrent
	CapViewHistory
	CapDownload
)

// GenerateToken returns a cryptographically random URL-safe token
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckLink evaluates the verification rules for an already-loaded active
// link: expiry first, then quota. Pure so the rule matrix is testable without
// a database.
func CheckLink(link models.ShareLink, now time.Time) error {
	if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
		return ErrExpired
	}
	if link.MaxAccesses != nil && link.AccessCount >= *link.MaxAccesses {
		return ErrQuotaExceeded
	}
	return nil
}

// Allows reports whether the link carries the given capability bit
func Allows(link models.ShareLink, cap Capability) bool {
	switch cap {
	case CapViewData:
		return link.CanViewData
	case CapViewCurrent:
		return link.CanViewCurrent
	case CapViewHistory:
		return link.CanViewHistory
	case CapDownload:
		return link.CanDownload
	default:
		return false
	}
}

// Service manages share links on top of the database
type Service struct {
	db  *database.Manager
	log zerolog.Logger
}

// NewService creates a share link service
func NewService(db *database.Manager, logger zerolog.Logger) *Service {
	return &Service{db: db, log: logger}
}

// Issue creates a share link for a station. Capability bits default to the
// permissive view set with download off.
func (s *Service) Issue(ctx context.Context, create models.ShareLinkCreate) (models.ShareLink, error) {
	exists, err := s.db.StationExists(ctx, create.StationID)
	if err != nil {
		return models.ShareLink{}, err
	}
	if !exists {
		return models.ShareLink{}, database.ErrNotFound
	}

	token, err := GenerateToken()
	if err != nil {
		return models.ShareLink{}, err
	}

	link := models.ShareLink{
		ID:             uuid.New(),
		StationID:      create.StationID,
		Token:          token,
		Description:    create.Description,
		CanViewData:    true,
		CanViewCurrent: true,
		CanViewHistory: true,
		CanDownload:    false,
		MaxAccesses:    create.MaxAccesses,
	}

	if create.CanViewData != nil {
		link.CanViewData = *create.CanViewData
	}
	if create.CanViewCurrent != nil {
		link.CanViewCurrent = *create.CanViewCurrent
	}
	if create.CanViewHistory != nil {
		link.CanViewHistory = *create.CanViewHistory
	}
	if create.CanDownload != nil {
		link.CanDownload = *create.CanDownload
	}

	if create.ExpiresInDays != nil {
		expiresAt := time.Now().UTC().AddDate(0, 0, *create.ExpiresInDays)
		link.ExpiresAt = &expiresAt
	}

	stored, err := s.db.CreateShareLink(ctx, link)
	if err != nil {
		return stored, err
	}

	s.log.Info().
		Str("station_id", create.StationID.String()).
		Str("link_id", stored.ID.String()).
		Msg("Issued share link")

	return stored, nil
}

// Verify looks up an active link by token and evaluates expiry and quota.
// It does not record the access; that happens separately, after the caller
// has also passed the capability gate. Unknown and inactive tokens are both
// reported as not found.
func (s *Service) Verify(ctx context.Context, token string, now time.Time) (models.ShareLink, error) {
	link, err := s.db.GetShareLinkByToken(ctx, token)
	if err != nil {
		return link, err
	}

	if err := CheckLink(link, now); err != nil {
		return link, err
	}

	return link, nil
}

// Authorize checks the capability bit an endpoint requires. Failing the gate
// must happen before any access is recorded and before any data is read.
func (s *Service) Authorize(link models.ShareLink, cap Capability) error {
	if !Allows(link, cap) {
		return ErrCapabilityDenied
	}
	return nil
}

// RecordAccess consumes one access on the link: count+1, last_accessed=now.
// Called exactly once per successfully authorized data-returning call. The
// storage-level guard keeps concurrent calls from exceeding max_accesses;
// losing that race surfaces as ErrQuotaExceeded.
func (s *Service) RecordAccess(ctx context.Context, link models.ShareLink, now time.Time) error {
	recorded, err := s.db.RecordShareAccess(ctx, link.ID, now)
	if err != nil {
		return err
	}
	if !recorded {
		return ErrQuotaExceeded
	}
	return nil
}
