package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

const shareLinkColumns = `id, station_id, token, description, can_view_data, can_view_current, can_view_history, can_download, active, expires_at, last_accessed, access_count, max_accesses, created_at`

// scanShareLink scans a share link row
func scanShareLink(scan func(dest ...interface{}) error) (models.ShareLink, error) {
	var link models.ShareLink
	var description sql.NullString
	var expiresAt, lastAccessed sql.NullTime
	var maxAccesses sql.NullInt64

	err := scan(
		&link.ID,
		&link.StationID,
		&link.Token,
		&description,
		&link.CanViewData,
		&link.CanViewCurrent,
		&link.CanViewHistory,
		&link.CanDownload,
		&link.Active,
		&expiresAt,
		&lastAccessed,
		&link.AccessCount,
		&maxAccesses,
		&link.CreatedAt,
	)
	if err != nil {
		return link, err
	}

	if description.Valid {
		link.Description = &description.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		link.LastAccessed = &t
	}
	if maxAccesses.Valid {
		n := int(maxAccesses.Int64)
		link.MaxAccesses = &n
	}

	return link, nil
}

// CreateShareLink persists a newly issued share link
func (m *Manager) CreateShareLink(ctx context.Context, link models.ShareLink) (models.ShareLink, error) {
	query := `
        INSERT INTO share_links (
            id, station_id, token, description, can_view_data, can_view_current,
            can_view_history, can_download, expires_at, max_accesses
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + shareLinkColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		link.ID,
		link.StationID,
		link.Token,
		link.Description,
		link.CanViewData,
		link.CanViewCurrent,
		link.CanViewHistory,
		link.CanDownload,
		link.ExpiresAt,
		link.MaxAccesses,
	)

	stored, err := scanShareLink(row.Scan)
	if err != nil {
		return stored, fmt.Errorf("failed to create share link: %w", err)
	}

	return stored, nil
}

// GetShareLinkByToken looks up an active share link by its exact token.
// Inactive links are indistinguishable from missing ones so that probing a
// token reveals nothing.
func (m *Manager) GetShareLinkByToken(ctx context.Context, token string) (models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links WHERE token = $1 AND active`

	link, err := scanShareLink(m.QueryRowWithHealthCheck(ctx, query, token).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return link, ErrNotFound
		}
		return link, fmt.Errorf("failed to scan share link: %w", err)
	}

	return link, nil
}

// GetShareLink loads a share link by id
func (m *Manager) GetShareLink(ctx context.Context, linkID uuid.UUID) (models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links WHERE id = $1`

	link, err := scanShareLink(m.QueryRowWithHealthCheck(ctx, query, linkID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return link, ErrNotFound
		}
		return link, fmt.Errorf("failed to scan share link: %w", err)
	}

	return link, nil
}

// ListShareLinks loads share links, optionally filtered by station and active
// flag
func (m *Manager) ListShareLinks(ctx context.Context, filter models.ShareLinkFilter) ([]models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND station_id = $%d", argCount)
		args = append(args, *filter.StationID)
		argCount++
	}
	if filter.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argCount)
		args = append(args, *filter.Active)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filter.Limit, filter.Skip)
	}

	rows, err := m.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.ShareLink{}
	for rows.Next() {
		link, err := scanShareLink(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan share link")
			continue
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// UpdateShareLink applies the non-nil fields of update to a share link
func (m *Manager) UpdateShareLink(ctx context.Context, linkID uuid.UUID, update models.ShareLinkUpdate) (models.ShareLink, error) {
	link, err := m.GetShareLink(ctx, linkID)
	if err != nil {
		return link, err
	}

	if update.Description != nil {
		link.Description = update.Description
	}
	if update.CanViewData != nil {
		link.CanViewData = *update.CanViewData
	}
	if update.CanViewCurrent != nil {
		link.CanViewCurrent = *update.CanViewCurrent
	}
	if update.CanViewHistory != nil {
		link.CanViewHistory = *update.CanViewHistory
	}
	if update.CanDownload != nil {
		link.CanDownload = *update.CanDownload
	}
	if update.Active != nil {
		link.Active = *update.Active
	}
	if update.ExpiresAt != nil {
		link.ExpiresAt = update.ExpiresAt
	}
	if update.MaxAccesses != nil {
		link.MaxAccesses = update.MaxAccesses
	}

	query := `
        UPDATE share_links
        SET description = $1, can_view_data = $2, can_view_current = $3,
            can_view_history = $4, can_download = $5, active = $6,
            expires_at = $7, max_accesses = $8
        WHERE id = $9
        RETURNING ` + shareLinkColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		link.Description,
		link.CanViewData,
		link.CanViewCurrent,
		link.CanViewHistory,
		link.CanDownload,
		link.Active,
		link.ExpiresAt,
		link.MaxAccesses,
		linkID,
	)

	updated, err := scanShareLink(row.Scan)
	if err != nil {
		return updated, fmt.Errorf("failed to update share link: %w", err)
	}

	return updated, nil
}

// DeleteShareLink deletes a share link
func (m *Manager) DeleteShareLink(ctx context.Context, linkID uuid.UUID) error {
	result, err := m.ExecWithHealthCheck(ctx, `DELETE FROM share_links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete share link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordShareAccess increments the access counter and stamps last_accessed in
// a single statement. The quota guard lives in the same UPDATE so that
// concurrent requests against one link can never push access_count past
// max_accesses; the returned bool is false when the quota was already
// exhausted (or the link vanished in the meantime).
func (m *Manager) RecordShareAccess(ctx context.Context, linkID uuid.UUID, now time.Time) (bool, error) {
	query := `
        UPDATE share_links
        SET access_count = access_count + 1, last_accessed = $1
        WHERE id = $2
          AND active
          AND (max_accesses IS NULL OR access_count < max_accesses)
    `

	result, err := m.ExecWithHealthCheck(ctx, query, now, linkID)
	if err != nil {
		return false, fmt.Errorf("failed to record share access: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
