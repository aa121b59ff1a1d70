package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

const sourceColumns = `id, name, source_type, api_key, api_url, field_mapping, active, last_sync, sync_interval_minutes, created_at, updated_at`

const recordColumns = `id, source_id, station_id, raw_data, normalized_data, location_name, latitude, longitude, source_timestamp, received_at, processed, error_message`

// scanSource scans an external source row
func scanSource(scan func(dest ...interface{}) error) (models.ExternalSource, error) {
	var s models.ExternalSource
	var apiKey, apiURL sql.NullString
	var lastSync sql.NullTime
	var mappingJSON []byte

	err := scan(
		&s.ID,
		&s.Name,
		&s.SourceType,
		&apiKey,
		&apiURL,
		&mappingJSON,
		&s.Active,
		&lastSync,
		&s.SyncIntervalMinutes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}

	if apiKey.Valid {
		s.APIKey = &apiKey.String
	}
	if apiURL.Valid {
		s.APIURL = &apiURL.String
	}
	if lastSync.Valid {
		t := lastSync.Time
		s.LastSync = &t
	}

	s.FieldMapping = models.FieldMapping{}
	if err := json.Unmarshal(mappingJSON, &s.FieldMapping); err != nil {
		return s, fmt.Errorf("failed to parse field mapping: %w", err)
	}

	return s, nil
}

// scanRecord scans an external record row
func scanRecord(scan func(dest ...interface{}) error) (models.ExternalRecord, error) {
	var r models.ExternalRecord
	var stationID uuid.NullUUID
	var locationName, errorMessage sql.NullString
	var latitude, longitude sql.NullFloat64
	var sourceTimestamp sql.NullTime
	var rawJSON, normalizedJSON []byte

	err := scan(
		&r.ID,
		&r.SourceID,
		&stationID,
		&rawJSON,
		&normalizedJSON,
		&locationName,
		&latitude,
		&longitude,
		&sourceTimestamp,
		&r.ReceivedAt,
		&r.Processed,
		&errorMessage,
	)
	if err != nil {
		return r, err
	}

	if stationID.Valid {
		id := stationID.UUID
		r.StationID = &id
	}
	if locationName.Valid {
		r.LocationName = &locationName.String
	}
	if errorMessage.Valid {
		r.ErrorMessage = &errorMessage.String
	}
	if latitude.Valid {
		r.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		r.Longitude = &longitude.Float64
	}
	if sourceTimestamp.Valid {
		t := sourceTimestamp.Time
		r.SourceTimestamp = &t
	}

	if err := json.Unmarshal(rawJSON, &r.RawData); err != nil {
		return r, fmt.Errorf("failed to parse raw data: %w", err)
	}
	if err := json.Unmarshal(normalizedJSON, &r.NormalizedData); err != nil {
		return r, fmt.Errorf("failed to parse normalized data: %w", err)
	}

	return r, nil
}

// CreateExternalSource registers a new provider
func (m *Manager) CreateExternalSource(ctx context.Context, create models.ExternalSourceCreate) (models.ExternalSource, error) {
	mapping := create.FieldMapping
	if mapping == nil {
		mapping = models.FieldMapping{}
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return models.ExternalSource{}, fmt.Errorf("failed to marshal field mapping: %w", err)
	}

	interval := create.SyncIntervalMinutes
	if interval <= 0 {
		interval = 30
	}
	active := true
	if create.Active != nil {
		active = *create.Active
	}

	query := `
        INSERT INTO external_sources (id, name, source_type, api_key, api_url, field_mapping, sync_interval_minutes, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + sourceColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		uuid.New(),
		create.Name,
		create.SourceType,
		create.APIKey,
		create.APIURL,
		mappingJSON,
		interval,
		active,
	)

	source, err := scanSource(row.Scan)
	if err != nil {
		return source, fmt.Errorf("failed to create external source: %w", err)
	}

	return source, nil
}

// GetExternalSource loads a provider by id
func (m *Manager) GetExternalSource(ctx context.Context, sourceID uuid.UUID) (models.ExternalSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM external_sources WHERE id = $1`

	source, err := scanSource(m.QueryRowWithHealthCheck(ctx, query, sourceID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return source, ErrNotFound
		}
		return source, fmt.Errorf("failed to scan external source: %w", err)
	}

	return source, nil
}

// ListExternalSources loads providers, optionally filtered by active flag
func (m *Manager) ListExternalSources(ctx context.Context, active *bool) ([]models.ExternalSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM external_sources`
	args := []interface{}{}

	if active != nil {
		query += " WHERE active = $1"
		args = append(args, *active)
	}

	query += " ORDER BY created_at DESC"

	rows, err := m.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []models.ExternalSource{}
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan external source")
			continue
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// ListDueSources loads active sources with an API URL whose next sync is due
func (m *Manager) ListDueSources(ctx context.Context, now time.Time) ([]models.ExternalSource, error) {
	query := `
        SELECT ` + sourceColumns + `
        FROM external_sources
        WHERE active
          AND api_url IS NOT NULL
          AND (last_sync IS NULL OR last_sync + sync_interval_minutes * INTERVAL '1 minute' <= $1)
    `

	rows, err := m.QueryWithHealthCheck(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []models.ExternalSource{}
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan external source")
			continue
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// UpdateExternalSource applies the non-nil fields of update to a provider
func (m *Manager) UpdateExternalSource(ctx context.Context, sourceID uuid.UUID, update models.ExternalSourceUpdate) (models.ExternalSource, error) {
	source, err := m.GetExternalSource(ctx, sourceID)
	if err != nil {
		return source, err
	}

	if update.Name != nil {
		source.Name = *update.Name
	}
	if update.APIKey != nil {
		source.APIKey = update.APIKey
	}
	if update.APIURL != nil {
		source.APIURL = update.APIURL
	}
	if update.FieldMapping != nil {
		source.FieldMapping = update.FieldMapping
	}
	if update.SyncIntervalMinutes != nil {
		source.SyncIntervalMinutes = *update.SyncIntervalMinutes
	}
	if update.Active != nil {
		source.Active = *update.Active
	}

	mappingJSON, err := json.Marshal(source.FieldMapping)
	if err != nil {
		return source, fmt.Errorf("failed to marshal field mapping: %w", err)
	}

	query := `
        UPDATE external_sources
        SET name = $1, api_key = $2, api_url = $3, field_mapping = $4,
            sync_interval_minutes = $5, active = $6, updated_at = CURRENT_TIMESTAMP
        WHERE id = $7
        RETURNING ` + sourceColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		source.Name,
		source.APIKey,
		source.APIURL,
		mappingJSON,
		source.SyncIntervalMinutes,
		source.Active,
		sourceID,
	)

	updated, err := scanSource(row.Scan)
	if err != nil {
		return updated, fmt.Errorf("failed to update external source: %w", err)
	}

	return updated, nil
}

// DeleteExternalSource deletes a provider; its records cascade
func (m *Manager) DeleteExternalSource(ctx context.Context, sourceID uuid.UUID) error {
	result, err := m.ExecWithHealthCheck(ctx, `DELETE FROM external_sources WHERE id = $1`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete external source: %w", err)
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

// TouchSourceSync stamps the provider's last_sync time
func (m *Manager) TouchSourceSync(ctx context.Context, sourceID uuid.UUID, now time.Time) error {
	_, err := m.ExecWithHealthCheck(ctx,
		`UPDATE external_sources SET last_sync = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		now, sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update source last_sync: %w", err)
	}
	return nil
}

// InsertExternalRecord persists a raw payload together with its normalized
// form
func (m *Manager) InsertExternalRecord(ctx context.Context, record models.ExternalRecord) (models.ExternalRecord, error) {
	rawJSON, err := json.Marshal(record.RawData)
	if err != nil {
		return record, fmt.Errorf("failed to marshal raw data: %w", err)
	}
	normalizedJSON, err := json.Marshal(record.NormalizedData)
	if err != nil {
		return record, fmt.Errorf("failed to marshal normalized data: %w", err)
	}

	query := `
        INSERT INTO external_records (
            source_id, station_id, raw_data, normalized_data, location_name,
            latitude, longitude, source_timestamp
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + recordColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		record.SourceID,
		record.StationID,
		rawJSON,
		normalizedJSON,
		record.LocationName,
		record.Latitude,
		record.Longitude,
		record.SourceTimestamp,
	)

	stored, err := scanRecord(row.Scan)
	if err != nil {
		return stored, fmt.Errorf("failed to insert external record: %w", err)
	}

	return stored, nil
}

// GetExternalRecord loads a record by id
func (m *Manager) GetExternalRecord(ctx context.Context, recordID int64) (models.ExternalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM external_records WHERE id = $1`

	record, err := scanRecord(m.QueryRowWithHealthCheck(ctx, query, recordID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record, ErrNotFound
		}
		return record, fmt.Errorf("failed to scan external record: %w", err)
	}

	return record, nil
}

// ListExternalRecords loads records matching the filter, newest first,
// together with the total match count
func (m *Manager) ListExternalRecords(ctx context.Context, filter models.ExternalRecordFilter) ([]models.ExternalRecord, int, error) {
	whereClause := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filter.SourceID != nil {
		whereClause += fmt.Sprintf(" AND source_id = $%d", argCount)
		args = append(args, *filter.SourceID)
		argCount++
	}
	if filter.StationID != nil {
		whereClause += fmt.Sprintf(" AND station_id = $%d", argCount)
		args = append(args, *filter.StationID)
		argCount++
	}
	if filter.Processed != nil {
		whereClause += fmt.Sprintf(" AND processed = $%d", argCount)
		args = append(args, *filter.Processed)
		argCount++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM external_records` + whereClause
	if err := m.QueryRowWithHealthCheck(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count external records: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM external_records` + whereClause +
		" ORDER BY received_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filter.Limit, filter.Skip)
	}

	rows, err := m.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []models.ExternalRecord{}
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan external record")
			continue
		}
		records = append(records, record)
	}

	return records, total, rows.Err()
}

// DeleteExternalRecord deletes a record
func (m *Manager) DeleteExternalRecord(ctx context.Context, recordID int64) error {
	result, err := m.ExecWithHealthCheck(ctx, `DELETE FROM external_records WHERE id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete external record: %w", err)
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

// MarkRecordProcessed flags a record as successfully processed and clears any
// previous error
func (m *Manager) MarkRecordProcessed(ctx context.Context, tx *sql.Tx, recordID int64) error {
	query := `UPDATE external_records SET processed = TRUE, error_message = NULL WHERE id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, recordID)
	} else {
		_, err = m.ExecWithHealthCheck(ctx, query, recordID)
	}
	if err != nil {
		return fmt.Errorf("failed to mark record processed: %w", err)
	}
	return nil
}

// SetRecordError stores a processing error on a record, leaving processed
// false so it stays visible for manual inspection
func (m *Manager) SetRecordError(ctx context.Context, recordID int64, message string) error {
	if len(message) > 500 {
		message = message[:500]
	}

	_, err := m.ExecWithHealthCheck(ctx,
		`UPDATE external_records SET error_message = $1 WHERE id = $2`,
		message, recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to record processing error: %w", err)
	}
	return nil
}
