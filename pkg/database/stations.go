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

const stationColumns = `id, name, location, latitude, longitude, description, active, last_data_time, created_at, updated_at`

// scanStation scans a station row from either *sql.Row or *sql.Rows
func scanStation(scan func(dest ...interface{}) error) (models.Station, error) {
	var s models.Station
	var description sql.NullString
	var lastData sql.NullTime

	err := scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.Latitude,
		&s.Longitude,
		&description,
		&s.Active,
		&lastData,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}

	if description.Valid {
		s.Description = &description.String
	}
	if lastData.Valid {
		t := lastData.Time
		s.LastDataTime = &t
	}

	return s, nil
}

// CreateStation registers a new station
func (m *Manager) CreateStation(ctx context.Context, create models.StationCreate) (models.Station, error) {
	id := uuid.New()
	if create.ID != nil {
		id = *create.ID
	}

	query := `
        INSERT INTO stations (id, name, location, latitude, longitude, description)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + stationColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		id,
		create.Name,
		create.Location,
		create.Latitude,
		create.Longitude,
		create.Description,
	)

	station, err := scanStation(row.Scan)
	if err != nil {
		return station, fmt.Errorf("failed to create station: %w", err)
	}

	return station, nil
}

// GetStation loads a single station
func (m *Manager) GetStation(ctx context.Context, stationID uuid.UUID) (models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`

	station, err := scanStation(m.QueryRowWithHealthCheck(ctx, query, stationID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return station, ErrNotFound
		}
		return station, fmt.Errorf("failed to scan station: %w", err)
	}

	return station, nil
}

// ListStations loads stations, optionally filtered by active flag
func (m *Manager) ListStations(ctx context.Context, filter models.StationListFilter) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations`
	args := []interface{}{}
	argCount := 1

	if filter.Active != nil {
		query += fmt.Sprintf(" WHERE active = $%d", argCount)
		args = append(args, *filter.Active)
		argCount++
	}

	query += " ORDER BY updated_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filter.Limit, filter.Skip)
	}

	rows, err := m.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		station, err := scanStation(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan station")
			continue
		}
		stations = append(stations, station)
	}

	return stations, rows.Err()
}

// UpdateStation applies the non-nil fields of update to a station
func (m *Manager) UpdateStation(ctx context.Context, stationID uuid.UUID, update models.StationUpdate) (models.Station, error) {
	station, err := m.GetStation(ctx, stationID)
	if err != nil {
		return station, err
	}

	if update.Name != nil {
		station.Name = *update.Name
	}
	if update.Location != nil {
		station.Location = *update.Location
	}
	if update.Latitude != nil {
		station.Latitude = *update.Latitude
	}
	if update.Longitude != nil {
		station.Longitude = *update.Longitude
	}
	if update.Description != nil {
		station.Description = update.Description
	}
	if update.Active != nil {
		station.Active = *update.Active
	}

	query := `
        UPDATE stations
        SET name = $1, location = $2, latitude = $3, longitude = $4,
            description = $5, active = $6, updated_at = CURRENT_TIMESTAMP
        WHERE id = $7
        RETURNING ` + stationColumns

	row := m.QueryRowWithHealthCheck(ctx, query,
		station.Name,
		station.Location,
		station.Latitude,
		station.Longitude,
		station.Description,
		station.Active,
		stationID,
	)

	updated, err := scanStation(row.Scan)
	if err != nil {
		return updated, fmt.Errorf("failed to update station: %w", err)
	}

	return updated, nil
}

// DeleteStation deletes a station; readings and share links cascade
func (m *Manager) DeleteStation(ctx context.Context, stationID uuid.UUID) error {
	result, err := m.ExecWithHealthCheck(ctx, `DELETE FROM stations WHERE id = $1`, stationID)
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
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

// StationExists reports whether the station is registered
func (m *Manager) StationExists(ctx context.Context, stationID uuid.UUID) (bool, error) {
	var exists bool
	err := m.QueryRowWithHealthCheck(ctx,
		`SELECT EXISTS (SELECT 1 FROM stations WHERE id = $1)`, stationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check station existence: %w", err)
	}
	return exists, nil
}

// SystemOverview summarizes the whole installation
type SystemOverview struct {
	TotalStations    int       `json:"total_stations"`
	ActiveStations   int       `json:"active_stations"`
	InactiveStations int       `json:"inactive_stations"`
	TotalRecords     int64     `json:"total_records"`
	RecentStations   int       `json:"recent_stations"`
	AvgTemperature24 *float64  `json:"avg_temperature_24h"`
	Timestamp        time.Time `json:"timestamp"`
}

// GetSystemOverview computes installation-wide statistics
func (m *Manager) GetSystemOverview(ctx context.Context, now time.Time) (SystemOverview, error) {
	overview := SystemOverview{Timestamp: now}
	since24h := now.Add(-24 * time.Hour)

	query := `
        SELECT
            (SELECT COUNT(*) FROM stations),
            (SELECT COUNT(*) FROM stations WHERE active),
            (SELECT COUNT(*) FROM readings),
            (SELECT COUNT(*) FROM stations WHERE last_data_time >= $1),
            (SELECT AVG(temperature) FROM readings WHERE taken_at >= $1)
    `

	var avgTemp sql.NullFloat64
	err := m.QueryRowWithHealthCheck(ctx, query, since24h).Scan(
		&overview.TotalStations,
		&overview.ActiveStations,
		&overview.TotalRecords,
		&overview.RecentStations,
		&avgTemp,
	)
	if err != nil {
		return overview, fmt.Errorf("failed to compute overview: %w", err)
	}

	overview.InactiveStations = overview.TotalStations - overview.ActiveStations
	if avgTemp.Valid {
		overview.AvgTemperature24 = &avgTemp.Float64
	}

	return overview, nil
}
