package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

const readingColumns = `id, station_id, temperature, humidity, dew_point, wind_speed_ms, wind_gust_ms, wind_direction_degrees, total_rainfall, rain_rate_mm_per_hour, taken_at`

// scanReading scans a reading row
func scanReading(scan func(dest ...interface{}) error) (models.Reading, error) {
	var r models.Reading
	err := scan(
		&r.ID,
		&r.StationID,
		&r.Temperature,
		&r.Humidity,
		&r.DewPoint,
		&r.WindSpeedMS,
		&r.WindGustMS,
		&r.WindDirectionDegrees,
		&r.TotalRainfall,
		&r.RainRateMmPerHour,
		&r.TakenAt,
	)
	return r, err
}

// AppendReading inserts a reading and bumps the station's last_data_time in
// one transaction. Readings are immutable once written.
func (m *Manager) AppendReading(ctx context.Context, reading models.Reading) (models.Reading, error) {
	exists, err := m.StationExists(ctx, reading.StationID)
	if err != nil {
		return reading, err
	}
	if !exists {
		return reading, ErrNotFound
	}

	var stored models.Reading
	err = m.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
            INSERT INTO readings (
                station_id, temperature, humidity, dew_point, wind_speed_ms,
                wind_gust_ms, wind_direction_degrees, total_rainfall,
                rain_rate_mm_per_hour, taken_at
            )
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING ` + readingColumns

		row := tx.QueryRowContext(ctx, query,
			reading.StationID,
			reading.Temperature,
			reading.Humidity,
			reading.DewPoint,
			reading.WindSpeedMS,
			reading.WindGustMS,
			reading.WindDirectionDegrees,
			reading.TotalRainfall,
			reading.RainRateMmPerHour,
			reading.TakenAt,
		)

		var scanErr error
		stored, scanErr = scanReading(row.Scan)
		if scanErr != nil {
			return fmt.Errorf("failed to insert reading: %w", scanErr)
		}

		_, scanErr = tx.ExecContext(ctx,
			`UPDATE stations SET last_data_time = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			stored.TakenAt, reading.StationID,
		)
		if scanErr != nil {
			return fmt.Errorf("failed to update station last_data_time: %w", scanErr)
		}

		return nil
	})
	if err != nil {
		return stored, err
	}

	return stored, nil
}

// GetReadings retrieves readings for a station with taken_at >= since,
// ordered by timestamp and truncated to limit
func (m *Manager) GetReadings(ctx context.Context, stationID uuid.UUID, since time.Time, limit int, order string) ([]models.Reading, error) {
	exists, err := m.StationExists(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := `
        SELECT ` + readingColumns + `
        FROM readings
        WHERE station_id = $1 AND taken_at >= $2
        ORDER BY taken_at ` + direction + `
        LIMIT $3
    `

	rows, err := m.QueryWithHealthCheck(ctx, query, stationID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := []models.Reading{}
	for rows.Next() {
		reading, err := scanReading(rows.Scan)
		if err != nil {
			m.log.Error().Err(err).Msg("Failed to scan reading")
			continue
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

// GetLatestReading retrieves the most recent reading for a station
func (m *Manager) GetLatestReading(ctx context.Context, stationID uuid.UUID) (models.Reading, error) {
	query := `
        SELECT ` + readingColumns + `
        FROM readings
        WHERE station_id = $1
        ORDER BY taken_at DESC
        LIMIT 1
    `

	reading, err := scanReading(m.QueryRowWithHealthCheck(ctx, query, stationID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reading, ErrNotFound
		}
		return reading, fmt.Errorf("failed to scan latest reading: %w", err)
	}

	return reading, nil
}

// CountReadingsSince counts readings for a station newer than since
func (m *Manager) CountReadingsSince(ctx context.Context, stationID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := m.QueryRowWithHealthCheck(ctx,
		`SELECT COUNT(*) FROM readings WHERE station_id = $1 AND taken_at >= $2`,
		stationID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// DeleteReadingsOlderThan removes readings older than cutoff across all
// stations and returns how many rows were deleted. Safe to run alongside live
// ingestion: the timestamp predicate never touches new rows.
func (m *Manager) DeleteReadingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := m.ExecWithHealthCheck(ctx, `DELETE FROM readings WHERE taken_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old readings: %w", err)
	}

	return result.RowsAffected()
}
