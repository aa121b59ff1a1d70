package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

func mustCreateStation(t *testing.T, m *Manager) models.Station {
	t.Helper()
	station, err := m.CreateStation(context.Background(), testStationCreate("readings-"+uuid.New().String()))
	if err != nil {
		t.Fatalf("Failed to create station: %v", err)
	}
	return station
}

func TestAppendReadingUpdatesLastDataTime(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	station := mustCreateStation(t, m)

	takenAt := time.Now().UTC().Truncate(time.Second)
	reading, err := m.AppendReading(ctx, models.Reading{
		StationID:   station.ID,
		Temperature: 21.5,
		Humidity:    60,
		TakenAt:     takenAt,
	})
	if err != nil {
		t.Fatalf("Failed to append reading: %v", err)
	}

	if reading.ID == 0 {
		t.Error("Expected reading ID to be set")
	}

	updated, err := m.GetStation(ctx, station.ID)
	if err != nil {
		t.Fatalf("Failed to get station: %v", err)
	}
	if updated.LastDataTime == nil {
		t.Fatal("Expected last_data_time to be set")
	}
	if !updated.LastDataTime.Equal(takenAt) {
		t.Errorf("Expected last_data_time=%v, got %v", takenAt, *updated.LastDataTime)
	}
}

func TestAppendReadingUnknownStation(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	_, err := m.AppendReading(context.Background(), models.Reading{
		StationID:   uuid.New(),
		Temperature: 21.5,
		Humidity:    60,
		TakenAt:     time.Now().UTC(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetReadingsWindowAndOrder(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	station := mustCreateStation(t, m)

	base := time.Now().UTC().Truncate(time.Second)
	temps := []float64{10, 20, 30}
	for i, temp := range temps {
		if _, err := m.AppendReading(ctx, models.Reading{
			StationID:   station.ID,
			Temperature: temp,
			Humidity:    50,
			TakenAt:     base.Add(time.Duration(i-3) * time.Minute),
		}); err != nil {
			t.Fatalf("Failed to append reading: %v", err)
		}
	}

	asc, err := m.GetReadings(ctx, station.ID, base.Add(-time.Hour), 100, "asc")
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if len(asc) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(asc))
	}
	for i := 1; i < len(asc); i++ {
		if asc[i].TakenAt.Before(asc[i-1].TakenAt) {
			t.Error("Expected ascending order")
		}
	}

	desc, err := m.GetReadings(ctx, station.ID, base.Add(-time.Hour), 100, "desc")
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if desc[0].Temperature != 30 {
		t.Errorf("Expected newest reading first, got temperature %f", desc[0].Temperature)
	}

	// window excludes older readings
	narrow, err := m.GetReadings(ctx, station.ID, base.Add(-90*time.Second), 100, "asc")
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if len(narrow) != 1 {
		t.Errorf("Expected 1 reading in narrow window, got %d", len(narrow))
	}

	// limit caps the result
	limited, err := m.GetReadings(ctx, station.ID, base.Add(-time.Hour), 2, "desc")
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 readings with limit, got %d", len(limited))
	}
}

func TestGetReadingsUnknownStation(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	_, err := m.GetReadings(context.Background(), uuid.New(), time.Now().Add(-time.Hour), 10, "asc")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetLatestReading(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	station := mustCreateStation(t, m)

	if _, err := m.GetLatestReading(ctx, station.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound with no readings, got %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i, temp := range []float64{15, 25} {
		if _, err := m.AppendReading(ctx, models.Reading{
			StationID:   station.ID,
			Temperature: temp,
			Humidity:    50,
			TakenAt:     base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Failed to append reading: %v", err)
		}
	}

	latest, err := m.GetLatestReading(ctx, station.ID)
	if err != nil {
		t.Fatalf("Failed to get latest reading: %v", err)
	}
	if latest.Temperature != 25 {
		t.Errorf("Expected latest temperature 25, got %f", latest.Temperature)
	}
}

func TestDeleteReadingsOlderThan(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	station := mustCreateStation(t, m)

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)
	for _, takenAt := range []time.Time{old, now} {
		if _, err := m.AppendReading(ctx, models.Reading{
			StationID:   station.ID,
			Temperature: 10,
			Humidity:    50,
			TakenAt:     takenAt,
		}); err != nil {
			t.Fatalf("Failed to append reading: %v", err)
		}
	}

	deleted, err := m.DeleteReadingsOlderThan(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Failed to delete readings: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted reading, got %d", deleted)
	}

	remaining, err := m.GetReadings(ctx, station.ID, now.AddDate(0, 0, -60), 100, "asc")
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("Expected 1 remaining reading, got %d", len(remaining))
	}
}
