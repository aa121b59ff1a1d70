package ingest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// fakeRecordStore is an in-memory recordStore for exercising the processor
// without a database.
type fakeRecordStore struct {
	sources  map[uuid.UUID]models.ExternalSource
	records  map[int64]*models.ExternalRecord
	readings []models.Reading
	touched  int
	nextID   int64
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		sources: make(map[uuid.UUID]models.ExternalSource),
		records: make(map[int64]*models.ExternalRecord),
	}
}

func (f *fakeRecordStore) GetExternalSource(_ context.Context, sourceID uuid.UUID) (models.ExternalSource, error) {
	source, ok := f.sources[sourceID]
	if !ok {
		return models.ExternalSource{}, database.ErrNotFound
	}
	return source, nil
}

func (f *fakeRecordStore) GetExternalRecord(_ context.Context, recordID int64) (models.ExternalRecord, error) {
	record, ok := f.records[recordID]
	if !ok {
		return models.ExternalRecord{}, database.ErrNotFound
	}
	return *record, nil
}

func (f *fakeRecordStore) InsertExternalRecord(_ context.Context, record models.ExternalRecord) (models.ExternalRecord, error) {
	f.nextID++
	record.ID = f.nextID
	record.ReceivedAt = time.Now().UTC()
	stored := record
	f.records[record.ID] = &stored
	return record, nil
}

func (f *fakeRecordStore) TouchSourceSync(_ context.Context, _ uuid.UUID, _ time.Time) error {
	f.touched++
	return nil
}

func (f *fakeRecordStore) MarkRecordProcessed(_ context.Context, _ *sql.Tx, recordID int64) error {
	record, ok := f.records[recordID]
	if !ok {
		return database.ErrNotFound
	}
	record.Processed = true
	record.ErrorMessage = nil
	return nil
}

func (f *fakeRecordStore) SetRecordError(_ context.Context, recordID int64, message string) error {
	record, ok := f.records[recordID]
	if !ok {
		return database.ErrNotFound
	}
	record.ErrorMessage = &message
	return nil
}

func (f *fakeRecordStore) AppendReading(_ context.Context, reading models.Reading) (models.Reading, error) {
	f.readings = append(f.readings, reading)
	return reading, nil
}

func newTestProcessor(store *fakeRecordStore) *Processor {
	return NewProcessor(store, zerolog.Nop(), 4)
}

func TestProcessStoresReading(t *testing.T) {
	stationID := uuid.New()
	store := newFakeRecordStore()
	store.records[1] = &models.ExternalRecord{
		ID:        1,
		SourceID:  uuid.New(),
		StationID: &stationID,
		NormalizedData: map[string]interface{}{
			"temperature":    19.5,
			"humidity":       64.0,
			"total_rainfall": 2.4,
		},
		ReceivedAt: time.Now().UTC(),
	}

	err := newTestProcessor(store).Process(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, store.readings, 1)
	assert.Equal(t, stationID, store.readings[0].StationID)
	require.NotNil(t, store.readings[0].TotalRainfall)
	assert.Equal(t, 2.4, *store.readings[0].TotalRainfall)
	assert.True(t, store.records[1].Processed)
	assert.Nil(t, store.records[1].ErrorMessage)
}

func TestProcessUnmappedRecordMarkedProcessed(t *testing.T) {
	store := newFakeRecordStore()
	store.records[1] = &models.ExternalRecord{
		ID:       1,
		SourceID: uuid.New(),
		NormalizedData: map[string]interface{}{
			"temperature": 19.5,
			"humidity":    64.0,
		},
		ReceivedAt: time.Now().UTC(),
	}

	err := newTestProcessor(store).Process(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, store.records[1].Processed)
	assert.Nil(t, store.records[1].ErrorMessage)
	assert.Empty(t, store.readings)
}

func TestProcessValidationFailureSetsError(t *testing.T) {
	stationID := uuid.New()
	store := newFakeRecordStore()
	store.records[1] = &models.ExternalRecord{
		ID:             1,
		SourceID:       uuid.New(),
		StationID:      &stationID,
		NormalizedData: map[string]interface{}{"temperature": 19.5},
		ReceivedAt:     time.Now().UTC(),
	}

	err := newTestProcessor(store).Process(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, store.records[1].Processed)
	require.NotNil(t, store.records[1].ErrorMessage)
	assert.Equal(t, "missing required field: humidity", *store.records[1].ErrorMessage)
	assert.Empty(t, store.readings)
}

func TestProcessSkipsProcessedRecord(t *testing.T) {
	stationID := uuid.New()
	store := newFakeRecordStore()
	store.records[1] = &models.ExternalRecord{
		ID:        1,
		SourceID:  uuid.New(),
		StationID: &stationID,
		NormalizedData: map[string]interface{}{
			"temperature": 19.5,
			"humidity":    64.0,
		},
		ReceivedAt: time.Now().UTC(),
		Processed:  true,
	}

	err := newTestProcessor(store).Process(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, store.readings)
}

func TestIngestNormalizesAndQueues(t *testing.T) {
	sourceID := uuid.New()
	store := newFakeRecordStore()
	store.sources[sourceID] = models.ExternalSource{
		ID: sourceID,
		FieldMapping: models.FieldMapping{
			"temperature":    "main.temp",
			"humidity":       "main.humidity",
			"total_rainfall": "rain.total",
		},
	}
	p := newTestProcessor(store)

	stored, err := p.Ingest(context.Background(), models.ExternalRecordCreate{
		SourceID: sourceID,
		RawData: map[string]interface{}{
			"main": map[string]interface{}{"temp": 19.5, "humidity": 64.0},
			"rain": map[string]interface{}{"total": 2.4},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 19.5, stored.NormalizedData["temperature"])
	assert.Equal(t, 2.4, stored.NormalizedData["total_rainfall"])
	assert.Equal(t, 1, store.touched)
	assert.Len(t, p.queue, 1)
}

func TestBuildReadingComplete(t *testing.T) {
	stationID := uuid.New()
	sourceAt := time.Date(2025, 6, 1, 11, 45, 0, 0, time.UTC)
	record := models.ExternalRecord{
		NormalizedData: map[string]interface{}{
			"temperature":            21.5,
			"humidity":               60.0,
			"wind_speed_ms":          4.2,
			"wind_gust_ms":           6.8,
			"wind_direction_degrees": 180.0,
			"total_rainfall":         2.4,
			"rain_rate_mm_per_hour":  0.5,
			"dew_point":              13.1,
		},
		ReceivedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SourceTimestamp: &sourceAt,
	}

	reading, failure := buildReading(stationID, record)

	require.Empty(t, failure)
	assert.Equal(t, stationID, reading.StationID)
	assert.Equal(t, 21.5, reading.Temperature)
	assert.Equal(t, 60.0, reading.Humidity)
	require.NotNil(t, reading.WindSpeedMS)
	assert.Equal(t, 4.2, *reading.WindSpeedMS)
	require.NotNil(t, reading.WindGustMS)
	assert.Equal(t, 6.8, *reading.WindGustMS)
	require.NotNil(t, reading.WindDirectionDegrees)
	assert.Equal(t, 180.0, *reading.WindDirectionDegrees)
	require.NotNil(t, reading.TotalRainfall)
	assert.Equal(t, 2.4, *reading.TotalRainfall)
	require.NotNil(t, reading.RainRateMmPerHour)
	assert.Equal(t, 0.5, *reading.RainRateMmPerHour)
	require.NotNil(t, reading.DewPoint)
	assert.Equal(t, 13.1, *reading.DewPoint)
	assert.Equal(t, sourceAt, reading.TakenAt)
}

func TestBuildReadingDefaultsOptionalFields(t *testing.T) {
	record := models.ExternalRecord{
		NormalizedData: map[string]interface{}{
			"temperature": 15.0,
			"humidity":    55.0,
		},
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	reading, failure := buildReading(uuid.New(), record)

	require.Empty(t, failure)
	require.NotNil(t, reading.WindSpeedMS)
	assert.Equal(t, 0.0, *reading.WindSpeedMS)
	require.NotNil(t, reading.WindGustMS)
	assert.Equal(t, 0.0, *reading.WindGustMS)
	require.NotNil(t, reading.TotalRainfall)
	assert.Equal(t, 0.0, *reading.TotalRainfall)
	require.NotNil(t, reading.RainRateMmPerHour)
	assert.Equal(t, 0.0, *reading.RainRateMmPerHour)
	assert.Nil(t, reading.DewPoint)
	assert.Equal(t, record.ReceivedAt, reading.TakenAt)
}

func TestBuildReadingMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name       string
		normalized map[string]interface{}
		wantReason string
	}{
		{
			name:       "missing temperature",
			normalized: map[string]interface{}{"humidity": 60.0},
			wantReason: "missing required field: temperature",
		},
		{
			name:       "missing humidity",
			normalized: map[string]interface{}{"temperature": 21.5},
			wantReason: "missing required field: humidity",
		},
		{
			name:       "non-numeric temperature",
			normalized: map[string]interface{}{"temperature": "warm", "humidity": 60.0},
			wantReason: "missing required field: temperature",
		},
		{
			name:       "humidity out of range",
			normalized: map[string]interface{}{"temperature": 21.5, "humidity": 140.0},
			wantReason: "humidity out of range: 140",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := models.ExternalRecord{NormalizedData: tt.normalized, ReceivedAt: time.Now().UTC()}
			_, failure := buildReading(uuid.New(), record)
			assert.Equal(t, tt.wantReason, failure)
		})
	}
}
