package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// processTimeout bounds the database work for a single record
const processTimeout = 30 * time.Second

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estacion_ingest_queue_depth",
		Help: "External records waiting for background processing",
	})

	recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estacion_external_records_processed_total",
		Help: "External record processing outcomes",
	}, []string{"outcome"})
)

// recordStore is the slice of the database manager the processor depends on
type recordStore interface {
	GetExternalSource(ctx context.Context, sourceID uuid.UUID) (models.ExternalSource, error)
	GetExternalRecord(ctx context.Context, recordID int64) (models.ExternalRecord, error)
	InsertExternalRecord(ctx context.Context, record models.ExternalRecord) (models.ExternalRecord, error)
	TouchSourceSync(ctx context.Context, sourceID uuid.UUID, now time.Time) error
	MarkRecordProcessed(ctx context.Context, tx *sql.Tx, recordID int64) error
	SetRecordError(ctx context.Context, recordID int64, message string) error
	AppendReading(ctx context.Context, reading models.Reading) (models.Reading, error)
}

// Processor turns queued external records into station readings in the
// background. Handlers enqueue record IDs and return immediately; the worker
// drains the queue one record at a time.
type Processor struct {
	dbManager recordStore
	log       zerolog.Logger
	queue     chan int64
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewProcessor creates a background record processor with a bounded queue
func NewProcessor(dbManager recordStore, logger zerolog.Logger, queueSize int) *Processor {
	return &Processor{
		dbManager: dbManager,
		log:       logger,
		queue:     make(chan int64, queueSize),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the processing loop
func (p *Processor) Start() {
	go p.run()
	p.log.Info().Msg("Record processor started")
}

// Stop halts the processor and waits for the in-flight record to finish
func (p *Processor) Stop() {
	close(p.stopChan)
	<-p.doneChan
	p.log.Info().Msg("Record processor stopped")
}

// Enqueue schedules a stored record for background processing. It blocks when
// the queue is full so ingestion backpressure reaches the caller instead of
// dropping records.
func (p *Processor) Enqueue(ctx context.Context, recordID int64) error {
	select {
	case p.queue <- recordID:
		queueDepth.Set(float64(len(p.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopChan:
		return fmt.Errorf("record processor is shutting down")
	}
}

// run executes the processing loop
func (p *Processor) run() {
	defer close(p.doneChan)
	for {
		select {
		case <-p.stopChan:
			return
		case recordID := <-p.queue:
			queueDepth.Set(float64(len(p.queue)))
			ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
			if err := p.Process(ctx, recordID); err != nil {
				recordsProcessed.WithLabelValues("error").Inc()
				p.log.Error().Err(err).Int64("record_id", recordID).Msg("Failed to process external record")
			}
			cancel()
		}
	}
}

// Process converts one stored record into a reading. Each record is processed
// at most once: records already marked processed are skipped, and validation
// failures are written back to the record instead of being retried. Records
// without a station mapping are kept for audit and marked processed as-is.
func (p *Processor) Process(ctx context.Context, recordID int64) error {
	record, err := p.dbManager.GetExternalRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if record.Processed {
		return nil
	}

	if record.StationID == nil {
		if err := p.dbManager.MarkRecordProcessed(ctx, nil, record.ID); err != nil {
			return err
		}
		recordsProcessed.WithLabelValues("unmapped").Inc()
		p.log.Info().
			Int64("record_id", record.ID).
			Msg("Stored external record without station mapping")
		return nil
	}

	reading, validationErr := buildReading(*record.StationID, record)
	if validationErr != "" {
		recordsProcessed.WithLabelValues("invalid").Inc()
		p.log.Warn().
			Int64("record_id", record.ID).
			Str("reason", validationErr).
			Msg("External record failed validation")
		return p.dbManager.SetRecordError(ctx, record.ID, validationErr)
	}

	if _, err := p.dbManager.AppendReading(ctx, reading); err != nil {
		return fmt.Errorf("failed to append reading for record %d: %w", record.ID, err)
	}

	if err := p.dbManager.MarkRecordProcessed(ctx, nil, record.ID); err != nil {
		return err
	}

	recordsProcessed.WithLabelValues("ok").Inc()
	p.log.Info().
		Int64("record_id", record.ID).
		Str("station_id", record.StationID.String()).
		Msg("Processed external record")

	return nil
}

// buildReading maps a record's normalized fields onto a reading. Temperature
// and humidity are required; wind and rainfall default to zero when absent.
// A non-empty second return value is the validation failure message.
func buildReading(stationID uuid.UUID, record models.ExternalRecord) (models.Reading, string) {
	temperature, ok := numericField(record.NormalizedData, "temperature")
	if !ok {
		return models.Reading{}, "missing required field: temperature"
	}
	humidity, ok := numericField(record.NormalizedData, "humidity")
	if !ok {
		return models.Reading{}, "missing required field: humidity"
	}
	if humidity < 0 || humidity > 100 {
		return models.Reading{}, fmt.Sprintf("humidity out of range: %v", humidity)
	}

	windSpeed, _ := numericField(record.NormalizedData, "wind_speed_ms")
	windGust, _ := numericField(record.NormalizedData, "wind_gust_ms")
	windDirection, _ := numericField(record.NormalizedData, "wind_direction_degrees")
	totalRainfall, _ := numericField(record.NormalizedData, "total_rainfall")
	rainRate, _ := numericField(record.NormalizedData, "rain_rate_mm_per_hour")

	takenAt := record.ReceivedAt
	if record.SourceTimestamp != nil {
		takenAt = *record.SourceTimestamp
	}

	reading := models.Reading{
		StationID:            stationID,
		Temperature:          temperature,
		Humidity:             humidity,
		WindSpeedMS:          &windSpeed,
		WindGustMS:           &windGust,
		WindDirectionDegrees: &windDirection,
		TotalRainfall:        &totalRainfall,
		RainRateMmPerHour:    &rainRate,
		TakenAt:              takenAt.UTC(),
	}

	if dewPoint, ok := numericField(record.NormalizedData, "dew_point"); ok {
		reading.DewPoint = &dewPoint
	}

	return reading, ""
}

// Ingest validates and stores an incoming payload, normalizes it against the
// source's field mapping and queues it for background processing. The stored
// record is returned before processing happens.
func (p *Processor) Ingest(ctx context.Context, create models.ExternalRecordCreate) (models.ExternalRecord, error) {
	source, err := p.dbManager.GetExternalSource(ctx, create.SourceID)
	if err != nil {
		return models.ExternalRecord{}, err
	}

	record := models.ExternalRecord{
		SourceID:        source.ID,
		StationID:       create.StationID,
		RawData:         create.RawData,
		NormalizedData:  Transform(create.RawData, source.FieldMapping),
		LocationName:    create.LocationName,
		Latitude:        create.Latitude,
		Longitude:       create.Longitude,
		SourceTimestamp: create.SourceTimestamp,
	}

	stored, err := p.dbManager.InsertExternalRecord(ctx, record)
	if err != nil {
		return stored, err
	}

	if err := p.dbManager.TouchSourceSync(ctx, source.ID, time.Now().UTC()); err != nil {
		p.log.Warn().Err(err).Str("source_id", source.ID.String()).Msg("Failed to update source last_sync")
	}

	if err := p.Enqueue(ctx, stored.ID); err != nil {
		return stored, err
	}

	return stored, nil
}
