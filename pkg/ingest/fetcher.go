package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// maxResponseBytes caps provider responses so a misbehaving upstream cannot
// exhaust memory
const maxResponseBytes = 1 << 20

// Fetcher polls active external sources whose sync interval has elapsed and
// feeds their payloads into the processor. Each source gets its own circuit
// breaker so one failing provider does not block the rest.
type Fetcher struct {
	dbManager *database.Manager
	processor *Processor
	client    *http.Client
	log       zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewFetcher creates a source poller with a bounded-timeout HTTP client
func NewFetcher(dbManager *database.Manager, processor *Processor, fetchTimeout time.Duration, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		dbManager: dbManager,
		processor: processor,
		client:    &http.Client{Timeout: fetchTimeout},
		log:       logger,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// SyncDueSources fetches every active source whose interval has elapsed.
// Failures are logged per source and do not stop the sweep.
func (f *Fetcher) SyncDueSources(ctx context.Context) {
	now := time.Now().UTC()

	sources, err := f.dbManager.ListDueSources(ctx, now)
	if err != nil {
		f.log.Error().Err(err).Msg("Failed to list due sources")
		return
	}

	for _, source := range sources {
		if err := f.syncSource(ctx, source); err != nil {
			f.log.Warn().
				Err(err).
				Str("source_id", source.ID.String()).
				Str("source_name", source.Name).
				Msg("Source sync failed")
		}
	}
}

func (f *Fetcher) syncSource(ctx context.Context, source models.ExternalSource) error {
	if source.APIURL == nil || *source.APIURL == "" {
		return fmt.Errorf("source %s has no api_url", source.Name)
	}

	raw, err := f.fetch(ctx, source)
	if err != nil {
		return err
	}

	// Ingest stores the record and advances the source's last_sync
	record, err := f.processor.Ingest(ctx, models.ExternalRecordCreate{
		SourceID: source.ID,
		RawData:  raw,
	})
	if err != nil {
		return err
	}

	f.log.Info().
		Str("source_name", source.Name).
		Int64("record_id", record.ID).
		Msg("Fetched external source")

	return nil
}

// fetch calls the provider through its circuit breaker and decodes the JSON
// payload
func (f *Fetcher) fetch(ctx context.Context, source models.ExternalSource) (map[string]interface{}, error) {
	breaker := f.breakerFor(source)

	result, err := breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *source.APIURL, nil)
		if err != nil {
			return nil, err
		}
		if source.APIKey != nil && *source.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+*source.APIKey)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}

		var raw map[string]interface{}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode provider payload: %w", err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]interface{}), nil
}

func (f *Fetcher) breakerFor(source models.ExternalSource) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := source.ID.String()
	if breaker, ok := f.breakers[key]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    source.Name,
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn().
				Str("source_name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Source circuit breaker state changed")
		},
	})
	f.breakers[key] = breaker
	return breaker
}
