package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
	"github.com/devandress/Estacion-metereologica/pkg/stats"
)

// maxHistoryLimit caps how many readings a single query may return
const maxHistoryLimit = 1000

// readingWindow resolves the hours/limit/order query parameters of a history
// request
func readingWindow(r *http.Request) (since time.Time, limit int, order string) {
	hours := queryInt(r, "hours", 24)
	if hours < 1 {
		hours = 24
	}

	limit = queryInt(r, "limit", 100)
	if limit < 1 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	order = "desc"
	if r.URL.Query().Get("order") == "asc" {
		order = "asc"
	}

	return stats.WindowSince(time.Now().UTC(), hours), limit, order
}

// postReadingHandler appends one reading to a station
func (rm *RouteManager) postReadingHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	var create models.ReadingCreate
	if err := decodeBody(r, &create); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(create); err != nil {
		rm.handleError(w, r, err)
		return
	}

	reading, err := rm.app.dbManager.AppendReading(r.Context(), create.ToReading(stationID, time.Now().UTC()))
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusCreated, reading)
}

// getReadingsHandler returns a station's readings within a time window
func (rm *RouteManager) getReadingsHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	since, limit, order := readingWindow(r)
	readings, err := rm.app.dbManager.GetReadings(r.Context(), stationID, since, limit, order)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, readings)
}

// getLatestReadingHandler returns a station's most recent reading
func (rm *RouteManager) getLatestReadingHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	reading, err := rm.app.dbManager.GetLatestReading(r.Context(), stationID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, reading)
}

// getStationStatsHandler computes aggregate statistics over a period
func (rm *RouteManager) getStationStatsHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	hours := queryInt(r, "hours", 24)
	if hours < 1 {
		hours = 24
	}

	since := stats.WindowSince(time.Now().UTC(), hours)
	readings, err := rm.app.dbManager.GetReadings(r.Context(), stationID, since, maxHistoryLimit, "asc")
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, stats.Summarize(stationID, hours, readings))
}

// BulkReadingsRequest carries a batch of readings for multiple stations
type BulkReadingsRequest struct {
	Readings []models.ReadingCreate `json:"readings" validate:"required,min=1,max=500"`
}

// BulkReadingsResponse reports per-item outcomes of a bulk ingest
type BulkReadingsResponse struct {
	Inserted int      `json:"inserted"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// postBulkReadingsHandler ingests a batch of readings. One invalid item does
// not abort the rest, everything that validates is committed.
func (rm *RouteManager) postBulkReadingsHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkReadingsRequest
	if err := decodeBody(r, &req); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(req); err != nil {
		rm.handleError(w, r, err)
		return
	}

	now := time.Now().UTC()
	var resp BulkReadingsResponse

	for i, create := range req.Readings {
		if create.StationID == uuid.Nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %d: station_id is required", i))
			continue
		}
		if err := models.Validate(create); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		if _, err := rm.app.dbManager.AppendReading(r.Context(), create.ToReading(create.StationID, now)); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		resp.Inserted++
	}

	status := http.StatusOK
	if resp.Inserted == 0 && resp.Failed > 0 {
		status = http.StatusBadRequest
	}
	rm.writeJSON(w, status, resp)
}
