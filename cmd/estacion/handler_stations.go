package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/models"
	"github.com/devandress/Estacion-metereologica/pkg/stats"
)

// pathUUID extracts a UUID path variable
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// queryInt reads an integer query parameter with a fallback
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// queryBool reads an optional boolean query parameter
func queryBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// getStationsHandler returns registered stations, optionally filtered by
// active flag
func (rm *RouteManager) getStationsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.StationListFilter{
		Active: queryBool(r, "active"),
		Skip:   queryInt(r, "skip", 0),
		Limit:  queryInt(r, "limit", 100),
	}

	stations, err := rm.app.dbManager.ListStations(r.Context(), filter)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, stations)
}

// getStationHandler returns one station together with its latest reading
func (rm *RouteManager) getStationHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	station, err := rm.app.dbManager.GetStation(r.Context(), stationID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	detail := models.StationDetail{Station: station}
	latest, err := rm.app.dbManager.GetLatestReading(r.Context(), stationID)
	switch {
	case err == nil:
		detail.LatestData = &latest
	case !errors.Is(err, database.ErrNotFound):
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, detail)
}

func (rm *RouteManager) createStationHandler(w http.ResponseWriter, r *http.Request) {
	var create models.StationCreate
	if err := decodeBody(r, &create); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(create); err != nil {
		rm.handleError(w, r, err)
		return
	}

	station, err := rm.app.dbManager.CreateStation(r.Context(), create)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusCreated, station)
}

func (rm *RouteManager) updateStationHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	var update models.StationUpdate
	if err := decodeBody(r, &update); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(update); err != nil {
		rm.handleError(w, r, err)
		return
	}

	station, err := rm.app.dbManager.UpdateStation(r.Context(), stationID, update)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, station)
}

// deleteStationHandler removes a station and, through cascade, its readings
func (rm *RouteManager) deleteStationHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	if err := rm.app.dbManager.DeleteStation(r.Context(), stationID); err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, map[string]string{"message": "station deleted"})
}

// getOverviewHandler returns installation-wide statistics
func (rm *RouteManager) getOverviewHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := rm.app.dbManager.GetSystemOverview(r.Context(), time.Now().UTC())
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, overview)
}

// getStationHealthHandler reports data freshness for one station
func (rm *RouteManager) getStationHealthHandler(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid station id format")
		return
	}

	report, err := rm.stationHealth(r, stationID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, report)
}

// getFleetHealthHandler reports data freshness across all stations
func (rm *RouteManager) getFleetHealthHandler(w http.ResponseWriter, r *http.Request) {
	stations, err := rm.app.dbManager.ListStations(r.Context(), models.StationListFilter{Limit: 1000})
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	reports := make([]stats.HealthReport, 0, len(stations))
	for _, station := range stations {
		report, err := rm.stationHealth(r, station.ID)
		if err != nil {
			rm.handleError(w, r, err)
			return
		}
		reports = append(reports, report)
	}

	rm.writeJSON(w, http.StatusOK, stats.SummarizeHealth(reports))
}

func (rm *RouteManager) stationHealth(r *http.Request, stationID uuid.UUID) (stats.HealthReport, error) {
	ctx := r.Context()
	now := time.Now().UTC()

	station, err := rm.app.dbManager.GetStation(ctx, stationID)
	if err != nil {
		return stats.HealthReport{}, err
	}

	lastHour, err := rm.app.dbManager.CountReadingsSince(ctx, stationID, now.Add(-time.Hour))
	if err != nil {
		return stats.HealthReport{}, err
	}
	last24h, err := rm.app.dbManager.CountReadingsSince(ctx, stationID, now.Add(-24*time.Hour))
	if err != nil {
		return stats.HealthReport{}, err
	}

	return stats.BuildHealthReport(station, station.LastDataTime, lastHour, last24h, now), nil
}
