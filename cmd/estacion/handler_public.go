package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/export"
	"github.com/devandress/Estacion-metereologica/pkg/models"
	"github.com/devandress/Estacion-metereologica/pkg/share"
)

// PublicStation is the reduced station view exposed through a share link
type PublicStation struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description *string `json:"description,omitempty"`
	Active      bool    `json:"active"`
}

// verifyRequest resolves the token path variable into a verified link. The
// capability gate runs before any access is recorded and before any data is
// read.
func (rm *RouteManager) verifyRequest(w http.ResponseWriter, r *http.Request, cap share.Capability) (models.ShareLink, bool) {
	token := mux.Vars(r)["token"]

	link, err := rm.shareSvc.Verify(r.Context(), token, time.Now().UTC())
	if err != nil {
		rm.handleError(w, r, err)
		return link, false
	}

	if err := rm.shareSvc.Authorize(link, cap); err != nil {
		rm.handleError(w, r, err)
		return link, false
	}

	return link, true
}

// consumeAccess records one access on the link; failing the quota race ends
// the request
func (rm *RouteManager) consumeAccess(w http.ResponseWriter, r *http.Request, link models.ShareLink) bool {
	if err := rm.shareSvc.RecordAccess(r.Context(), link, time.Now().UTC()); err != nil {
		rm.handleError(w, r, err)
		return false
	}
	return true
}

// publicStationHandler returns station metadata for a share link. Metadata
// reads do not consume an access.
func (rm *RouteManager) publicStationHandler(w http.ResponseWriter, r *http.Request) {
	link, ok := rm.verifyRequest(w, r, share.CapViewData)
	if !ok {
		return
	}

	station, err := rm.app.dbManager.GetStation(r.Context(), link.StationID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, PublicStation{
		Name:        station.Name,
		Location:    station.Location,
		Latitude:    station.Latitude,
		Longitude:   station.Longitude,
		Description: station.Description,
		Active:      station.Active,
	})
}

// publicCurrentHandler returns the station's latest reading
func (rm *RouteManager) publicCurrentHandler(w http.ResponseWriter, r *http.Request) {
	link, ok := rm.verifyRequest(w, r, share.CapViewCurrent)
	if !ok {
		return
	}
	if !rm.consumeAccess(w, r, link) {
		return
	}

	reading, err := rm.app.dbManager.GetLatestReading(r.Context(), link.StationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rm.writeError(w, http.StatusNotFound, "no data available")
			return
		}
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, reading)
}

// publicHistoryHandler returns the station's readings within a window
func (rm *RouteManager) publicHistoryHandler(w http.ResponseWriter, r *http.Request) {
	link, ok := rm.verifyRequest(w, r, share.CapViewHistory)
	if !ok {
		return
	}
	if !rm.consumeAccess(w, r, link) {
		return
	}

	since, limit, order := readingWindow(r)
	readings, err := rm.app.dbManager.GetReadings(r.Context(), link.StationID, since, limit, order)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, readings)
}

// ExportEnvelope wraps a JSON export with its station and window metadata
type ExportEnvelope struct {
	Station     PublicStation    `json:"station"`
	ExportDate  time.Time        `json:"export_date"`
	PeriodHours int              `json:"period_hours"`
	Records     []models.Reading `json:"records"`
}

// publicExportHandler returns the station's readings as a download, CSV by
// default or JSON via format=json. Export needs both the history and the
// download capability.
func (rm *RouteManager) publicExportHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		rm.writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	link, ok := rm.verifyRequest(w, r, share.CapViewHistory)
	if !ok {
		return
	}
	if err := rm.shareSvc.Authorize(link, share.CapDownload); err != nil {
		rm.handleError(w, r, err)
		return
	}
	if !rm.consumeAccess(w, r, link) {
		return
	}

	station, err := rm.app.dbManager.GetStation(r.Context(), link.StationID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	hours := queryInt(r, "hours", 24)
	if hours < 1 {
		hours = 24
	}
	since, limit, _ := readingWindow(r)
	readings, err := rm.app.dbManager.GetReadings(r.Context(), link.StationID, since, limit, "asc")
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	if format == "json" {
		rm.writeJSON(w, http.StatusOK, ExportEnvelope{
			Station: PublicStation{
				Name:        station.Name,
				Location:    station.Location,
				Latitude:    station.Latitude,
				Longitude:   station.Longitude,
				Description: station.Description,
				Active:      station.Active,
			},
			ExportDate:  time.Now().UTC(),
			PeriodHours: hours,
			Records:     readings,
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(station.Name, time.Now())+`"`)
	if err := export.WriteCSV(w, readings); err != nil {
		rm.app.log.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}
