package main

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// pathInt64 extracts a numeric path variable
func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func (rm *RouteManager) createSourceHandler(w http.ResponseWriter, r *http.Request) {
	var create models.ExternalSourceCreate
	if err := decodeBody(r, &create); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(create); err != nil {
		rm.handleError(w, r, err)
		return
	}

	source, err := rm.app.dbManager.CreateExternalSource(r.Context(), create)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusCreated, source)
}

func (rm *RouteManager) getSourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := rm.app.dbManager.ListExternalSources(r.Context(), queryBool(r, "active"))
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, sources)
}

func (rm *RouteManager) getSourceHandler(w http.ResponseWriter, r *http.Request) {
	sourceID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid source id format")
		return
	}

	source, err := rm.app.dbManager.GetExternalSource(r.Context(), sourceID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, source)
}

func (rm *RouteManager) updateSourceHandler(w http.ResponseWriter, r *http.Request) {
	sourceID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid source id format")
		return
	}

	var update models.ExternalSourceUpdate
	if err := decodeBody(r, &update); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(update); err != nil {
		rm.handleError(w, r, err)
		return
	}

	source, err := rm.app.dbManager.UpdateExternalSource(r.Context(), sourceID, update)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, source)
}

func (rm *RouteManager) deleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	sourceID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid source id format")
		return
	}

	if err := rm.app.dbManager.DeleteExternalSource(r.Context(), sourceID); err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, map[string]string{"message": "source deleted"})
}

// ingestRecordHandler accepts a raw provider payload, normalizes and stores
// it, and queues background processing. It responds as soon as the record is
// committed; processing outcomes land on the record afterwards.
func (rm *RouteManager) ingestRecordHandler(w http.ResponseWriter, r *http.Request) {
	var create models.ExternalRecordCreate
	if err := decodeBody(r, &create); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(create); err != nil {
		rm.handleError(w, r, err)
		return
	}

	record, err := rm.processor.Ingest(r.Context(), create)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusCreated, record)
}

// RecordListResponse pages through stored external records
type RecordListResponse struct {
	Total   int                     `json:"total"`
	Records []models.ExternalRecord `json:"records"`
}

func (rm *RouteManager) getRecordsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.ExternalRecordFilter{
		Processed: queryBool(r, "processed"),
		Skip:      queryInt(r, "skip", 0),
		Limit:     queryInt(r, "limit", 100),
	}
	if raw := r.URL.Query().Get("source_id"); raw != "" {
		sourceID, err := uuid.Parse(raw)
		if err != nil {
			rm.writeError(w, http.StatusBadRequest, "Invalid source_id format")
			return
		}
		filter.SourceID = &sourceID
	}
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		stationID, err := uuid.Parse(raw)
		if err != nil {
			rm.writeError(w, http.StatusBadRequest, "Invalid station_id format")
			return
		}
		filter.StationID = &stationID
	}

	records, total, err := rm.app.dbManager.ListExternalRecords(r.Context(), filter)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, RecordListResponse{Total: total, Records: records})
}

func (rm *RouteManager) getRecordHandler(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathInt64(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid record id format")
		return
	}

	record, err := rm.app.dbManager.GetExternalRecord(r.Context(), recordID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, record)
}

func (rm *RouteManager) deleteRecordHandler(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathInt64(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid record id format")
		return
	}

	if err := rm.app.dbManager.DeleteExternalRecord(r.Context(), recordID); err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, map[string]string{"message": "record deleted"})
}

// processRecordHandler forces synchronous processing of one stored record,
// useful when inspecting why a record failed
func (rm *RouteManager) processRecordHandler(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathInt64(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid record id format")
		return
	}

	if err := rm.processor.Process(r.Context(), recordID); err != nil {
		rm.handleError(w, r, err)
		return
	}

	record, err := rm.app.dbManager.GetExternalRecord(r.Context(), recordID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, record)
}
