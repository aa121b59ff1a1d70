package main

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// createShareLinkHandler issues a new share link for a station
func (rm *RouteManager) createShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	var create models.ShareLinkCreate
	if err := decodeBody(r, &create); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(create); err != nil {
		rm.handleError(w, r, err)
		return
	}

	link, err := rm.shareSvc.Issue(r.Context(), create)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusCreated, link)
}

func (rm *RouteManager) getShareLinksHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.ShareLinkFilter{
		Active: queryBool(r, "active"),
		Skip:   queryInt(r, "skip", 0),
		Limit:  queryInt(r, "limit", 100),
	}
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		stationID, err := uuid.Parse(raw)
		if err != nil {
			rm.writeError(w, http.StatusBadRequest, "Invalid station_id format")
			return
		}
		filter.StationID = &stationID
	}

	links, err := rm.app.dbManager.ListShareLinks(r.Context(), filter)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, links)
}

func (rm *RouteManager) getShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	linkID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid link id format")
		return
	}

	link, err := rm.app.dbManager.GetShareLink(r.Context(), linkID)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, link)
}

func (rm *RouteManager) updateShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	linkID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid link id format")
		return
	}

	var update models.ShareLinkUpdate
	if err := decodeBody(r, &update); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := models.Validate(update); err != nil {
		rm.handleError(w, r, err)
		return
	}

	link, err := rm.app.dbManager.UpdateShareLink(r.Context(), linkID, update)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, link)
}

// deleteShareLinkHandler revokes a share link permanently
func (rm *RouteManager) deleteShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	linkID, err := pathUUID(r, "id")
	if err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid link id format")
		return
	}

	if err := rm.app.dbManager.DeleteShareLink(r.Context(), linkID); err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, map[string]string{"message": "share link deleted"})
}
