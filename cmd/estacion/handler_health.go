package main

import (
	"net/http"
	"time"
)

// healthHandler reports service liveness and database connectivity
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "ok"
	if !rm.app.dbManager.IsConnectionHealthy() {
		status = http.StatusServiceUnavailable
		dbStatus = "unavailable"
	}

	rm.writeJSON(w, status, map[string]interface{}{
		"status":    dbStatus,
		"timestamp": time.Now().UTC(),
	})
}
