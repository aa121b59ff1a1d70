package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devandress/Estacion-metereologica/pkg/ingest"
	"github.com/devandress/Estacion-metereologica/pkg/share"
)

// RouteManager handles all API routes
type RouteManager struct {
	app       *app
	shareSvc  *share.Service
	processor *ingest.Processor
	Router    *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(a *app, shareSvc *share.Service, processor *ingest.Processor) *RouteManager {
	return &RouteManager{
		app:       a,
		shareSvc:  shareSvc,
		processor: processor,
		Router:    mux.NewRouter(),
	}
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)
	r.Use(rm.metricsMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods("GET")

	if rm.app.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Token-scoped public access, no account required
	public := r.PathPrefix("/api/public").Subrouter()
	rm.setupPublicRoutes(public)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupPublicRoutes configures the share-token endpoints
func (rm *RouteManager) setupPublicRoutes(public *mux.Router) {
	public.HandleFunc("/station/{token}", rm.publicStationHandler).Methods("GET")
	public.HandleFunc("/station/{token}/current", rm.publicCurrentHandler).Methods("GET")
	public.HandleFunc("/station/{token}/history", rm.publicHistoryHandler).Methods("GET")
	public.HandleFunc("/station/{token}/export", rm.publicExportHandler).Methods("GET")
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	// Public auth endpoints (no auth required)
	api.HandleFunc("/auth/login", rm.handleLogin).Methods("POST")

	// Stations
	api.HandleFunc("/stations", rm.getStationsHandler).Methods("GET")
	api.HandleFunc("/stations/overview", rm.getOverviewHandler).Methods("GET")
	api.HandleFunc("/stations/health", rm.getFleetHealthHandler).Methods("GET")
	api.HandleFunc("/stations/{id}", rm.getStationHandler).Methods("GET")
	api.HandleFunc("/stations/{id}/health", rm.getStationHealthHandler).Methods("GET")

	// Readings
	api.HandleFunc("/stations/{id}/data", rm.postReadingHandler).Methods("POST")
	api.HandleFunc("/stations/{id}/data", rm.getReadingsHandler).Methods("GET")
	api.HandleFunc("/stations/{id}/data/latest", rm.getLatestReadingHandler).Methods("GET")
	api.HandleFunc("/stations/{id}/stats", rm.getStationStatsHandler).Methods("GET")
	api.HandleFunc("/data/bulk", rm.postBulkReadingsHandler).Methods("POST")

	// Protected endpoints (auth required)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(rm.JWTAuthMiddleware)

	// User info
	protected.HandleFunc("/auth/me", rm.handleMe).Methods("GET")
	protected.HandleFunc("/auth/refresh", rm.handleRefreshToken).Methods("POST")

	// Station management
	protected.HandleFunc("/stations", rm.createStationHandler).Methods("POST")
	protected.HandleFunc("/stations/{id}", rm.updateStationHandler).Methods("PUT")
	protected.HandleFunc("/stations/{id}", rm.deleteStationHandler).Methods("DELETE")

	// Share links
	protected.HandleFunc("/share-links", rm.createShareLinkHandler).Methods("POST")
	protected.HandleFunc("/share-links", rm.getShareLinksHandler).Methods("GET")
	protected.HandleFunc("/share-links/{id}", rm.getShareLinkHandler).Methods("GET")
	protected.HandleFunc("/share-links/{id}", rm.updateShareLinkHandler).Methods("PUT")
	protected.HandleFunc("/share-links/{id}", rm.deleteShareLinkHandler).Methods("DELETE")

	// External sources and records
	protected.HandleFunc("/external/sources", rm.createSourceHandler).Methods("POST")
	protected.HandleFunc("/external/sources", rm.getSourcesHandler).Methods("GET")
	protected.HandleFunc("/external/sources/{id}", rm.getSourceHandler).Methods("GET")
	protected.HandleFunc("/external/sources/{id}", rm.updateSourceHandler).Methods("PUT")
	protected.HandleFunc("/external/sources/{id}", rm.deleteSourceHandler).Methods("DELETE")
	protected.HandleFunc("/external/data", rm.ingestRecordHandler).Methods("POST")
	protected.HandleFunc("/external/records", rm.getRecordsHandler).Methods("GET")
	protected.HandleFunc("/external/records/{id}", rm.getRecordHandler).Methods("GET")
	protected.HandleFunc("/external/records/{id}", rm.deleteRecordHandler).Methods("DELETE")
	protected.HandleFunc("/external/records/{id}/process", rm.processRecordHandler).Methods("POST")
}
