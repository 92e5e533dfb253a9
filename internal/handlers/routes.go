package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts every application route on router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Health and version
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// JSON API
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/images", h.ListImages).Methods(http.MethodGet)
	api.HandleFunc("/search", h.SearchImages).Methods(http.MethodGet)
	api.HandleFunc("/record", h.GetRecord).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.GetTags).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.AddTags).Methods(http.MethodPost)
	api.HandleFunc("/tags", h.RemoveTags).Methods(http.MethodDelete)
	api.HandleFunc("/metadata", h.UpdateMetadata).Methods(http.MethodPut)
	api.HandleFunc("/sync", h.TriggerSync).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	// Pages and files
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
	router.HandleFunc("/gallery", h.Gallery).Methods(http.MethodGet)
	router.HandleFunc("/edit", h.EditForm).Methods(http.MethodPost)
	router.HandleFunc("/uploads/{path:.*}", h.ServeUpload).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/thumbnail/{path:.*}", h.ServeThumbnail).Methods(http.MethodGet)
}

// MetricsHandler returns the Prometheus metrics handler
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
