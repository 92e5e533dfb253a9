package handlers

import (
	"net/http"
	"runtime"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Syncing   bool   `json:"syncing"`
	LastSync  string `json:"lastSync,omitempty"`
	NextSync  string `json:"nextSync,omitempty"`
	LastError string `json:"lastError,omitempty"`

	// Last pass
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalRecords int `json:"totalRecords,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.syncer.GetHealthStatus()

	response := HealthResponse{
		Ready:        status.Ready,
		Version:      startup.Version,
		Uptime:       status.Uptime,
		Syncing:      status.Syncing,
		LastError:    status.LastError,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	switch {
	case !status.Ready:
		response.Status = statusStarting
	case status.LastError != "":
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	if !status.LastSync.IsZero() {
		response.LastSync = status.LastSync.Format("2006-01-02T15:04:05Z07:00")
	}
	if !status.NextSync.IsZero() {
		response.NextSync = status.NextSync.Format("2006-01-02T15:04:05Z07:00")
	}
	if status.LastResult != nil {
		response.Inserted = status.LastResult.Inserted
		response.Skipped = status.LastResult.Skipped
		response.Failed = status.LastResult.Failed
	}

	if stats, err := h.store.GetStats(r.Context()); err == nil {
		response.TotalRecords = stats.Records
	} else {
		logging.Warn("Health check could not read stats: %v", err)
	}

	// 503 only until the first pass completes
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", jsonContentType)
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONStatus(w, http.StatusOK, "alive")
}

// ReadinessCheck returns 200 only after the first sync pass completed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.syncer.IsReady() {
		writeJSONStatus(w, http.StatusOK, "ready")
	} else {
		writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
	}
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
