package handlers

import (
	"encoding/json"
	"net/http"

	"photo-catalog/internal/logging"
)

const jsonContentType = "application/json"

// writeJSON sends v with the given status. Encoding errors are only logged
// since the status line is already out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError sends {"error": message}.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSONStatus sends {"status": status}.
func writeJSONStatus(w http.ResponseWriter, code int, status string) {
	writeJSON(w, code, map[string]string{"status": status})
}
