package httputils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HandleAPIResponse writes resp as JSON, or err as a plain-text error with
// the given status.
func HandleAPIResponse(w http.ResponseWriter, r *http.Request, resp interface{}, err error, status int) {
	if err != nil {
		slog.Warn("request failed",
			"remote", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		http.Error(w, err.Error(), status)
		return
	}
	json, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode response",
			"remote", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
	}
	w.Write(json)
}
