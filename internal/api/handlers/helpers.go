package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"timezone-lookup-service/internal/platform/obs"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsText(r) {
		writeText(w, status, msg+"\n")
		return
	}
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// wantsText reports whether the caller asked for a plain text response via
// ?format=text or an Accept header that prefers text/plain.
func wantsText(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "text", "txt", "plain":
		return true
	case "json":
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json")
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
