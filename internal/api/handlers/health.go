package handlers

import (
	"net/http"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	res := map[string]string{"status": "ok"}
	writeJSON(w, r, http.StatusOK, res)
}

// Index answers the bare root path with the service name.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	writeText(w, http.StatusOK, "timezone-lookup-service\n")
}
