package api

import (
	"net/http"
	"timezone-lookup-service/internal/api/handlers"
	"timezone-lookup-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc *services.TimezoneService) http.Handler {
	mux := http.NewServeMux()

	tzHandler := &handlers.TimezoneHandler{Service: svc}
	lookupHandler := &handlers.LookupHandler{Service: svc}

	mux.HandleFunc("/", handlers.Index)
	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/openapi.json", handlers.OpenAPI)
	mux.HandleFunc("/timezone", tzHandler.Lookup)
	mux.HandleFunc("/timeZoneLookup", tzHandler.LegacyLookup)
	mux.HandleFunc("/lookups", lookupHandler.List)

	return requestIDMiddleware(loggingMiddleware(mux))
}
