package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"timezone-lookup-service/internal/api/dto"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"
	"timezone-lookup-service/internal/services"

	"go.uber.org/zap"
)

const (
	defaultLookupLimit = 20
	maxLookupLimit     = 200
)

// LookupHandler exposes read-only lookup history.
type LookupHandler struct {
	Service *services.TimezoneService
}

func (h *LookupHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	limit := defaultLookupLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLookupLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	records, err := h.Service.RecentLookups(r.Context(), limit)
	if errors.Is(err, domain.ErrHistoryDisabled) {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("list lookups failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListLookupsResponse{
		Lookups: make([]dto.LookupRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		res.Lookups = append(res.Lookups, dto.LookupRecordResponse{
			ID:          rec.ID,
			RequestedAt: rec.RequestedAt.UTC(),
			Query:       dto.NewCoordinatesResponse(rec.Query),
			Location:    dto.NewCoordinatesResponse(rec.Resolved),
			ZoneName:    rec.ZoneName,
			Cached:      rec.Cached,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
