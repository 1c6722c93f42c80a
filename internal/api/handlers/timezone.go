package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"timezone-lookup-service/internal/api/dto"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"
	"timezone-lookup-service/internal/services"

	"go.uber.org/zap"
)

// statusClientClosedRequest is the nginx convention for a request abandoned
// by the client.
const statusClientClosedRequest = 499

var (
	latParams      = []string{"lat", "latitude"}
	lngParams      = []string{"lng", "longitude", "lon"}
	bearingParams  = []string{"bearing", "bearingInDegrees"}
	distanceParams = []string{"distance", "distanceInMeters"}
)

// TimezoneHandler exposes coordinate to time zone lookups.
type TimezoneHandler struct {
	Service *services.TimezoneService
}

// Lookup resolves the zone for a coordinate taken from the query string or
// a form body, optionally displaced by bearing and distance.
func (h *TimezoneHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	res, ok := h.resolve(w, r)
	if !ok {
		return
	}

	tz := res.Timezone
	if wantsText(r) {
		writeText(w, http.StatusOK, fmt.Sprintf("%s %s (UTC%s)\n",
			tz.ZoneName, tz.LocalTime(), tz.UTCOffset()))
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTimezoneResponse(res.Query, res.Resolved, tz, res.Cached))
}

// LegacyLookup serves /timeZoneLookup, returning only the local time and
// zone name.
func (h *TimezoneHandler) LegacyLookup(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	res, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if wantsText(r) {
		writeText(w, http.StatusOK, res.Timezone.LocalTime()+" "+res.Timezone.ZoneName+"\n")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LegacyTimezoneResponse{
		CurrentLocalTime: res.Timezone.LocalTime(),
		TimeZoneName:     res.Timezone.ZoneName,
	})
}

func (h *TimezoneHandler) resolve(w http.ResponseWriter, r *http.Request) (services.LookupResult, bool) {
	req, err := parseLookupRequest(r)
	if err != nil {
		writeLookupError(w, r, err)
		return services.LookupResult{}, false
	}

	res, err := h.Service.Resolve(r.Context(), req)
	if err != nil {
		writeLookupError(w, r, err)
		return services.LookupResult{}, false
	}
	return res, true
}

func parseLookupRequest(r *http.Request) (services.LookupRequest, error) {
	latRaw := formValue(r, latParams...)
	lngRaw := formValue(r, lngParams...)
	if latRaw == "" || lngRaw == "" {
		return services.LookupRequest{}, &domain.ValidationError{Message: "latitude and longitude are required"}
	}

	lat, err := parseFloat("latitude", latRaw)
	if err != nil {
		return services.LookupRequest{}, err
	}
	lng, err := parseFloat("longitude", lngRaw)
	if err != nil {
		return services.LookupRequest{}, err
	}

	req := services.LookupRequest{Coordinates: domain.Coordinates{Lat: lat, Lng: lng}}

	bearingRaw := formValue(r, bearingParams...)
	distanceRaw := formValue(r, distanceParams...)
	if bearingRaw == "" && distanceRaw == "" {
		return req, nil
	}
	if bearingRaw == "" || distanceRaw == "" {
		return services.LookupRequest{}, &domain.ValidationError{Message: "bearing and distance must be provided together"}
	}

	bearing, err := parseFloat("bearing", bearingRaw)
	if err != nil {
		return services.LookupRequest{}, err
	}
	distance, err := parseFloat("distance", distanceRaw)
	if err != nil {
		return services.LookupRequest{}, err
	}
	req.Displacement = &domain.Displacement{BearingDeg: bearing, DistanceM: distance}

	return req, nil
}

func formValue(r *http.Request, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.FormValue(n)); v != "" {
			return v
		}
	}
	return ""
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Message: "must be a number"}
	}
	return v, nil
}

// writeLookupError maps domain errors onto HTTP statuses. Upstream and
// not-found errors are relayed with their message.
func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ue *domain.UpstreamError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		writeError(w, r, http.StatusNotFound, nf.Error())
	case errors.As(err, &ue):
		zap.L().Warn("upstream lookup failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Int("upstream_status", ue.StatusCode),
			zap.Bool("unauthorized", ue.Unauthorized),
			zap.Error(err),
		)
		if ue.Unauthorized {
			writeError(w, r, http.StatusBadGateway, "upstream authentication failed: "+ue.Message)
			return
		}
		writeError(w, r, http.StatusBadGateway, ue.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "lookup timed out")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads this response.
		zap.L().Debug("lookup canceled",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, statusClientClosedRequest, "request canceled")
	default:
		zap.L().Error("lookup failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
