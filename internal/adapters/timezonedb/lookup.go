package timezonedb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"
)

type getTimeZoneResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	CountryCode  string   `json:"countryCode"`
	CountryName  string   `json:"countryName"`
	ZoneName     string   `json:"zoneName"`
	Abbreviation string   `json:"abbreviation"`
	GMTOffset    int      `json:"gmtOffset"`
	DST          flexBool `json:"dst"`
	ZoneStart    *int64   `json:"zoneStart"`
	ZoneEnd      *int64   `json:"zoneEnd"`
	Timestamp    int64    `json:"timestamp"`
	Formatted    string   `json:"formatted"`
}

// flexBool accepts the "0"/"1" strings TimeZoneDB sends as well as JSON
// booleans and numbers.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch strings.ToLower(s) {
	case "1", "true":
		*b = true
	case "0", "false", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

// LookupTimezone resolves a single coordinate. Retries only happen when
// MaxAttempts > 1.
func (p *Provider) LookupTimezone(ctx context.Context, c domain.Coordinates) (_ domain.TimezoneResult, err error) {
	defer obs.Time(ctx, "timezonedb.LookupTimezone")(&err)

	if err := c.Validate(); err != nil {
		return domain.TimezoneResult{}, err
	}

	if p.apiKey == "" {
		return domain.TimezoneResult{}, &domain.UpstreamError{
			Message:      "timezone api key is not configured",
			Unauthorized: true,
		}
	}

	endpoint := p.baseURL + "/get-time-zone"
	lat := strconv.FormatFloat(c.Lat, 'f', -1, 64)
	lng := strconv.FormatFloat(c.Lng, 'f', -1, 64)

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := p.newRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("key", p.apiKey)
		q.Set("format", "json")
		q.Set("by", "position")
		q.Set("lat", lat)
		q.Set("lng", lng)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) {
			return domain.TimezoneResult{}, classifyFailure(c, he.Code, failureMessage(he.Body))
		}
		return domain.TimezoneResult{}, &domain.UpstreamError{
			Message: "timezone service unreachable",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	var decoded getTimeZoneResponse
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(&decoded); err != nil {
		return domain.TimezoneResult{}, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    "decode timezone response",
			Err:        err,
		}
	}

	if !strings.EqualFold(decoded.Status, "OK") {
		return domain.TimezoneResult{}, classifyFailure(c, resp.StatusCode, decoded.Message)
	}

	if decoded.ZoneName == "" {
		return domain.TimezoneResult{}, &domain.NotFoundError{Coordinates: c, Message: "empty zone name"}
	}

	res := domain.TimezoneResult{
		ZoneName:         decoded.ZoneName,
		Abbreviation:     decoded.Abbreviation,
		CountryCode:      decoded.CountryCode,
		CountryName:      decoded.CountryName,
		GMTOffsetSeconds: decoded.GMTOffset,
		DST:              bool(decoded.DST),
		Timestamp:        decoded.Timestamp,
	}
	if decoded.ZoneStart != nil {
		res.ZoneStart = *decoded.ZoneStart
	}
	if decoded.ZoneEnd != nil {
		res.ZoneEnd = *decoded.ZoneEnd
	}

	return res, nil
}

// failureMessage extracts "message" from an error body, falling back to
// the raw body.
func failureMessage(body string) string {
	var decoded getTimeZoneResponse
	if err := json.Unmarshal([]byte(body), &decoded); err == nil && decoded.Message != "" {
		return decoded.Message
	}
	return body
}

// classifyFailure maps a FAILED response onto the domain error types.
// TimeZoneDB reports most problems through the message text, so both the
// HTTP status and the message are inspected.
func classifyFailure(c domain.Coordinates, code int, message string) error {
	if message == "" {
		message = http.StatusText(code)
	}
	lower := strings.ToLower(message)

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden ||
		strings.Contains(lower, "api key") || strings.Contains(lower, "invalid key"):
		return &domain.UpstreamError{StatusCode: code, Message: message, Unauthorized: true}
	case code == http.StatusNotFound || strings.Contains(lower, "not found"):
		return &domain.NotFoundError{Coordinates: c, Message: message}
	default:
		return &domain.UpstreamError{StatusCode: code, Message: message}
	}
}
