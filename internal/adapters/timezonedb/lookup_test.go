package timezonedb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"timezone-lookup-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"status": "OK",
	"message": "",
	"countryCode": "US",
	"countryName": "United States",
	"regionName": "Illinois",
	"cityName": "Chicago",
	"zoneName": "America/Chicago",
	"abbreviation": "CDT",
	"gmtOffset": -18000,
	"dst": "1",
	"zoneStart": 1741507200,
	"zoneEnd": 1762066800,
	"nextAbbreviation": "CST",
	"timestamp": 1750000000,
	"formatted": "2025-06-15 15:06:40"
}`

type stubServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newStubServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, call int32)) *stubServer {
	t.Helper()

	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.calls.Add(1)
		handler(w, r, n)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestProvider(baseURL, key string, attempts int) *Provider {
	p := NewProvider(Options{APIKey: key, BaseURL: baseURL, MaxAttempts: attempts})
	p.backoff = time.Millisecond
	return p
}

var chicago = domain.Coordinates{Lat: 41.8781, Lng: -87.6298}

func TestLookupTimezoneSuccess(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		assert.Equal(t, "/get-time-zone", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "position", q.Get("by"))
		assert.Equal(t, "41.8781", q.Get("lat"))
		assert.Equal(t, "-87.6298", q.Get("lng"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	})

	res, err := newTestProvider(srv.URL, "secret", 1).LookupTimezone(context.Background(), chicago)
	require.NoError(t, err)

	require.Equal(t, domain.TimezoneResult{
		ZoneName:         "America/Chicago",
		Abbreviation:     "CDT",
		CountryCode:      "US",
		CountryName:      "United States",
		GMTOffsetSeconds: -18000,
		DST:              true,
		Timestamp:        1750000000,
		ZoneStart:        1741507200,
		ZoneEnd:          1762066800,
	}, res)
	require.Equal(t, "15:06:40", res.LocalTime())
}

func TestLookupTimezoneFailures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantNotFound bool
		wantUnauth   bool
	}{
		{
			name:       "invalid key in FAILED body",
			status:     http.StatusOK,
			body:       `{"status":"FAILED","message":"Invalid API key."}`,
			wantUnauth: true,
		},
		{
			name:       "401 status",
			status:     http.StatusUnauthorized,
			body:       `{"status":"FAILED","message":"Unauthorized"}`,
			wantUnauth: true,
		},
		{
			name:         "record not found",
			status:       http.StatusOK,
			body:         `{"status":"FAILED","message":"Record not found."}`,
			wantNotFound: true,
		},
		{
			name:   "plain bad request",
			status: http.StatusBadRequest,
			body:   `{"status":"FAILED","message":"Invalid latitude value."}`,
		},
		{
			name:   "garbage body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := newTestProvider(srv.URL, "secret", 1).LookupTimezone(context.Background(), chicago)
			require.Error(t, err)

			var nf *domain.NotFoundError
			var ue *domain.UpstreamError
			switch {
			case tc.wantNotFound:
				require.True(t, errors.As(err, &nf), "want NotFoundError, got %v", err)
			default:
				require.True(t, errors.As(err, &ue), "want UpstreamError, got %v", err)
				require.Equal(t, tc.wantUnauth, ue.Unauthorized)
			}
		})
	}
}

func TestLookupTimezoneMissingKeyMakesNoCall(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := newTestProvider(srv.URL, "  ", 1).LookupTimezone(context.Background(), chicago)

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	require.True(t, ue.Unauthorized)
	require.EqualValues(t, 0, srv.calls.Load())
}

func TestLookupTimezoneInvalidCoordinatesMakesNoCall(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := newTestProvider(srv.URL, "secret", 1).LookupTimezone(context.Background(), domain.Coordinates{Lat: 100})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	require.EqualValues(t, 0, srv.calls.Load())
}

func TestLookupTimezoneNoRetryByDefault(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := newTestProvider(srv.URL, "secret", 0).LookupTimezone(context.Background(), chicago)

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	require.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	require.EqualValues(t, 1, srv.calls.Load())
}

func TestLookupTimezoneRetriesWhenEnabled(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, call int32) {
		if call < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	})

	res, err := newTestProvider(srv.URL, "secret", 3).LookupTimezone(context.Background(), chicago)
	require.NoError(t, err)
	require.Equal(t, "America/Chicago", res.ZoneName)
	require.EqualValues(t, 3, srv.calls.Load())
}

func TestLookupTimezoneDoesNotRetryClientErrors(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"FAILED","message":"Invalid API key."}`))
	})

	_, err := newTestProvider(srv.URL, "secret", 4).LookupTimezone(context.Background(), chicago)
	require.Error(t, err)
	require.EqualValues(t, 1, srv.calls.Load())
}

func TestLookupTimezoneUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestProvider(url, "secret", 1).LookupTimezone(context.Background(), chicago)

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	require.False(t, ue.Unauthorized)
	require.NotNil(t, ue.Err)
}
