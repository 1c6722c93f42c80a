package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"timezone-lookup-service/internal/adapters/repositories"
	"timezone-lookup-service/internal/api/dto"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/db"
	"timezone-lookup-service/internal/services"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls  atomic.Int32
	result domain.TimezoneResult
	err    error
}

func (p *stubProvider) LookupTimezone(ctx context.Context, c domain.Coordinates) (domain.TimezoneResult, error) {
	p.calls.Add(1)
	if p.err != nil {
		return domain.TimezoneResult{}, p.err
	}
	return p.result, nil
}

var chicago = domain.TimezoneResult{
	ZoneName:         "America/Chicago",
	Abbreviation:     "CDT",
	CountryCode:      "US",
	CountryName:      "United States",
	GMTOffsetSeconds: -18000,
	DST:              true,
	Timestamp:        1750000000,
}

func newTestServer(t *testing.T, p *stubProvider, history bool) *httptest.Server {
	t.Helper()

	svc := services.NewTimezoneService(p, nil, nil, time.Hour)
	if history {
		conn, err := db.Open(db.SQLite, ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		require.NoError(t, repositories.InitSchema(context.Background(), conn))
		svc.History = repositories.NewSQLLookupRepository(conn, db.SQLite)
	}

	srv := httptest.NewServer(NewRouter(svc))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, header ...string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestTimezoneLookupJSON(t *testing.T) {
	p := &stubProvider{result: chicago}
	srv := newTestServer(t, p, false)

	resp, body := get(t, srv, "/timezone?lat=41.8781&lng=-87.6298")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var got dto.TimezoneResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Equal(t, "America/Chicago", got.ZoneName)
	require.Equal(t, -18000, got.GMTOffsetSeconds)
	require.Equal(t, int64(1750000000), got.Timestamp)
	require.Equal(t, "15:06:40", got.CurrentLocalTime)
	require.Equal(t, "2025-06-15 15:06:40", got.Formatted)
	require.Equal(t, dto.CoordinatesResponse{Latitude: 41.8781, Longitude: -87.6298}, got.Location)
	require.False(t, got.Cached)
}

func TestTimezoneLookupText(t *testing.T) {
	srv := newTestServer(t, &stubProvider{result: chicago}, false)

	resp, body := get(t, srv, "/timezone?latitude=41.8781&longitude=-87.6298&format=text")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "America/Chicago 15:06:40 (UTC-05:00)\n", body)

	resp, body = get(t, srv, "/timezone?lat=41.8781&lng=-87.6298", "Accept", "text/plain")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(body, "America/Chicago"))
}

func TestTimezoneLookupForm(t *testing.T) {
	srv := newTestServer(t, &stubProvider{result: chicago}, false)

	form := url.Values{"lat": {"41.8781"}, "lng": {"-87.6298"}}
	resp, err := http.PostForm(srv.URL+"/timezone", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTimezoneLookupValidation(t *testing.T) {
	p := &stubProvider{result: chicago}
	srv := newTestServer(t, p, false)

	paths := []string{
		"/timezone",
		"/timezone?lat=41.8",
		"/timezone?lat=abc&lng=1",
		"/timezone?lat=91&lng=0",
		"/timezone?lat=0&lng=-180.5",
		"/timezone?lat=0&lng=0&bearing=90",
		"/timezone?lat=0&lng=0&bearing=400&distance=10",
		"/timezone?lat=90&lng=10&bearing=10&distance=10",
		"/timeZoneLookup?latitude=NaN&longitude=0",
	}
	for _, path := range paths {
		resp, body := get(t, srv, path)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s: %s", path, body)
		require.Contains(t, body, `"error"`)
	}

	require.EqualValues(t, 0, p.calls.Load(), "validation must happen before any provider call")
}

func TestTimezoneLookupUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid key",
			err:        &domain.UpstreamError{StatusCode: 400, Message: "Invalid API key.", Unauthorized: true},
			wantStatus: http.StatusBadGateway,
			wantBody:   "upstream authentication failed",
		},
		{
			name:       "service down",
			err:        &domain.UpstreamError{StatusCode: 503, Message: "Service Unavailable"},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Service Unavailable",
		},
		{
			name:       "not covered",
			err:        &domain.NotFoundError{Message: "Record not found."},
			wantStatus: http.StatusNotFound,
			wantBody:   "Record not found.",
		},
		{
			name:       "unexpected",
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal server error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &stubProvider{err: tc.err}, false)

			resp, body := get(t, srv, "/timezone?lat=10&lng=10")
			require.Equal(t, tc.wantStatus, resp.StatusCode)
			require.Contains(t, body, tc.wantBody)
		})
	}
}

func TestLegacyTimezoneLookup(t *testing.T) {
	p := &stubProvider{result: chicago}
	srv := newTestServer(t, p, false)

	resp, body := get(t, srv, "/timeZoneLookup?latitude=41.8781&longitude=-87.6298&bearingInDegrees=0&distanceInMeters=1000")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.JSONEq(t, `{"currentLocalTime":"15:06:40","timeZoneName":"America/Chicago"}`, body)
	require.EqualValues(t, 1, p.calls.Load())
}

func TestLookupsHistory(t *testing.T) {
	srv := newTestServer(t, &stubProvider{result: chicago}, false)
	resp, _ := get(t, srv, "/lookups")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	srv = newTestServer(t, &stubProvider{result: chicago}, true)
	for i := 0; i < 3; i++ {
		resp, _ := get(t, srv, "/timezone?lat=41.8781&lng=-87.6298")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := get(t, srv, "/lookups?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var got dto.ListLookupsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got.Lookups, 2)
	require.Equal(t, "America/Chicago", got.Lookups[0].ZoneName)

	resp, _ = get(t, srv, "/lookups?limit=0")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouterMisc(t *testing.T) {
	srv := newTestServer(t, &stubProvider{result: chicago}, false)

	resp, body := get(t, srv, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "timezone-lookup-service\n", body)

	resp, _ = get(t, srv, "/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, srv, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)

	resp, _ = get(t, srv, "/health", "X-Request-ID", "abc-123")
	require.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/timezone", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, del.StatusCode)
	require.Equal(t, "GET, POST", del.Header.Get("Allow"))
}

func TestOpenAPIEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{result: chicago}, false)

	resp, body := get(t, srv, "/openapi.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := openapi3.NewLoader().LoadFromData([]byte(body))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	require.NotNil(t, doc.Paths.Find("/timezone"))
}
