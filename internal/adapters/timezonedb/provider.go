package timezonedb

import (
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.timezonedb.com/v2.1"

	userAgent    = "timezone-lookup-service/1.0"
	maxBodyBytes = 1 << 20
)

// Provider implements ports.TimezoneProvider using the TimeZoneDB
// "get-time-zone" endpoint (lookup by position).
//
// A missing API key is not a construction error: every lookup fails with an
// unauthorized *domain.UpstreamError instead, so the service stays up and
// reports the problem per request.
//
// The provider is safe for concurrent use.
type Provider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	backoff     time.Duration
}

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// MaxAttempts <= 1 disables retries.
	MaxAttempts int
	// HTTPClient overrides the default client (Timeout is then ignored).
	HTTPClient *http.Client
}

func NewProvider(opts Options) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	session := opts.HTTPClient
	if session == nil {
		session = &http.Client{Timeout: timeout}
	}

	return &Provider{
		session:     session,
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		maxAttempts: opts.MaxAttempts,
		backoff:     200 * time.Millisecond,
	}
}
