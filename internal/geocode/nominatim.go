package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/geo"
)

const maxResponseBody = 1 << 20

// Option configures a Nominatim client.
type Option func(*Nominatim)

// WithBaseURL sets the service root, for example https://nominatim.openstreetmap.org.
func WithBaseURL(u string) Option {
	return func(n *Nominatim) {
		if u != "" {
			n.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header. Public Nominatim requires one.
func WithUserAgent(ua string) Option {
	return func(n *Nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithLanguage sets the Accept-Language header.
func WithLanguage(lang string) Option {
	return func(n *Nominatim) {
		n.language = lang
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(n *Nominatim) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Nominatim) {
		if c != nil {
			n.client = c
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(r int) Option {
	return func(n *Nominatim) {
		if r >= 0 {
			n.retries = r
		}
	}
}

// WithBackoff sets the delay before the first retry. It doubles on each retry.
func WithBackoff(d time.Duration) Option {
	return func(n *Nominatim) {
		if d > 0 {
			n.backoff = d
		}
	}
}

// Nominatim is a Namer backed by a Nominatim-compatible /reverse endpoint.
// It is safe for concurrent use.
type Nominatim struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
	retries   int
	backoff   time.Duration
}

// NewNominatim returns a client with defaults for every unset option.
func NewNominatim(opts ...Option) *Nominatim {
	n := &Nominatim{
		client:    &http.Client{Timeout: config.DefaultGeocoderTimeout},
		baseURL:   config.DefaultGeocoderURL,
		userAgent: config.DefaultUserAgent,
		retries:   config.DefaultGeocoderRetries,
		backoff:   200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type reverseResponse struct {
	Error       string  `json:"error"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// Reverse looks up the place at p.
func (n *Nominatim) Reverse(ctx context.Context, p geo.Point) (l Lookup) {
	defer timed(ctx, "nominatim.reverse")(&l.Err)

	resp, err := n.doWithRetry(ctx, func() (*http.Request, error) {
		return n.newRequest(ctx, p)
	})
	if err != nil {
		return Lookup{Status: Unavailable, Err: fmt.Errorf("reverse %s: %w", p, err)}
	}
	defer resp.Body.Close()

	var decoded reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&decoded); err != nil {
		return Lookup{Status: Unavailable, Err: fmt.Errorf("decode reverse response: %w", err)}
	}

	// nominatim answers 200 {"error":"Unable to geocode"} over open sea
	if decoded.Error != "" || (decoded.DisplayName == "" && decoded.Address == (Address{})) {
		return Lookup{Status: NoData}
	}

	return Lookup{
		Status:      Found,
		Name:        SelectName(decoded.Address, decoded.DisplayName),
		Country:     strings.TrimSpace(decoded.Address.Country),
		DisplayName: decoded.DisplayName,
	}
}

func (n *Nominatim) newRequest(ctx context.Context, p geo.Point) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))
	q.Set("addressdetails", "1")
	q.Set("zoom", "10")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.userAgent)
	if n.language != "" {
		req.Header.Set("Accept-Language", n.language)
	}

	return req, nil
}
