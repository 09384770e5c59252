// Package openrouteservice provides a geocoding client for the
// OpenRouteService Pelias search and reverse endpoints.
package openrouteservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "openrouteservice-geocode"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// Country restricts searches to an ISO country code (optional).
	Country string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// MaxRetries is passed to the default resilient client.
	MaxRetries uint64

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is an OpenRouteService geocoding client.
type Client struct {
	apiKey     string
	baseURL    string
	country    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		country:    cfg.Country,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search geocodes free text.
func (c *Client) Search(ctx context.Context, req geocoding.SearchRequest) ([]geocoding.Place, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 1
	}

	q := url.Values{}
	q.Set("text", req.Text)
	q.Set("size", strconv.Itoa(limit))
	if c.country != "" {
		q.Set("boundary.country", c.country)
	}
	if !req.Bias.IsEmpty() {
		center := req.Bias.Center()
		q.Set("focus.point.lat", formatFloat(center.Lat))
		q.Set("focus.point.lon", formatFloat(center.Lon))
	}

	c.logger.Debug().
		Str("text", req.Text).
		Int("size", limit).
		Msg("geocoding address with ORS")

	return c.get(ctx, "/geocode/search", q)
}

// Reverse returns places near the coordinate.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) ([]geocoding.Place, error) {
	q := url.Values{}
	q.Set("point.lat", formatFloat(coord.Lat))
	q.Set("point.lon", formatFloat(coord.Lon))
	q.Set("size", "1")

	return c.get(ctx, "/geocode/reverse", q)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]geocoding.Place, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach geocoding provider",
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return toPlaces(fc), nil
}

// handleErrorResponse maps ORS error responses to domain errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	_ = json.Unmarshal(body, &orsErr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      geocoding.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      geocoding.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "geocoding provider is temporarily unavailable",
			Err:      geocoding.ErrProviderUnavailable,
		}
	default:
		msg := orsErr.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("geocoding provider returned status %d", statusCode)
		}
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  msg,
			Err:      geocoding.ErrAddressNotFound,
		}
	}
}

// toPlaces converts features to places, skipping malformed geometry.
func toPlaces(fc featureCollection) []geocoding.Place {
	places := make([]geocoding.Place, 0, len(fc.Features))
	for i := range fc.Features {
		f := &fc.Features[i]
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		coord := geo.Coordinate{Lon: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}
		if coord.Validate() != nil {
			continue
		}
		places = append(places, geocoding.Place{
			Label:      f.Properties.Label,
			Name:       f.Properties.Name,
			Locality:   f.Properties.Locality,
			Region:     f.Properties.Region,
			Country:    f.Properties.Country,
			Coordinate: coord,
		})
	}
	return places
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
