// Package openrouteservice is the directions adapter for OpenRouteService.
// One request covers one leg: an origin and a destination.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/provider/resilience"
	"github.com/droproute/droproute/internal/routing"
	"github.com/droproute/droproute/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice-directions"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// maxResponseBytes caps how much of a directions response is read.
	maxResponseBytes = 8 << 20
)

// HTTPDoer executes HTTP requests. *resilience.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the directions client.
type ClientConfig struct {
	// APIKey is sent in the Authorization header.
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Alternatives asks ORS for up to this many extra candidate routes.
	// Zero requests only the recommended route.
	Alternatives int

	// SnapRadiusMeters is how far ORS may move a waypoint to reach a road.
	// Geocoded addresses often sit on a building centroid. Zero keeps the
	// ORS default of 350 m.
	SnapRadiusMeters float64

	// HTTPClient overrides the resilient client built from the fields below.
	HTTPClient HTTPDoer

	Timeout    time.Duration
	MaxRetries uint64
	Registry   *resilience.Registry

	Logger zerolog.Logger
}

// Client requests directions from OpenRouteService.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger

	alternatives int
	snapRadius   float64
}

// NewClient creates a directions client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = cfg.Timeout
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		httpClient:   httpClient,
		logger:       cfg.Logger,
		alternatives: cfg.Alternatives,
		snapRadius:   cfg.SnapRadiusMeters,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the profiles this adapter accepts, driving first.
func (c *Client) SupportedProfiles() []routing.RouteProfile {
	return []routing.RouteProfile{routing.ProfileDriving, routing.ProfileWalk}
}

// GetDirections returns the routes ORS proposes for one leg, best first.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if req.Origin.Validate() != nil {
		return nil, newError("INVALID_ORIGIN", "invalid origin coordinates", routing.ErrInvalidCoordinates)
	}
	if req.Destination.Validate() != nil {
		return nil, newError("INVALID_DESTINATION", "invalid destination coordinates", routing.ErrInvalidCoordinates)
	}

	profile := req.Profile
	if profile == "" {
		profile = routing.ProfileDriving
	}

	httpReq, err := c.newRequest(ctx, profile, req.Origin, req.Destination)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("profile", string(profile)).
		Str("origin", req.Origin.Geohash(7)).
		Str("destination", req.Destination.Geohash(7)).
		Msg("requesting directions")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Msg("directions request failed")
		return nil, newError("REQUEST_FAILED", "failed to reach routing provider", routing.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading directions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyFailure(resp.StatusCode, body)
	}

	var decoded orsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}

	out := &routing.DirectionsResponse{
		Routes:    c.convertRoutes(decoded.Routes),
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
	c.logger.Debug().Int("route_count", len(out.Routes)).Msg("received directions")
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, profile routing.RouteProfile, from, to geo.Coordinate) (*http.Request, error) {
	body := orsRequest{
		// GeoJSON order: [lon, lat].
		Coordinates:  [][]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	}
	if c.alternatives > 0 {
		// The recommended route counts toward the target.
		body.AlternativeRoutes = &alternativeRoutesOpts{TargetCount: c.alternatives + 1}
	}
	if c.snapRadius > 0 {
		body.Radiuses = []float64{c.snapRadius, c.snapRadius}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding directions request: %w", err)
	}

	url := c.baseURL + "/v2/directions/" + string(profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating directions request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, application/geo+json")
	httpReq.Header.Set("Authorization", c.apiKey)
	return httpReq, nil
}

// classifyFailure maps a non-200 ORS response to a routing error.
func classifyFailure(status int, body []byte) error {
	var payload orsErrorResponse
	if json.Unmarshal(body, &payload) != nil {
		return newError(fmt.Sprintf("HTTP_%d", status),
			fmt.Sprintf("routing provider returned status %d", status), routing.ErrProviderUnavailable)
	}
	msg := payload.Error.Message

	switch {
	case status == http.StatusTooManyRequests:
		return newError("RATE_LIMIT", "routing provider rate limit exceeded", routing.ErrRateLimitExceeded)
	case status == http.StatusForbidden:
		return newError("FORBIDDEN", "routing provider rejected the API key", routing.ErrProviderUnavailable)
	case status == http.StatusNotFound, isNoRouteCode(payload.Error.Code):
		if msg == "" {
			msg = "no route found between the given points"
		}
		return newError("NO_ROUTE", msg, routing.ErrNoRouteFound)
	case status == http.StatusBadRequest:
		return newError("BAD_REQUEST", msg, routing.ErrInvalidCoordinates)
	case status >= 500:
		return newError(fmt.Sprintf("SERVER_%d", status), "routing provider is temporarily unavailable", routing.ErrProviderUnavailable)
	default:
		return newError(fmt.Sprintf("HTTP_%d", status), msg, routing.ErrProviderUnavailable)
	}
}

func newError(code, message string, err error) *routing.Error {
	return &routing.Error{Provider: ProviderName, Code: code, Message: message, Err: err}
}

// convertRoutes keeps ORS's ranking. Routes with undecodable geometry are
// dropped.
func (c *Client) convertRoutes(in []orsRoute) []routing.Route {
	routes := make([]routing.Route, 0, len(in))
	for i := range in {
		points, err := polyline.Decode(in[i].Geometry)
		if err != nil {
			c.logger.Warn().Err(err).Int("route", i).Msg("dropping route with malformed geometry")
			continue
		}

		path := make([]geo.Coordinate, len(points))
		for j, p := range points {
			path[j] = geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
		}
		if len(path) == 0 {
			path = nil
		}

		routes = append(routes, routing.Route{
			Path:            path,
			DistanceMeters:  in[i].Summary.Distance,
			DurationSeconds: in[i].Summary.Duration,
			Steps:           in[i].steps(),
		})
	}
	return routes
}
