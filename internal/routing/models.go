// Package routing plans driving legs between located points and aggregates
// them into a route plan.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrInsufficientPoints indicates an itinerary with fewer than two points.
	ErrInsufficientPoints = errors.New("need at least two resolvable locations")
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetDirections retrieves candidate routes between two points, best first.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the list of route profiles this provider supports.
	SupportedProfiles() []RouteProfile
}

// RouteProfile represents a routing profile (mode of transport).
type RouteProfile string

const (
	// ProfileDriving is the driving-car profile used for delivery routes.
	ProfileDriving RouteProfile = "driving-car"
	// ProfileWalk is the foot-walking profile for the last stretch on foot.
	ProfileWalk RouteProfile = "foot-walking"
)

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Profile     RouteProfile
}

// DirectionsResponse is the response containing candidate routes.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route represents a single provider-ranked route candidate.
type Route struct {
	Path            []geo.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []Step
}

// Step is one turn-by-turn instruction.
type Step struct {
	Instruction    string
	DistanceMeters float64
}

// Leg is the routed path between two consecutive itinerary points.
type Leg struct {
	// Index is the position of the leg in the itinerary (0 for origin to
	// the first stop) and survives omission of other legs.
	Index           int
	From            geocoding.LocatedPoint
	To              geocoding.LocatedPoint
	Path            []geo.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []Step
}

// Bounds returns the region covering the leg's path. A leg without
// geometry falls back to its endpoints.
func (l Leg) Bounds() geo.Region {
	if len(l.Path) == 0 {
		return geo.NewRegion(l.From.Coordinate, l.To.Coordinate)
	}
	return geo.RegionOf(l.Path)
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
