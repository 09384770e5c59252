// Package geocoding resolves free-text delivery addresses to located points.
package geocoding

import (
	"context"
	"errors"

	"github.com/droproute/droproute/internal/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrAddressNotFound indicates the address did not resolve to any location.
	ErrAddressNotFound = errors.New("address not found")
	// ErrProviderUnavailable indicates the geocoding provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// LocatedPoint is a resolved address.
type LocatedPoint struct {
	DisplayName string
	Coordinate  geo.Coordinate
}

// Geohash returns the point's geohash at precision 7 (about 150 m).
func (p LocatedPoint) Geohash() string {
	return p.Coordinate.Geohash(7)
}

// Place is a single match returned by a provider.
type Place struct {
	Label      string
	Name       string
	Locality   string
	Region     string
	Country    string
	Coordinate geo.Coordinate
}

// SearchRequest is a forward geocoding query.
type SearchRequest struct {
	Text string
	// Bias narrows results toward this region when it is not empty.
	Bias  geo.Region
	Limit int
}

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Search returns matches for free text, best first. No match is an
	// empty slice, not an error.
	Search(ctx context.Context, req SearchRequest) ([]Place, error)
	// Reverse returns places at or near the coordinate, best first.
	Reverse(ctx context.Context, c geo.Coordinate) ([]Place, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from the geocoding provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
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
