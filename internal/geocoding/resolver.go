package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/droproute/droproute/internal/geo"
)

// DefaultConcurrency bounds in-flight provider calls in ResolveAll.
const DefaultConcurrency = 4

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Provider Provider

	// Bias is sent with every search (optional).
	Bias geo.Region

	// Concurrency limits parallel lookups in ResolveAll (default 4).
	Concurrency int

	Logger zerolog.Logger
}

// Resolver turns addresses into located points. Every call is a fresh
// provider round-trip; nothing is cached.
type Resolver struct {
	provider    Provider
	bias        geo.Region
	concurrency int
	logger      zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{
		provider:    cfg.Provider,
		bias:        cfg.Bias,
		concurrency: concurrency,
		logger:      cfg.Logger,
	}
}

// Resolve returns the provider's best match for address. Any failure,
// including a provider error, wraps ErrAddressNotFound.
func (r *Resolver) Resolve(ctx context.Context, address string) (LocatedPoint, error) {
	text := strings.TrimSpace(address)
	if text == "" {
		return LocatedPoint{}, fmt.Errorf("%w: empty address", ErrAddressNotFound)
	}

	places, err := r.provider.Search(ctx, SearchRequest{Text: text, Bias: r.bias, Limit: 1})
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("address", text).
			Str("provider", r.provider.Name()).
			Msg("address lookup failed")
		return LocatedPoint{}, fmt.Errorf("%w: %q: %w", ErrAddressNotFound, text, err)
	}
	if len(places) == 0 {
		r.logger.Warn().
			Str("address", text).
			Str("provider", r.provider.Name()).
			Msg("address not found")
		return LocatedPoint{}, fmt.Errorf("%w: %q", ErrAddressNotFound, text)
	}

	best := places[0]
	name := best.Label
	if name == "" {
		name = text
	}
	return LocatedPoint{DisplayName: name, Coordinate: best.Coordinate}, nil
}

// ResolveAll resolves addresses concurrently. The result has one slot per
// input in input order; a slot is nil when its address did not resolve.
func (r *Resolver) ResolveAll(ctx context.Context, addresses []string) []*LocatedPoint {
	out := make([]*LocatedPoint, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, address := range addresses {
		g.Go(func() error {
			point, err := r.Resolve(gctx, address)
			if err != nil {
				return nil
			}
			out[i] = &point
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Describe reverse geocodes c into a display label such as
// "Willis Tower, Chicago, Illinois, United States".
func (r *Resolver) Describe(ctx context.Context, c geo.Coordinate) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	places, err := r.provider.Reverse(ctx, c)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding: %w", err)
	}
	if len(places) == 0 {
		return "", ErrAddressNotFound
	}

	p := places[0]
	parts := make([]string, 0, 4)
	for _, part := range []string{p.Name, p.Locality, p.Region, p.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		if p.Label == "" {
			return "", ErrAddressNotFound
		}
		return p.Label, nil
	}
	return strings.Join(parts, ", "), nil
}
