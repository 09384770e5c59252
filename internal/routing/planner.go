package routing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/droproute/droproute/internal/geocoding"
)

// DefaultConcurrency bounds in-flight directions requests per PlanLegs call.
const DefaultConcurrency = 4

// LegPlannerConfig holds configuration for the leg planner.
type LegPlannerConfig struct {
	Provider Provider

	// Profile is the routing profile (default driving-car).
	Profile RouteProfile

	// Concurrency limits parallel directions requests (default 4).
	Concurrency int

	Logger zerolog.Logger
}

// LegPlanner issues one directions request per consecutive pair of points.
type LegPlanner struct {
	provider    Provider
	profile     RouteProfile
	concurrency int
	logger      zerolog.Logger
}

// NewLegPlanner creates a new leg planner.
func NewLegPlanner(cfg LegPlannerConfig) *LegPlanner {
	profile := cfg.Profile
	if profile == "" {
		profile = ProfileDriving
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &LegPlanner{
		provider:    cfg.Provider,
		profile:     profile,
		concurrency: concurrency,
		logger:      cfg.Logger,
	}
}

// PlanLegs returns the legs between consecutive points in itinerary order.
// Requests run concurrently. A leg whose request fails or yields no route is
// omitted and the remaining legs are still returned. Fewer than two points
// returns an empty slice and ErrInsufficientPoints.
func (p *LegPlanner) PlanLegs(ctx context.Context, points []geocoding.LocatedPoint) ([]Leg, error) {
	if len(points) < 2 {
		return []Leg{}, ErrInsufficientPoints
	}

	slots := make([]*Leg, len(points)-1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range slots {
		from, to := points[i], points[i+1]
		g.Go(func() error {
			leg, err := p.planLeg(gctx, i, from, to)
			if err != nil {
				p.logger.Warn().
					Err(err).
					Int("leg", i).
					Str("from", from.DisplayName).
					Str("to", to.DisplayName).
					Str("provider", p.provider.Name()).
					Msg("leg unavailable")
				return nil
			}
			slots[i] = leg
			return nil
		})
	}
	_ = g.Wait()

	legs := make([]Leg, 0, len(slots))
	for _, leg := range slots {
		if leg != nil {
			legs = append(legs, *leg)
		}
	}
	return legs, nil
}

func (p *LegPlanner) planLeg(ctx context.Context, index int, from, to geocoding.LocatedPoint) (*Leg, error) {
	resp, err := p.provider.GetDirections(ctx, DirectionsRequest{
		Origin:      from.Coordinate,
		Destination: to.Coordinate,
		Profile:     p.profile,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Routes) == 0 {
		return nil, fmt.Errorf("leg %d: %w", index, ErrNoRouteFound)
	}

	route := resp.Routes[0]
	return &Leg{
		Index:           index,
		From:            from,
		To:              to,
		Path:            route.Path,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Steps:           route.Steps,
	}, nil
}
