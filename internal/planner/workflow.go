// Package planner orchestrates address resolution, leg planning and
// aggregation into route plans, and commits results with last-request-wins
// semantics per presentation session.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/routing"
)

const instrumentationName = "github.com/droproute/droproute/internal/planner"

var (
	// ErrInsufficientPoints is returned when fewer than two locations resolve.
	ErrInsufficientPoints = routing.ErrInsufficientPoints
	// ErrNoDeliverySource is returned by PlanAccepted without an OngoingSource.
	ErrNoDeliverySource = errors.New("no delivery source configured")
)

// AddressResolver resolves addresses to points, one slot per input.
type AddressResolver interface {
	ResolveAll(ctx context.Context, addresses []string) []*geocoding.LocatedPoint
}

// LegPlanner plans the legs between consecutive points.
type LegPlanner interface {
	PlanLegs(ctx context.Context, points []geocoding.LocatedPoint) ([]routing.Leg, error)
}

// OngoingSource lists the addresses of accepted deliveries in route order.
type OngoingSource interface {
	OngoingAddresses(ctx context.Context) ([]string, error)
}

// WorkflowConfig holds the collaborators of a Workflow.
type WorkflowConfig struct {
	Resolver   AddressResolver
	Legs       LegPlanner
	Deliveries OngoingSource
	Logger     zerolog.Logger
}

// Workflow plans routes. It holds no per-run state, so calls are
// independent and safe for concurrent use.
type Workflow struct {
	resolver   AddressResolver
	legs       LegPlanner
	deliveries OngoingSource
	logger     zerolog.Logger
	tracer     trace.Tracer
	runs       metric.Int64Counter
}

// NewWorkflow creates a new planning workflow.
func NewWorkflow(cfg WorkflowConfig) *Workflow {
	w := &Workflow{
		resolver:   cfg.Resolver,
		legs:       cfg.Legs,
		deliveries: cfg.Deliveries,
		logger:     cfg.Logger,
		tracer:     otel.Tracer(instrumentationName),
	}

	runs, err := otel.Meter(instrumentationName).Int64Counter(
		"planner.runs",
		metric.WithDescription("Planning runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("failed to create planner run counter")
	}
	w.runs = runs

	return w
}

// PlanToDestination plans the single leg from origin to destination.
func (w *Workflow) PlanToDestination(ctx context.Context, origin, destination geocoding.LocatedPoint) (routing.Plan, error) {
	ctx, span := w.tracer.Start(ctx, "planner.PlanToDestination")
	defer span.End()

	itinerary := []geocoding.LocatedPoint{origin, destination}
	plan, err := w.planLegs(ctx, itinerary)
	w.finish(ctx, span, "direct", plan, err)
	return plan, err
}

// PlanItinerary resolves origin, stops and destination, keeps the points
// that resolved in their original order and plans the legs between them.
// It returns ErrInsufficientPoints, without requesting directions, when
// fewer than two points resolve. The resolved itinerary is returned either
// way.
func (w *Workflow) PlanItinerary(ctx context.Context, originAddress string, stopAddresses []string, destinationAddress string) (routing.Plan, []geocoding.LocatedPoint, error) {
	ctx, span := w.tracer.Start(ctx, "planner.PlanItinerary")
	defer span.End()

	plan, itinerary, err := w.planItinerary(ctx, span, originAddress, stopAddresses, destinationAddress)
	w.finish(ctx, span, "itinerary", plan, err)
	return plan, itinerary, err
}

// PlanAccepted plans from origin through every Ongoing delivery in
// acceptance order. The last accepted delivery is the destination.
func (w *Workflow) PlanAccepted(ctx context.Context, originAddress string) (routing.Plan, []geocoding.LocatedPoint, error) {
	ctx, span := w.tracer.Start(ctx, "planner.PlanAccepted")
	defer span.End()

	if w.deliveries == nil {
		w.finish(ctx, span, "accepted", emptyPlan(), ErrNoDeliverySource)
		return emptyPlan(), nil, ErrNoDeliverySource
	}

	addresses, err := w.deliveries.OngoingAddresses(ctx)
	if err != nil {
		err = fmt.Errorf("loading ongoing deliveries: %w", err)
		w.finish(ctx, span, "accepted", emptyPlan(), err)
		return emptyPlan(), nil, err
	}
	span.SetAttributes(attribute.Int("planner.ongoing_deliveries", len(addresses)))

	if len(addresses) == 0 {
		w.finish(ctx, span, "accepted", emptyPlan(), ErrInsufficientPoints)
		return emptyPlan(), nil, ErrInsufficientPoints
	}

	last := len(addresses) - 1
	plan, itinerary, err := w.planItinerary(ctx, span, originAddress, addresses[:last], addresses[last])
	w.finish(ctx, span, "accepted", plan, err)
	return plan, itinerary, err
}

func (w *Workflow) planItinerary(ctx context.Context, span trace.Span, originAddress string, stopAddresses []string, destinationAddress string) (routing.Plan, []geocoding.LocatedPoint, error) {
	addresses := make([]string, 0, len(stopAddresses)+2)
	addresses = append(addresses, originAddress)
	addresses = append(addresses, stopAddresses...)
	addresses = append(addresses, destinationAddress)

	slots := w.resolver.ResolveAll(ctx, addresses)

	itinerary := make([]geocoding.LocatedPoint, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			itinerary = append(itinerary, *p)
		}
	}

	span.SetAttributes(
		attribute.Int("planner.stops", len(stopAddresses)),
		attribute.Int("planner.addresses", len(addresses)),
		attribute.Int("planner.resolved", len(itinerary)),
	)

	if len(itinerary) < 2 {
		return emptyPlan(), itinerary, ErrInsufficientPoints
	}

	plan, err := w.planLegs(ctx, itinerary)
	return plan, itinerary, err
}

func (w *Workflow) planLegs(ctx context.Context, itinerary []geocoding.LocatedPoint) (routing.Plan, error) {
	legs, err := w.legs.PlanLegs(ctx, itinerary)
	if err != nil {
		return emptyPlan(), err
	}
	return routing.AggregateItinerary(legs, len(itinerary)-1), nil
}

func (w *Workflow) finish(ctx context.Context, span trace.Span, mode string, plan routing.Plan, err error) {
	outcome := string(plan.Status())
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.String("planner.mode", mode),
		attribute.String("planner.status", outcome),
		attribute.Int("planner.legs_requested", plan.RequestedLegs),
		attribute.Int("planner.legs_planned", len(plan.Legs)),
	)

	if w.runs != nil {
		w.runs.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", outcome),
		))
	}

	event := w.logger.Info()
	if err != nil {
		event = w.logger.Warn().Err(err)
	}
	event.
		Str("mode", mode).
		Str("status", outcome).
		Int("legs", len(plan.Legs)).
		Int("legs_requested", plan.RequestedLegs).
		Float64("distance_m", plan.TotalDistanceMeters).
		Float64("duration_s", plan.TotalDurationSeconds).
		Msg("route planned")
}

func emptyPlan() routing.Plan {
	return routing.Aggregate(nil)
}
