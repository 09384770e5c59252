package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/planner"
	"github.com/droproute/droproute/internal/routing"
)

// Request limits for route planning.
const (
	MaxStops         = 25
	MaxAddressLength = 300
)

// RoutePlanner is the planning workflow as seen by the HTTP layer.
type RoutePlanner interface {
	PlanToDestination(ctx context.Context, origin, destination geocoding.LocatedPoint) (routing.Plan, error)
	PlanItinerary(ctx context.Context, originAddress string, stopAddresses []string, destinationAddress string) (routing.Plan, []geocoding.LocatedPoint, error)
	PlanAccepted(ctx context.Context, originAddress string) (routing.Plan, []geocoding.LocatedPoint, error)
}

// RouteHandler handles route planning endpoints.
type RouteHandler struct {
	planner RoutePlanner
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(p RoutePlanner, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{planner: p, logger: logger, now: time.Now}
}

// PlanRoute handles POST /v1/routes:plan - plan origin => stops => destination.
// Addresses that cannot be located are dropped from the itinerary; the
// response status tells a complete plan from a partial one.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RoutePlanRequest
	if !response.Decode(w, r, &input) {
		return
	}
	if errs := validatePlanRequest(input); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	plan, itinerary, err := h.planner.PlanItinerary(r.Context(), input.Origin, input.Stops, input.Destination)
	if err != nil {
		h.writePlanError(w, r, err, len(input.Stops)+2, len(itinerary))
		return
	}
	response.JSON(w, r, http.StatusOK, toRoutePlan(plan, itinerary, h.now()))
}

// PlanDirect handles POST /v1/routes:direct - one leg between two located points.
func (h *RouteHandler) PlanDirect(w http.ResponseWriter, r *http.Request) {
	var input models.DirectRouteRequest
	if !response.Decode(w, r, &input) {
		return
	}
	if errs := validateDirectRequest(input); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	origin, destination := fromLocation(*input.Origin), fromLocation(*input.Destination)
	plan, err := h.planner.PlanToDestination(r.Context(), origin, destination)
	if err != nil {
		h.writePlanError(w, r, err, 2, 2)
		return
	}
	response.JSON(w, r, http.StatusOK, toRoutePlan(plan, []geocoding.LocatedPoint{origin, destination}, h.now()))
}

// PlanAccepted handles POST /v1/routes:accepted - origin through every
// Ongoing delivery in acceptance order.
func (h *RouteHandler) PlanAccepted(w http.ResponseWriter, r *http.Request) {
	var input models.AcceptedRouteRequest
	if !response.Decode(w, r, &input) {
		return
	}
	if len(input.Origin) > MaxAddressLength {
		response.BadRequest(w, r, "validation error", []models.FieldError{addressTooLong("origin")})
		return
	}

	plan, itinerary, err := h.planner.PlanAccepted(r.Context(), input.Origin)
	if err != nil {
		h.writePlanError(w, r, err, 0, len(itinerary))
		return
	}
	response.JSON(w, r, http.StatusOK, toRoutePlan(plan, itinerary, h.now()))
}

// writePlanError maps workflow failures. requested is 0 when the number of
// addresses is not known to the caller.
func (h *RouteHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error, requested, located int) {
	switch {
	case errors.Is(err, planner.ErrInsufficientPoints):
		detail := "at least two addresses must be located to plan a route"
		if requested > 0 {
			detail = fmt.Sprintf("only %d of %d addresses could be located; at least two are needed", located, requested)
		}
		response.InsufficientPoints(w, r, detail)
	case errors.Is(err, planner.ErrNoDeliverySource):
		response.ServiceUnavailable(w, r, "delivery list is not available")
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// The client went away; nobody is left to read a response.
		h.logger.Debug().Str("path", r.URL.Path).Msg("route planning canceled by client")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("route planning failed")
		response.InternalError(w, r, "route planning failed")
	}
}

func validatePlanRequest(input models.RoutePlanRequest) []models.FieldError {
	var errs []models.FieldError
	if len(input.Origin) > MaxAddressLength {
		errs = append(errs, addressTooLong("origin"))
	}
	if len(input.Destination) > MaxAddressLength {
		errs = append(errs, addressTooLong("destination"))
	}
	if len(input.Stops) > MaxStops {
		errs = append(errs, models.FieldError{
			Field:   "stops",
			Message: fmt.Sprintf("must contain at most %d addresses", MaxStops),
			Code:    "TOO_MANY",
		})
	}
	for i, stop := range input.Stops {
		if len(stop) > MaxAddressLength {
			errs = append(errs, addressTooLong(fmt.Sprintf("stops[%d]", i)))
		}
	}
	return errs
}

func validateDirectRequest(input models.DirectRouteRequest) []models.FieldError {
	var errs []models.FieldError
	for _, f := range []struct {
		name string
		loc  *models.Location
	}{
		{"origin", input.Origin},
		{"destination", input.Destination},
	} {
		if f.loc == nil {
			errs = append(errs, models.FieldError{Field: f.name, Message: "is required", Code: "REQUIRED"})
			continue
		}
		if err := (geo.Coordinate{Lat: f.loc.Lat, Lon: f.loc.Lon}).Validate(); err != nil {
			errs = append(errs, models.FieldError{Field: f.name, Message: err.Error(), Code: "OUT_OF_RANGE"})
		}
	}
	return errs
}

func addressTooLong(field string) models.FieldError {
	return models.FieldError{
		Field:   field,
		Message: fmt.Sprintf("must be at most %d characters", MaxAddressLength),
		Code:    "TOO_LONG",
	}
}
