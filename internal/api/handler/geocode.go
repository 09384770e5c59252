package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/provider/resilience"
)

// Describer turns a coordinate into a display label.
type Describer interface {
	Describe(ctx context.Context, c geo.Coordinate) (string, error)
}

// GeocodeHandler handles geocoding lookups.
type GeocodeHandler struct {
	describer Describer
	logger    zerolog.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(d Describer, logger zerolog.Logger) *GeocodeHandler {
	return &GeocodeHandler{describer: d, logger: logger}
}

// ReverseGeocode handles POST /v1/geocode:reverse - label for a device position.
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var input models.ReverseGeocodeRequest
	if !response.Decode(w, r, &input) {
		return
	}

	var errs []models.FieldError
	if input.Lat == nil {
		errs = append(errs, models.FieldError{Field: "lat", Message: "is required", Code: "REQUIRED"})
	}
	if input.Lon == nil {
		errs = append(errs, models.FieldError{Field: "lon", Message: "is required", Code: "REQUIRED"})
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	c := geo.Coordinate{Lat: *input.Lat, Lon: *input.Lon}
	if err := c.Validate(); err != nil {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "lat", Message: err.Error(), Code: "OUT_OF_RANGE"},
		})
		return
	}

	label, err := h.describer.Describe(r.Context(), c)
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrRateLimitExceeded),
			errors.Is(err, geocoding.ErrProviderUnavailable),
			errors.Is(err, resilience.ErrCircuitOpen):
			h.logger.Warn().Err(err).Msg("reverse geocoding unavailable")
			response.ServiceUnavailable(w, r, "geocoding provider unavailable")
		case errors.Is(err, geocoding.ErrAddressNotFound):
			response.NotFound(w, r, "no address found at this position")
		default:
			h.logger.Error().Err(err).Msg("reverse geocoding failed")
			response.InternalError(w, r, "reverse geocoding failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReverseGeocodeResponse{
		Label: label,
		Point: models.Point{Lat: c.Lat, Lon: c.Lon},
	})
}
