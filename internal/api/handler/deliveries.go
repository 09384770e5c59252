package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/delivery"
)

// DeliveryHandler handles delivery list endpoints.
type DeliveryHandler struct {
	service *delivery.Service
	logger  zerolog.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service *delivery.Service, logger zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{service: service, logger: logger}
}

// ListDeliveries handles GET /v1/deliveries?status=Pending|Ongoing|Completed.
func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	var status delivery.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := delivery.ParseStatus(raw)
		if !ok {
			response.BadRequest(w, r, "unknown status filter", []models.FieldError{
				{Field: "status", Message: "must be Pending, Ongoing or Completed", Code: "INVALID_ENUM"},
			})
			return
		}
		status = parsed
	}

	items, err := h.service.List(r.Context(), status)
	if err != nil {
		h.logger.Error().Err(err).Msg("listing deliveries")
		response.InternalError(w, r, "failed to list deliveries")
		return
	}

	list := models.DeliveryList{Items: make([]models.Delivery, len(items)), Count: len(items)}
	for i, d := range items {
		list.Items[i] = toDelivery(d)
	}
	response.JSON(w, r, http.StatusOK, list)
}

// CreateDelivery handles POST /v1/deliveries.
func (h *DeliveryHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var input models.DeliveryCreateRequest
	if !response.Decode(w, r, &input) {
		return
	}

	d, err := h.service.Create(r.Context(), delivery.CreateInput{
		Name:       input.Name,
		TimeWindow: input.TimeWindow,
		Address:    input.Address,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/deliveries/"+d.ID, toDelivery(d))
}

// GetDelivery handles GET /v1/deliveries/{deliveryId}.
func (h *DeliveryHandler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "deliveryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toDelivery(d))
}

// AcceptDelivery handles POST /v1/deliveries/{deliveryId}:accept.
func (h *DeliveryHandler) AcceptDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Accept(r.Context(), chi.URLParam(r, "deliveryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toDelivery(d))
}

// CompleteDelivery handles POST /v1/deliveries/{deliveryId}:complete.
func (h *DeliveryHandler) CompleteDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Complete(r.Context(), chi.URLParam(r, "deliveryId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toDelivery(d))
}

// RejectDelivery handles DELETE /v1/deliveries/{deliveryId}. Only Pending
// deliveries can be rejected.
func (h *DeliveryHandler) RejectDelivery(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reject(r.Context(), chi.URLParam(r, "deliveryId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *DeliveryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *delivery.ValidationError
	var transitionErr *delivery.TransitionError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation error", validationErr.Errors)
	case errors.Is(err, delivery.ErrNotFound):
		response.NotFound(w, r, "delivery not found")
	case errors.As(err, &transitionErr):
		response.InvalidTransition(w, r, transitionErr.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("delivery operation failed")
		response.InternalError(w, r, "delivery operation failed")
	}
}
