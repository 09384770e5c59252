package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/planner"
)

// SessionHandler handles planning sessions. A session keeps the plan of the
// latest request; a request that is superseded while in flight gets 409.
type SessionHandler struct {
	sessions *planner.Sessions
	planner  RoutePlanner
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *planner.Sessions, p RoutePlanner, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, planner: p, logger: logger, now: time.Now}
}

// CreateSession handles POST /v1/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	response.Created(w, r, "/v1/sessions/"+s.ID, models.Session{
		SessionID: s.ID,
		CreatedAt: models.Timestamp(h.now()),
	})
}

// Plan handles POST /v1/sessions/{sessionId}/plan.
func (h *SessionHandler) Plan(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var input models.SessionPlanRequest
	if !response.Decode(w, r, &input) {
		return
	}
	if input.Mode == "" {
		input.Mode = models.SessionModeItinerary
	}

	var errs []models.FieldError
	switch input.Mode {
	case models.SessionModeItinerary:
		errs = validatePlanRequest(models.RoutePlanRequest{
			Origin:      input.Origin,
			Stops:       input.Stops,
			Destination: input.Destination,
		})
	case models.SessionModeAccepted:
		if len(input.Origin) > MaxAddressLength {
			errs = append(errs, addressTooLong("origin"))
		}
	default:
		errs = append(errs, models.FieldError{Field: "mode", Message: "must be itinerary or accepted", Code: "INVALID_ENUM"})
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	snap, err := s.Do(r.Context(), func(ctx context.Context) planner.Result {
		var res planner.Result
		if input.Mode == models.SessionModeAccepted {
			res.Plan, res.Itinerary, res.Err = h.planner.PlanAccepted(ctx, input.Origin)
		} else {
			res.Plan, res.Itinerary, res.Err = h.planner.PlanItinerary(ctx, input.Origin, input.Stops, input.Destination)
		}
		return res
	})
	if errors.Is(err, planner.ErrStaleRun) {
		response.StaleRun(w, r, "a newer planning request replaced this one")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", s.ID).Msg("committing session plan")
		response.InternalError(w, r, "route planning failed")
		return
	}

	if snap.Result.Err != nil {
		switch {
		case errors.Is(snap.Result.Err, planner.ErrInsufficientPoints):
			response.InsufficientPoints(w, r, "at least two addresses must be located to plan a route")
		case errors.Is(snap.Result.Err, planner.ErrNoDeliverySource):
			response.ServiceUnavailable(w, r, "delivery list is not available")
		default:
			h.logger.Error().Err(snap.Result.Err).Str("session_id", s.ID).Msg("session planning failed")
			response.InternalError(w, r, "route planning failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, h.toSessionPlan(s.ID, snap))
}

// GetPlan handles GET /v1/sessions/{sessionId}/plan - the last committed run.
func (h *SessionHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, ok := s.Current()
	if !ok {
		response.NotFound(w, r, "no plan has been committed to this session")
		return
	}
	response.JSON(w, r, http.StatusOK, h.toSessionPlan(s.ID, snap))
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*planner.Session, bool) {
	id := chi.URLParam(r, "sessionId")
	s, ok := h.sessions.Get(id)
	if !ok {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) toSessionPlan(id string, snap planner.Snapshot) models.SessionPlan {
	out := models.SessionPlan{
		SessionID:   id,
		RunID:       snap.RunID,
		CommittedAt: models.Timestamp(snap.CommittedAt),
	}
	if snap.Result.Err != nil {
		out.Error = &models.PlanError{Code: planErrorCode(snap.Result.Err), Message: snap.Result.Err.Error()}
		return out
	}
	plan := toRoutePlan(snap.Result.Plan, snap.Result.Itinerary, snap.CommittedAt)
	out.Plan = &plan
	return out
}

func planErrorCode(err error) string {
	switch {
	case errors.Is(err, planner.ErrInsufficientPoints):
		return "INSUFFICIENT_POINTS"
	case errors.Is(err, planner.ErrNoDeliverySource):
		return "NO_DELIVERY_SOURCE"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "PLANNING_FAILED"
	}
}
