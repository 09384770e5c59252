package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/planner"
	"github.com/droproute/droproute/internal/routing"
)

const sessionPlanPattern = "/v1/sessions/{sessionId}/plan"

func simplePlanner() *fakePlanner {
	return &fakePlanner{
		itinerary: func(context.Context, string, []string, string) (routing.Plan, []geocoding.LocatedPoint, error) {
			return routing.AggregateItinerary([]routing.Leg{leg(0, depot, kenmore, 100, 60)}, 1), []geocoding.LocatedPoint{depot, kenmore}, nil
		},
		accepted: func(context.Context, string) (routing.Plan, []geocoding.LocatedPoint, error) {
			return routing.Plan{}, []geocoding.LocatedPoint{depot}, planner.ErrInsufficientPoints
		},
	}
}

func TestCreateSession(t *testing.T) {
	sessions := planner.NewSessions(zerolog.Nop())
	h := NewSessionHandler(sessions, simplePlanner(), zerolog.Nop())

	rec := serve(t, http.MethodPost, "/v1/sessions", h.CreateSession, jsonRequest(http.MethodPost, "/v1/sessions", ""))

	require.Equal(t, http.StatusCreated, rec.Code)
	var s models.Session
	decodeBody(t, rec, &s)
	assert.Contains(t, s.SessionID, "ses_")
	assert.Equal(t, "/v1/sessions/"+s.SessionID, rec.Header().Get("Location"))
	_, ok := sessions.Get(s.SessionID)
	assert.True(t, ok)
}

func TestSessionPlan_CommitAndRead(t *testing.T) {
	sessions := planner.NewSessions(zerolog.Nop())
	s := sessions.Create()
	h := NewSessionHandler(sessions, simplePlanner(), zerolog.Nop())

	target := "/v1/sessions/" + s.ID + "/plan"
	rec := serve(t, http.MethodGet, sessionPlanPattern, h.GetPlan, jsonRequest(http.MethodGet, target, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, http.MethodPost, sessionPlanPattern, h.Plan,
		jsonRequest(http.MethodPost, target, `{"origin":"Depot","destination":"Kenmore"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var committed models.SessionPlan
	decodeBody(t, rec, &committed)
	assert.Equal(t, uint64(1), committed.RunID)
	require.NotNil(t, committed.Plan)
	assert.Equal(t, "complete", committed.Plan.Status)

	rec = serve(t, http.MethodGet, sessionPlanPattern, h.GetPlan, jsonRequest(http.MethodGet, target, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var current models.SessionPlan
	decodeBody(t, rec, &current)
	assert.Equal(t, committed.RunID, current.RunID)
	assert.Equal(t, s.ID, current.SessionID)
}

func TestSessionPlan_FailedRunIsCommitted(t *testing.T) {
	sessions := planner.NewSessions(zerolog.Nop())
	s := sessions.Create()
	h := NewSessionHandler(sessions, simplePlanner(), zerolog.Nop())
	target := "/v1/sessions/" + s.ID + "/plan"

	rec := serve(t, http.MethodPost, sessionPlanPattern, h.Plan,
		jsonRequest(http.MethodPost, target, `{"mode":"accepted","origin":"Depot"}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, http.MethodGet, sessionPlanPattern, h.GetPlan, jsonRequest(http.MethodGet, target, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var current models.SessionPlan
	decodeBody(t, rec, &current)
	assert.Nil(t, current.Plan)
	require.NotNil(t, current.Error)
	assert.Equal(t, "INSUFFICIENT_POINTS", current.Error.Code)
}

func TestSessionPlan_SupersededRequestIsStale(t *testing.T) {
	sessions := planner.NewSessions(zerolog.Nop())
	s := sessions.Create()

	started := make(chan struct{})
	p := &fakePlanner{
		itinerary: func(ctx context.Context, origin string, _ []string, _ string) (routing.Plan, []geocoding.LocatedPoint, error) {
			if origin == "slow" {
				close(started)
				<-ctx.Done()
				return routing.Plan{}, nil, ctx.Err()
			}
			return routing.AggregateItinerary([]routing.Leg{leg(0, depot, wrigley, 100, 60)}, 1), []geocoding.LocatedPoint{depot, wrigley}, nil
		},
	}
	h := NewSessionHandler(sessions, p, zerolog.Nop())
	target := "/v1/sessions/" + s.ID + "/plan"

	var wg sync.WaitGroup
	var slowCode int
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := serve(t, http.MethodPost, sessionPlanPattern, h.Plan,
			jsonRequest(http.MethodPost, target, `{"origin":"slow","destination":"b"}`))
		slowCode = rec.Code
	}()

	<-started
	rec := serve(t, http.MethodPost, sessionPlanPattern, h.Plan,
		jsonRequest(http.MethodPost, target, `{"origin":"fast","destination":"b"}`))
	wg.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusConflict, slowCode)

	snap, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), snap.RunID)
	assert.Equal(t, "2250 N Sheffield Ave", snap.Result.Itinerary[1].DisplayName)
}

func TestSessionPlan_Errors(t *testing.T) {
	sessions := planner.NewSessions(zerolog.Nop())
	s := sessions.Create()
	h := NewSessionHandler(sessions, simplePlanner(), zerolog.Nop())

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "unknown session", target: "/v1/sessions/ses_missing/plan", body: `{"origin":"a"}`, status: http.StatusNotFound},
		{name: "unknown mode", target: "/v1/sessions/" + s.ID + "/plan", body: `{"mode":"scenic","origin":"a"}`, status: http.StatusBadRequest},
		{name: "malformed body", target: "/v1/sessions/" + s.ID + "/plan", body: `{"origin":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodPost, sessionPlanPattern, h.Plan, jsonRequest(http.MethodPost, tt.target, tt.body))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
