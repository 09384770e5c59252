package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droproute/droproute/internal/api/middleware"
	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
)

// tagged returns a request whose context carries a request ID, as it would
// behind the RequestID middleware.
func tagged(t *testing.T, method, path, inboundID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	if inboundID != "" {
		req.Header.Set(middleware.RequestIDHeader, inboundID)
	}

	var out *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		out = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, out)
	return out
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestSuccessWriters_EchoRequestID(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		body   bool
	}{
		{
			name:   "json",
			write:  func(w http.ResponseWriter, r *http.Request) { response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"}) },
			status: http.StatusOK,
			body:   true,
		},
		{
			name:   "created",
			write:  func(w http.ResponseWriter, r *http.Request) { response.Created(w, r, "/v1/deliveries/dlv_1", map[string]string{"id": "dlv_1"}) },
			status: http.StatusCreated,
			body:   true,
		},
		{
			name:   "no content",
			write:  response.NoContent,
			status: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, tagged(t, http.MethodGet, "/v1/deliveries", "gateway-42"))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "gateway-42", rec.Header().Get(middleware.RequestIDHeader))
			if tt.body {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.NotEmpty(t, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestCreated_SetsLocation(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, tagged(t, http.MethodPost, "/v1/sessions", ""), "/v1/sessions/ses_1", nil)

	assert.Equal(t, "/v1/sessions/ses_1", rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil), http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Empty(t, rec.Body.String())
}

func TestProblemWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		status     int
		typ        string
		retryAfter string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "name", Message: "is required"}})
			},
			status: http.StatusBadRequest,
			typ:    models.ProblemTypeValidation,
		},
		{
			name:   "not found",
			write:  func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "delivery not found") },
			status: http.StatusNotFound,
			typ:    models.ProblemTypeNotFound,
		},
		{
			name:   "conflict",
			write:  func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "already exists") },
			status: http.StatusConflict,
			typ:    models.ProblemTypeConflict,
		},
		{
			name:   "invalid transition",
			write:  func(w http.ResponseWriter, r *http.Request) { response.InvalidTransition(w, r, "Completed to Ongoing") },
			status: http.StatusConflict,
			typ:    models.ProblemTypeInvalidTransition,
		},
		{
			name:   "stale run",
			write:  func(w http.ResponseWriter, r *http.Request) { response.StaleRun(w, r, "superseded by run 2") },
			status: http.StatusConflict,
			typ:    models.ProblemTypeStaleRun,
		},
		{
			name:   "insufficient points",
			write:  func(w http.ResponseWriter, r *http.Request) { response.InsufficientPoints(w, r, "only 1 of 3 addresses could be located") },
			status: http.StatusUnprocessableEntity,
			typ:    models.ProblemTypeInsufficientPoints,
		},
		{
			name:   "too many requests",
			write:  func(w http.ResponseWriter, r *http.Request) { response.TooManyRequests(w, r, "rate limit exceeded") },
			status: http.StatusTooManyRequests,
			typ:    models.ProblemTypeTooManyRequests,
		},
		{
			name:   "internal",
			write:  func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "database error") },
			status: http.StatusInternalServerError,
			typ:    models.ProblemTypeInternal,
		},
		{
			name:       "unavailable",
			write:      func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "geocoding provider unavailable") },
			status:     http.StatusServiceUnavailable,
			typ:        models.ProblemTypeUnavailable,
			retryAfter: "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tagged(t, http.MethodPost, "/v1/routes:plan", "")
			rec := httptest.NewRecorder()
			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))

			p := decodeProblem(t, rec)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "/v1/routes:plan", p.Instance)
			assert.Equal(t, middleware.GetRequestID(req.Context()), p.TraceID)
			assert.Equal(t, p.TraceID, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestDecode(t *testing.T) {
	type body struct {
		Origin string   `json:"origin"`
		Stops  []string `json:"stops"`
	}

	tests := []struct {
		name       string
		payload    string
		wantOK     bool
		wantDetail string
	}{
		{name: "valid", payload: `{"origin":"Chicago","stops":["Evanston"]}`, wantOK: true},
		{name: "empty body", payload: ``, wantDetail: "request body is empty"},
		{name: "malformed", payload: `{"origin":`, wantDetail: "malformed JSON"},
		{name: "wrong type", payload: `{"origin":42}`, wantDetail: `field "origin"`},
		{name: "unknown field", payload: `{"origin":"a","legs":2}`, wantDetail: "unknown field"},
		{name: "trailing data", payload: `{"origin":"a"}{"origin":"b"}`, wantDetail: "single JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/routes:plan", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()

			var dst body
			ok := response.Decode(rec, req, &dst)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (body %s)", tt.wantOK, ok, rec.Body.String())
			}
			if tt.wantOK {
				if dst.Origin != "Chicago" || len(dst.Stops) != 1 {
					t.Errorf("unexpected decoded value %+v", dst)
				}
				return
			}

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			var problem models.Problem
			if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
				t.Fatalf("failed to decode Problem response: %v", err)
			}
			if !strings.Contains(problem.Detail, tt.wantDetail) {
				t.Errorf("expected detail containing %q, got %q", tt.wantDetail, problem.Detail)
			}
		})
	}
}

func TestDecode_RejectsOversizedBody(t *testing.T) {
	payload := `{"origin":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/routes:plan", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	var dst struct {
		Origin string `json:"origin"`
	}
	if response.Decode(rec, req, &dst) {
		t.Fatal("expected oversized body to be rejected")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
