package models

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Problem represents an RFC7807 error response.
// Every API error is written as application/problem+json.
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request trace identifier for debugging.
	TraceID string `json:"traceId"`

	// Errors contains structured field validation errors.
	Errors []FieldError `json:"errors,omitempty"`

	// retryAfter is sent as the Retry-After header when positive.
	retryAfter time.Duration
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// problemBase prefixes every problem type URI.
const problemBase = "https://api.droproute.dev/problems/"

// ProblemType constants for standard error types.
const (
	ProblemTypeValidation         = problemBase + "validation-error"
	ProblemTypeNotFound           = problemBase + "not-found"
	ProblemTypeConflict           = problemBase + "conflict"
	ProblemTypeInvalidTransition  = problemBase + "invalid-transition"
	ProblemTypeStaleRun           = problemBase + "stale-run"
	ProblemTypeInsufficientPoints = problemBase + "insufficient-points"
	ProblemTypeUnsupportedMedia   = problemBase + "unsupported-media-type"
	ProblemTypeTLSRequired        = problemBase + "tls-required"
	ProblemTypeTooManyRequests    = problemBase + "too-many-requests"
	ProblemTypeInternal           = problemBase + "internal-error"
	ProblemTypeUnavailable        = problemBase + "service-unavailable"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail adds a detail message to the Problem.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance adds the request instance URI to the Problem.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors adds field errors to the Problem.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// WithRetryAfter tells the client how long to wait before retrying. It is
// rounded up to whole seconds.
func (p *Problem) WithRetryAfter(d time.Duration) *Problem {
	p.retryAfter = d
	return p
}

// Write writes the Problem as application/problem+json.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	if p.retryAfter > 0 {
		secs := int64((p.retryAfter + time.Second - 1) / time.Second)
		h.Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return detailed(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail).WithErrors(errors)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return detailed(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

// NewConflict creates a 409 problem.
func NewConflict(traceID, detail string) *Problem {
	return detailed(ProblemTypeConflict, "Conflict", http.StatusConflict, traceID, detail)
}

// NewInvalidTransition creates a 409 problem for a delivery status change
// that the current status does not allow.
func NewInvalidTransition(traceID, detail string) *Problem {
	return detailed(ProblemTypeInvalidTransition, "Invalid status transition", http.StatusConflict, traceID, detail)
}

// NewStaleRun creates a 409 problem for a planning run that a newer request
// on the same session superseded.
func NewStaleRun(traceID, detail string) *Problem {
	return detailed(ProblemTypeStaleRun, "Superseded by a newer request", http.StatusConflict, traceID, detail)
}

// NewInsufficientPoints creates a 422 problem for a plan request where fewer
// than two addresses could be located.
func NewInsufficientPoints(traceID, detail string) *Problem {
	return detailed(ProblemTypeInsufficientPoints, "Not enough locations to route", http.StatusUnprocessableEntity, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnsupportedMedia, "Unsupported media type", http.StatusUnsupportedMediaType, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return detailed(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return detailed(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID, detail)
}

func detailed(problemType, title string, status int, traceID, detail string) *Problem {
	return NewProblem(problemType, title, status, traceID).WithDetail(detail)
}
