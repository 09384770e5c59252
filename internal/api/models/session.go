package models

// Session is the response for creating a planning session.
type Session struct {
	SessionID string    `json:"sessionId"`
	CreatedAt Timestamp `json:"createdAt"`
}

// SessionPlan is the plan last committed to a session.
type SessionPlan struct {
	SessionID   string     `json:"sessionId"`
	RunID       uint64     `json:"runId"`
	CommittedAt Timestamp  `json:"committedAt"`
	Plan        *RoutePlan `json:"plan,omitempty"`
	Error       *PlanError `json:"error,omitempty"`
}

// PlanError describes why a committed run produced no plan.
type PlanError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Session planning modes.
const (
	SessionModeItinerary = "itinerary"
	SessionModeAccepted  = "accepted"
)

// SessionPlanRequest starts a planning run in a session. Mode defaults to
// itinerary; accepted mode ignores stops and destination.
type SessionPlanRequest struct {
	Mode        string   `json:"mode,omitempty"`
	Origin      string   `json:"origin"`
	Stops       []string `json:"stops,omitempty"`
	Destination string   `json:"destination,omitempty"`
}
