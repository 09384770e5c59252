package openrouteservice

import "github.com/droproute/droproute/internal/routing"

// ORS directions error codes that mean the leg has no drivable route.
const (
	orsCodeRouteNotFound    = 2009
	orsCodePointNotRoutable = 2010
)

func isNoRouteCode(code int) bool {
	return code == orsCodeRouteNotFound || code == orsCodePointNotRoutable
}

// orsRequest is the POST /v2/directions/{profile} body.
type orsRequest struct {
	Coordinates       [][]float64            `json:"coordinates"`
	Radiuses          []float64              `json:"radiuses,omitempty"`
	AlternativeRoutes *alternativeRoutesOpts `json:"alternative_routes,omitempty"`
	Instructions      bool                   `json:"instructions"`
	Geometry          bool                   `json:"geometry"`
	Units             string                 `json:"units"`
	Language          string                 `json:"language"`
}

type alternativeRoutesOpts struct {
	TargetCount int `json:"target_count"`
}

type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

type orsRoute struct {
	Summary struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"summary"`
	Segments []struct {
		Steps []struct {
			Distance    float64 `json:"distance"`
			Instruction string  `json:"instruction"`
		} `json:"steps"`
	} `json:"segments,omitempty"`
	// Geometry is an encoded polyline, precision 5.
	Geometry string `json:"geometry"`
}

// steps flattens the per-segment instructions. A two-waypoint request has a
// single segment.
func (r *orsRoute) steps() []routing.Step {
	var out []routing.Step
	for _, seg := range r.Segments {
		for _, s := range seg.Steps {
			out = append(out, routing.Step{Instruction: s.Instruction, DistanceMeters: s.Distance})
		}
	}
	return out
}

type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
