package routing

import (
	"fmt"

	"github.com/droproute/droproute/internal/geo"
)

// PlanStatus tells a complete plan apart from a partial or empty one.
type PlanStatus string

const (
	// PlanStatusNone means no leg could be planned.
	PlanStatusNone PlanStatus = "none"
	// PlanStatusPartial means some but not all legs were planned.
	PlanStatusPartial PlanStatus = "partial"
	// PlanStatusComplete means every requested leg was planned.
	PlanStatusComplete PlanStatus = "complete"
)

// Plan is the aggregate of a planning run's legs.
type Plan struct {
	Legs                 []Leg
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	// Bounds covers every leg's path. It is empty when there are no legs.
	Bounds geo.Region
	// RequestedLegs is the number of consecutive pairs in the itinerary.
	RequestedLegs int
}

// Aggregate sums the legs and unions their bounds. RequestedLegs is taken
// as len(legs); use AggregateItinerary when some legs may have been omitted.
func Aggregate(legs []Leg) Plan {
	return AggregateItinerary(legs, len(legs))
}

// AggregateItinerary is Aggregate for an itinerary that asked for
// requested legs.
func AggregateItinerary(legs []Leg, requested int) Plan {
	plan := Plan{
		Legs:          legs,
		RequestedLegs: requested,
	}
	if plan.Legs == nil {
		plan.Legs = []Leg{}
	}
	for i := range legs {
		plan.TotalDistanceMeters += legs[i].DistanceMeters
		plan.TotalDurationSeconds += legs[i].DurationSeconds
		plan.Bounds = plan.Bounds.Union(legs[i].Bounds())
	}
	return plan
}

// HasRoute reports whether at least one leg was planned.
func (p Plan) HasRoute() bool {
	return len(p.Legs) > 0
}

// IsPartial reports whether some requested legs are missing from the plan.
func (p Plan) IsPartial() bool {
	return p.HasRoute() && len(p.Legs) < p.RequestedLegs
}

// Status returns the plan status.
func (p Plan) Status() PlanStatus {
	switch {
	case !p.HasRoute():
		return PlanStatusNone
	case p.IsPartial():
		return PlanStatusPartial
	default:
		return PlanStatusComplete
	}
}

// MissingLegs returns the indexes of requested legs that were not planned.
func (p Plan) MissingLegs() []int {
	planned := make(map[int]bool, len(p.Legs))
	for i := range p.Legs {
		planned[p.Legs[i].Index] = true
	}
	var missing []int
	for i := 0; i < p.RequestedLegs; i++ {
		if !planned[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

const metersPerMile = 1609.34

// FormatDuration renders seconds as "H hours M minutes".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d hours %d minutes", total/3600, (total%3600)/60)
}

// FormatMiles renders meters as miles with two decimals.
func FormatMiles(meters float64) string {
	return fmt.Sprintf("%.2f miles", meters/metersPerMile)
}
