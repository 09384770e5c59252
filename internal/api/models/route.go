package models

// Location is a resolved address.
type Location struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Geohash string  `json:"geohash,omitempty"`
}

// RoutePlanRequest plans origin => stops... => destination from free-text addresses.
type RoutePlanRequest struct {
	Origin      string   `json:"origin"`
	Stops       []string `json:"stops,omitempty"`
	Destination string   `json:"destination"`
}

// DirectRouteRequest plans a single leg between two already located points,
// for example a delivery picked on the map.
type DirectRouteRequest struct {
	Origin      *Location `json:"origin"`
	Destination *Location `json:"destination"`
}

// AcceptedRouteRequest plans from origin through every Ongoing delivery.
type AcceptedRouteRequest struct {
	Origin string `json:"origin"`
}

// RoutePlan is the response for every route planning endpoint.
type RoutePlan struct {
	// Status is "complete", "partial" or "none".
	Status        string     `json:"status"`
	RequestedLegs int        `json:"requestedLegs"`
	MissingLegs   []int      `json:"missingLegs,omitempty"`
	Itinerary     []Location `json:"itinerary"`
	Legs          []RouteLeg `json:"legs"`

	TotalDistanceMeters  float64 `json:"totalDistanceMeters"`
	TotalDurationSeconds float64 `json:"totalDurationSeconds"`
	TotalDistanceText    string  `json:"totalDistanceText"`
	TotalDurationText    string  `json:"totalDurationText"`

	// Viewport is omitted when no leg could be planned.
	Viewport    *Viewport `json:"viewport,omitempty"`
	GeneratedAt Timestamp `json:"generatedAt"`
}

// RouteLeg is the driving route between two consecutive itinerary points.
type RouteLeg struct {
	Index            int         `json:"index"`
	From             Location    `json:"from"`
	To               Location    `json:"to"`
	DistanceMeters   float64     `json:"distanceMeters"`
	DurationSeconds  float64     `json:"durationSeconds"`
	DistanceText     string      `json:"distanceText"`
	DurationText     string      `json:"durationText"`
	GeometryPolyline string      `json:"geometryPolyline"`
	Steps            []RouteStep `json:"steps,omitempty"`
}

// RouteStep is one turn-by-turn instruction.
type RouteStep struct {
	Instruction    string  `json:"instruction"`
	DistanceMeters float64 `json:"distanceMeters"`
}
