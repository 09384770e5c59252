package openrouteservice

// featureCollection is the GeoJSON body returned by the Pelias endpoints.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		// Coordinates are [lon, lat].
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	Label      string  `json:"label"`
	Name       string  `json:"name"`
	Locality   string  `json:"locality"`
	Region     string  `json:"region"`
	Country    string  `json:"country"`
	Confidence float64 `json:"confidence"`
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
