package models

// ReverseGeocodeRequest is the request body for describing a device position.
type ReverseGeocodeRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ReverseGeocodeResponse carries the label used to pre-fill a start address.
type ReverseGeocodeResponse struct {
	Label string `json:"label"`
	Point Point  `json:"point"`
}
