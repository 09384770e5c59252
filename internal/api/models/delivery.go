package models

// Delivery is a delivery order as shown in the driver's list.
type Delivery struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	TimeWindow string     `json:"timeWindow"`
	Address    string     `json:"address"`
	Status     string     `json:"status"`
	AcceptedAt *Timestamp `json:"acceptedAt,omitempty"`
	CreatedAt  Timestamp  `json:"createdAt"`
	UpdatedAt  Timestamp  `json:"updatedAt"`
}

// DeliveryCreateRequest is the request body for creating a delivery.
type DeliveryCreateRequest struct {
	Name       string `json:"name"`
	TimeWindow string `json:"timeWindow"`
	Address    string `json:"address"`
}

// DeliveryList is the response for listing deliveries.
type DeliveryList struct {
	Items []Delivery `json:"items"`
	Count int        `json:"count"`
}
