package delivery

import "context"

// ListOptions filters deliveries.
type ListOptions struct {
	// Status filters by status when non-empty.
	Status Status
}

// Repository defines the interface for delivery persistence.
type Repository interface {
	// Get retrieves a delivery by ID.
	Get(ctx context.Context, id string) (*Delivery, error)

	// List returns deliveries in creation order.
	List(ctx context.Context, opts ListOptions) ([]*Delivery, error)

	// Create creates a new delivery.
	Create(ctx context.Context, d *Delivery) error

	// Update updates an existing delivery.
	Update(ctx context.Context, d *Delivery) error

	// Delete deletes a delivery by ID. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
