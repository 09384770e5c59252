package delivery

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]*Delivery
	order      []string
}

// NewInMemoryRepository creates a new in-memory delivery repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		deliveries: make(map[string]*Delivery),
	}
}

// Get retrieves a delivery by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.deliveries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d), nil
}

// List returns deliveries in insertion order.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Delivery, 0, len(r.order))
	for _, id := range r.order {
		d := r.deliveries[id]
		if opts.Status != "" && d.Status != opts.Status {
			continue
		}
		out = append(out, clone(d))
	}
	return out, nil
}

// Create creates a new delivery.
func (r *InMemoryRepository) Create(_ context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.deliveries[d.ID]; !ok {
		r.order = append(r.order, d.ID)
	}
	r.deliveries[d.ID] = clone(d)
	return nil
}

// Update updates an existing delivery.
func (r *InMemoryRepository) Update(_ context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.deliveries[d.ID]; !ok {
		return ErrNotFound
	}
	r.deliveries[d.ID] = clone(d)
	return nil
}

// Delete deletes a delivery by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.deliveries[id]; !ok {
		return ErrNotFound
	}
	delete(r.deliveries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func clone(d *Delivery) *Delivery {
	cpy := *d
	if d.AcceptedAt != nil {
		at := *d.AcceptedAt
		cpy.AcceptedAt = &at
	}
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
