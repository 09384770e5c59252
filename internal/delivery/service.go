package delivery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/droproute/droproute/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength       = 120
	MaxTimeWindowLength = 40
	MaxAddressLength    = 300
)

// CreateInput holds the fields of a new delivery.
type CreateInput struct {
	Name       string
	TimeWindow string
	Address    string
}

// Service provides delivery operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new delivery service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns deliveries, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]*Delivery, error) {
	return s.repo.List(ctx, ListOptions{Status: status})
}

// Get retrieves a delivery by ID.
func (s *Service) Get(ctx context.Context, id string) (*Delivery, error) {
	return s.repo.Get(ctx, id)
}

// Create creates a new Pending delivery.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Delivery, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.TimeWindow = strings.TrimSpace(input.TimeWindow)
	input.Address = strings.TrimSpace(input.Address)

	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	d := &Delivery{
		ID:         "dlv_" + uuid.New().String()[:22],
		Name:       input.Name,
		TimeWindow: input.TimeWindow,
		Address:    input.Address,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating delivery: %w", err)
	}
	return d, nil
}

// Accept moves a Pending delivery to Ongoing.
func (s *Service) Accept(ctx context.Context, id string) (*Delivery, error) {
	return s.transition(ctx, id, (*Delivery).Accept)
}

// Complete moves an Ongoing delivery to Completed.
func (s *Service) Complete(ctx context.Context, id string) (*Delivery, error) {
	return s.transition(ctx, id, (*Delivery).Complete)
}

func (s *Service) transition(ctx context.Context, id string, apply func(*Delivery, time.Time) error) (*Delivery, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(d, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Reject removes a Pending delivery.
func (s *Service) Reject(ctx context.Context, id string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !d.CanReject() {
		return &TransitionError{From: d.Status, To: "Rejected"}
	}
	return s.repo.Delete(ctx, id)
}

// OngoingAddresses returns the addresses of Ongoing deliveries in the order
// they were accepted. The slice is a fresh copy owned by the caller.
func (s *Service) OngoingAddresses(ctx context.Context) ([]string, error) {
	ongoing, err := s.repo.List(ctx, ListOptions{Status: StatusOngoing})
	if err != nil {
		return nil, fmt.Errorf("listing ongoing deliveries: %w", err)
	}

	sort.SliceStable(ongoing, func(i, j int) bool {
		return acceptedAt(ongoing[i]).Before(acceptedAt(ongoing[j]))
	})

	addresses := make([]string, 0, len(ongoing))
	for _, d := range ongoing {
		addresses = append(addresses, d.Address)
	}
	return addresses, nil
}

// Seed inserts the given deliveries when the repository is empty and
// returns how many were inserted.
func (s *Service) Seed(ctx context.Context, seed []Delivery) (int, error) {
	existing, err := s.repo.List(ctx, ListOptions{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := s.now()
	for i := range seed {
		d := seed[i]
		if d.ID == "" {
			d.ID = "dlv_" + uuid.New().String()[:22]
		}
		if d.Status == "" {
			d.Status = StatusPending
		}
		// Keep seed order stable under ORDER BY created_at.
		at := now.Add(time.Duration(i) * time.Millisecond)
		d.CreatedAt, d.UpdatedAt = at, at
		if d.Status == StatusOngoing && d.AcceptedAt == nil {
			d.AcceptedAt = &at
		}
		if err := s.repo.Create(ctx, &d); err != nil {
			return i, fmt.Errorf("seeding delivery %q: %w", d.Name, err)
		}
	}
	return len(seed), nil
}

func acceptedAt(d *Delivery) time.Time {
	if d.AcceptedAt == nil {
		return d.UpdatedAt
	}
	return *d.AcceptedAt
}

func validateCreateInput(input CreateInput) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)})
	}

	if len(input.TimeWindow) > MaxTimeWindowLength {
		errs = append(errs, models.FieldError{Field: "timeWindow", Message: fmt.Sprintf("must be at most %d characters", MaxTimeWindowLength)})
	}

	if input.Address == "" {
		errs = append(errs, models.FieldError{Field: "address", Message: "is required"})
	} else if len(input.Address) > MaxAddressLength {
		errs = append(errs, models.FieldError{Field: "address", Message: fmt.Sprintf("must be at most %d characters", MaxAddressLength)})
	}

	return errs
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
