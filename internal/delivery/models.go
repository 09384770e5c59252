// Package delivery keeps the driver's delivery orders and their status.
//
// A delivery starts Pending. Accepting it makes it Ongoing and puts its
// address on the driver's route; completing it makes it Completed. Status
// only moves forward. Rejecting a Pending delivery removes it.
package delivery

import (
	"errors"
	"strings"
	"time"
)

// Repository and lifecycle errors.
var (
	ErrNotFound          = errors.New("delivery not found")
	ErrInvalidTransition = errors.New("invalid delivery status transition")
)

// Status is the lifecycle state of a delivery.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
)

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusPending, StatusOngoing, StatusCompleted} {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Delivery is a single delivery order.
type Delivery struct {
	ID         string
	Name       string
	TimeWindow string
	Address    string
	Status     Status
	// AcceptedAt is set when the delivery becomes Ongoing and orders the
	// driver's route.
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Accept moves a Pending delivery to Ongoing.
func (d *Delivery) Accept(now time.Time) error {
	if d.Status != StatusPending {
		return transitionError(d.Status, StatusOngoing)
	}
	d.Status = StatusOngoing
	d.AcceptedAt = &now
	d.UpdatedAt = now
	return nil
}

// Complete moves an Ongoing delivery to Completed.
func (d *Delivery) Complete(now time.Time) error {
	if d.Status != StatusOngoing {
		return transitionError(d.Status, StatusCompleted)
	}
	d.Status = StatusCompleted
	d.UpdatedAt = now
	return nil
}

// CanReject reports whether the delivery may be rejected.
func (d *Delivery) CanReject() bool {
	return d.Status == StatusPending
}

func transitionError(from, to Status) error {
	return &TransitionError{From: from, To: to}
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return "cannot move delivery from " + string(e.From) + " to " + string(e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
