package fastag

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the tag lifecycle.
type Status string

const (
	StatusIssued   Status = "ISSUED"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

var (
	ErrNotFound          = errors.New("fastag not found")
	ErrInvalidTransition = errors.New("invalid fastag status transition")
)

// Fastag is a toll tag reserved for or assigned to a vehicle.
type Fastag struct {
	ID             int64     `json:"id"`
	Barcode        string    `json:"barcode"`
	SessionID      uuid.UUID `json:"sessionId"`
	AgentID        int64     `json:"agentId"`
	VehicleNumber  *string   `json:"vehicleNumber,omitempty"`
	SerialNumber   *string   `json:"serialNumber,omitempty"`
	CustomerName   *string   `json:"customerName,omitempty"`
	CustomerMobile *string   `json:"customerMobile,omitempty"`
	PlanID         *string   `json:"planId,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CanTransitionTo validates a status transition.
func (f *Fastag) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusIssued:   {StatusActive},
		StatusActive:   {StatusInactive},
		StatusInactive: {},
	}
	for _, s := range transitions[f.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Activate moves an issued tag to active.
func (f *Fastag) Activate() error {
	if !f.CanTransitionTo(StatusActive) {
		return ErrInvalidTransition
	}
	f.Status = StatusActive
	return nil
}

// Deactivate retires an active tag.
func (f *Fastag) Deactivate() error {
	if !f.CanTransitionTo(StatusInactive) {
		return ErrInvalidTransition
	}
	f.Status = StatusInactive
	return nil
}
