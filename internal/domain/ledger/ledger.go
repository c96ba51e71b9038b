// Package ledger defines the transactional checkpoint applied when a flow
// confirms: agent inventory and tag status change together or not at all.
package ledger

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_ledger.go -package=mocks . Ledger

import (
	"context"

	"github.com/google/uuid"
)

// Activation records a confirmed issuance.
type Activation struct {
	SessionID      uuid.UUID
	AgentID        int64
	Barcode        string
	VehicleNumber  string
	SerialNumber   string
	CustomerName   string
	CustomerMobile string
	PlanID         string
}

// Replacement records a confirmed tag replacement. The customer's previous
// ACTIVE tag is deactivated in the same transaction.
type Replacement struct {
	SessionID      uuid.UUID
	AgentID        int64
	NewBarcode     string
	CustomerMobile string
	PlanID         string
}

// Ledger applies terminal checkpoints atomically. Both methods decrement
// the agent's remaining tag count and fail with
// agent.ErrInsufficientInventory when it is already zero, leaving every
// record untouched.
type Ledger interface {
	CompleteActivation(ctx context.Context, act Activation) (fastagsLeft int, err error)
	CompleteReplacement(ctx context.Context, rep Replacement) (fastagsLeft int, err error)
}
