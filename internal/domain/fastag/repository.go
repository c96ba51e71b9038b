package fastag

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for FASTags.
type Repository interface {
	// Reserve creates an ISSUED row tying a barcode to a session until the
	// flow confirms or cancels.
	Reserve(ctx context.Context, f *Fastag) error
	GetByBarcode(ctx context.Context, barcode string) (*Fastag, error)
	// Release drops an unactivated reservation, returning the barcode to
	// the agent's pool.
	Release(ctx context.Context, sessionID uuid.UUID) error
}
