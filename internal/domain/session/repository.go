package session

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for conversation sessions.
//
// Update performs an optimistic version check: it matches the session's
// current Version, increments it, and returns ErrConflict when another
// writer got there first. This serializes concurrent transitions on the
// same session id.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	ListIdleBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Session, error)
}
