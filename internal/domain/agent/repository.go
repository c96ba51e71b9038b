package agent

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "context"

// Repository defines persistence for agents.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Agent, error)
	GetByMobile(ctx context.Context, mobile string) (*Agent, error)
	Update(ctx context.Context, a *Agent) error
}
