package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shauryapay/fastag-hub/internal/domain/agent"
)

// AgentRepository implements agent.Repository.
type AgentRepository struct {
	pool *pgxpool.Pool
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

const agentColumns = `
	id, first_name, last_name, mobile_number, wallet_balance, fastags_left,
	otp_hash, otp_expires_at, created_at, updated_at`

func (r *AgentRepository) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+agentColumns+` FROM agents WHERE id=$1`, id)
	return scanAgent(row)
}

func (r *AgentRepository) GetByMobile(ctx context.Context, mobile string) (*agent.Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+agentColumns+` FROM agents WHERE mobile_number=$1`, mobile)
	return scanAgent(row)
}

func (r *AgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE agents SET
			first_name=$1, last_name=$2, mobile_number=$3,
			wallet_balance=$4, fastags_left=$5,
			otp_hash=$6, otp_expires_at=$7, updated_at=$8
		WHERE id=$9
	`, a.FirstName, a.LastName, a.MobileNumber,
		a.WalletBalance, a.FastagsLeft,
		a.OTPHash, a.OTPExpiresAt, time.Now().UTC(), a.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return agent.ErrNotFound
	}
	return nil
}

func scanAgent(row pgx.Row) (*agent.Agent, error) {
	var a agent.Agent
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.MobileNumber,
		&a.WalletBalance, &a.FastagsLeft,
		&a.OTPHash, &a.OTPExpiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, agent.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
