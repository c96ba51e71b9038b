package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shauryapay/fastag-hub/internal/domain/agent"
	"github.com/shauryapay/fastag-hub/internal/domain/fastag"
	"github.com/shauryapay/fastag-hub/internal/domain/ledger"
)

// LedgerRepository implements ledger.Ledger with a single transaction per
// checkpoint. The conditional inventory decrement doubles as the guard
// against selling a tag the agent no longer has; tag status changes go
// through the domain transition methods on locked rows.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

var _ ledger.Ledger = (*LedgerRepository)(nil)

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) CompleteActivation(ctx context.Context, act ledger.Activation) (int, error) {
	var left int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		left, err = decrementInventory(ctx, tx, act.AgentID)
		if err != nil {
			return err
		}
		tag, err := lockReservedTag(ctx, tx, act.SessionID, act.Barcode)
		if err != nil {
			return err
		}
		if err := tag.Activate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE fastags SET
				status=$1, vehicle_number=$2, serial_number=$3,
				customer_name=$4, customer_mobile=$5, plan_id=$6, updated_at=$7
			WHERE id=$8
		`, tag.Status, act.VehicleNumber, act.SerialNumber,
			act.CustomerName, act.CustomerMobile, act.PlanID, time.Now().UTC(), tag.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return left, nil
}

func (r *LedgerRepository) CompleteReplacement(ctx context.Context, rep ledger.Replacement) (int, error) {
	var left int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		left, err = decrementInventory(ctx, tx, rep.AgentID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		// Retire the customer's previous tag if one is on record.
		old, err := lockActiveTags(ctx, tx, rep.CustomerMobile, rep.NewBarcode)
		if err != nil {
			return err
		}
		for _, tag := range old {
			if err := tag.Deactivate(); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE fastags SET status=$1, updated_at=$2 WHERE id=$3
			`, tag.Status, now, tag.ID); err != nil {
				return err
			}
		}
		tag, err := lockReservedTag(ctx, tx, rep.SessionID, rep.NewBarcode)
		if err != nil {
			return err
		}
		if err := tag.Activate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE fastags SET status=$1, customer_mobile=$2, plan_id=$3, updated_at=$4
			WHERE id=$5
		`, tag.Status, rep.CustomerMobile, rep.PlanID, now, tag.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return left, nil
}

func lockReservedTag(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, barcode string) (*fastag.Fastag, error) {
	row := tx.QueryRow(ctx, `
		SELECT`+fastagColumns+`
		FROM fastags WHERE session_id=$1 AND barcode=$2
		FOR UPDATE
	`, sessionID, barcode)
	return scanFastag(row)
}

func lockActiveTags(ctx context.Context, tx pgx.Tx, customerMobile, excludeBarcode string) ([]*fastag.Fastag, error) {
	rows, err := tx.Query(ctx, `
		SELECT`+fastagColumns+`
		FROM fastags
		WHERE customer_mobile=$1 AND status=$2 AND barcode<>$3
		FOR UPDATE
	`, customerMobile, fastag.StatusActive, excludeBarcode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*fastag.Fastag
	for rows.Next() {
		tag, err := scanFastag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func decrementInventory(ctx context.Context, tx pgx.Tx, agentID int64) (int, error) {
	var left int
	err := tx.QueryRow(ctx, `
		UPDATE agents SET fastags_left=fastags_left-1, updated_at=$1
		WHERE id=$2 AND fastags_left > 0
		RETURNING fastags_left
	`, time.Now().UTC(), agentID).Scan(&left)
	if err == pgx.ErrNoRows {
		return 0, agent.ErrInsufficientInventory
	}
	if err != nil {
		return 0, err
	}
	return left, nil
}
