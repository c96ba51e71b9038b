package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shauryapay/fastag-hub/internal/domain/fastag"
)

// FastagRepository implements fastag.Repository.
type FastagRepository struct {
	pool *pgxpool.Pool
}

func NewFastagRepository(pool *pgxpool.Pool) *FastagRepository {
	return &FastagRepository{pool: pool}
}

func (r *FastagRepository) Reserve(ctx context.Context, f *fastag.Fastag) error {
	now := time.Now().UTC()
	return r.pool.QueryRow(ctx, `
		INSERT INTO fastags
		(barcode, session_id, agent_id, vehicle_number, serial_number,
		 customer_name, customer_mobile, plan_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING id
	`, f.Barcode, f.SessionID, f.AgentID, f.VehicleNumber, f.SerialNumber,
		f.CustomerName, f.CustomerMobile, f.PlanID, f.Status, now).Scan(&f.ID)
}

const fastagColumns = `
	id, barcode, session_id, agent_id, vehicle_number, serial_number,
	customer_name, customer_mobile, plan_id, status, created_at, updated_at`

func (r *FastagRepository) GetByBarcode(ctx context.Context, barcode string) (*fastag.Fastag, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+fastagColumns+` FROM fastags WHERE barcode=$1`, barcode)
	return scanFastag(row)
}

func scanFastag(row pgx.Row) (*fastag.Fastag, error) {
	var f fastag.Fastag
	if err := row.Scan(&f.ID, &f.Barcode, &f.SessionID, &f.AgentID, &f.VehicleNumber,
		&f.SerialNumber, &f.CustomerName, &f.CustomerMobile, &f.PlanID, &f.Status,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fastag.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FastagRepository) Release(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM fastags WHERE session_id=$1 AND status=$2
	`, sessionID, fastag.StatusIssued)
	return err
}
