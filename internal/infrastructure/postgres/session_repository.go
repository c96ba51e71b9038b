package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shauryapay/fastag-hub/internal/domain/session"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, session_id, flow_kind, state, agent_id,
	vehicle_number, engine_number, user_mobile, otp_verified,
	first_name, last_name, dob, id_proof_type, id_proof_number, id_expiry,
	plan_id, documents, serial_number, barcode, barcode_options,
	vehicle_maker, vehicle_model, vehicle_descriptor,
	request_id, provider_session_id, customer_ref,
	version, created_at, updated_at, expires_at`

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	docs, err := json.Marshal(s.Documents)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions
		(session_id, flow_kind, state, agent_id,
		 vehicle_number, engine_number, user_mobile, otp_verified,
		 first_name, last_name, dob, id_proof_type, id_proof_number, id_expiry,
		 plan_id, documents, serial_number, barcode, barcode_options,
		 vehicle_maker, vehicle_model, vehicle_descriptor,
		 request_id, provider_session_id, customer_ref,
		 version, created_at, updated_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
	`, s.SessionID, s.FlowKind, s.State, s.AgentID,
		s.VehicleNumber, s.EngineNumber, s.UserMobile, s.OTPVerified,
		s.FirstName, s.LastName, s.DOB, s.IDProofType, s.IDProofNumber, s.IDExpiry,
		s.PlanID, docs, s.SerialNumber, s.Barcode, s.BarcodeOptions,
		s.VehicleMaker, s.VehicleModel, s.VehicleDescriptor,
		s.RequestID, s.ProviderSessionID, s.CustomerRef,
		s.Version, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+sessionColumns+` FROM sessions WHERE session_id=$1`, sessionID)
	return scanSession(row)
}

// Update writes the session back only when the stored version still matches,
// then bumps it. A lost race returns session.ErrConflict.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	docs, err := json.Marshal(s.Documents)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE sessions SET
			flow_kind=$1, state=$2,
			vehicle_number=$3, engine_number=$4, user_mobile=$5, otp_verified=$6,
			first_name=$7, last_name=$8, dob=$9, id_proof_type=$10, id_proof_number=$11, id_expiry=$12,
			plan_id=$13, documents=$14, serial_number=$15, barcode=$16, barcode_options=$17,
			vehicle_maker=$18, vehicle_model=$19, vehicle_descriptor=$20,
			request_id=$21, provider_session_id=$22, customer_ref=$23,
			version=version+1, updated_at=$24
		WHERE session_id=$25 AND version=$26
	`, s.FlowKind, s.State,
		s.VehicleNumber, s.EngineNumber, s.UserMobile, s.OTPVerified,
		s.FirstName, s.LastName, s.DOB, s.IDProofType, s.IDProofNumber, s.IDExpiry,
		s.PlanID, docs, s.SerialNumber, s.Barcode, s.BarcodeOptions,
		s.VehicleMaker, s.VehicleModel, s.VehicleDescriptor,
		s.RequestID, s.ProviderSessionID, s.CustomerRef,
		s.UpdatedAt, s.SessionID, s.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE session_id=$1)`, s.SessionID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return session.ErrNotFound
		}
		return session.ErrConflict
	}
	s.Version++
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id=$1`, sessionID)
	return err
}

func (r *SessionRepository) ListIdleBefore(ctx context.Context, cutoff time.Time, limit int) ([]*session.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+sessionColumns+`
		FROM sessions
		WHERE state NOT IN ($1, $2) AND expires_at < $3
		ORDER BY expires_at
		LIMIT $4
	`, session.StateCompleted, session.StateCancelled, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var docs []byte
	if err := row.Scan(&s.ID, &s.SessionID, &s.FlowKind, &s.State, &s.AgentID,
		&s.VehicleNumber, &s.EngineNumber, &s.UserMobile, &s.OTPVerified,
		&s.FirstName, &s.LastName, &s.DOB, &s.IDProofType, &s.IDProofNumber, &s.IDExpiry,
		&s.PlanID, &docs, &s.SerialNumber, &s.Barcode, &s.BarcodeOptions,
		&s.VehicleMaker, &s.VehicleModel, &s.VehicleDescriptor,
		&s.RequestID, &s.ProviderSessionID, &s.CustomerRef,
		&s.Version, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &s.Documents); err != nil {
			return nil, err
		}
	}
	if s.Documents == nil {
		s.Documents = map[string]string{}
	}
	return &s, nil
}
