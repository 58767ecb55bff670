package model

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ SessionsModel = (*customSessionsModel)(nil)

// Sessions maps one row of the sessions table. Payload is an opaque msgpack
// blob owned by the session package; at most one row exists per user.
type Sessions struct {
	UserId    string    `db:"user_id"`
	State     string    `db:"state"`
	Payload   []byte    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type (
	// SessionsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customSessionsModel.
	SessionsModel interface {
		Upsert(ctx context.Context, data *Sessions) error
		FindOneByUserId(ctx context.Context, userId string) (*Sessions, error)
		DeleteByUserId(ctx context.Context, userId string) error
		DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	}

	customSessionsModel struct {
		conn sqlx.SqlConn
	}
)

// NewSessionsModel returns a model for the database table.
func NewSessionsModel(conn sqlx.SqlConn) SessionsModel {
	return &customSessionsModel{conn: conn}
}

func (m *customSessionsModel) Upsert(ctx context.Context, data *Sessions) error {
	const query = `
INSERT INTO public.sessions (user_id, state, payload, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    state = EXCLUDED.state,
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at`
	if _, err := m.conn.ExecCtx(ctx, query,
		data.UserId, data.State, data.Payload, data.ExpiresAt, data.UpdatedAt); err != nil {
		return fmt.Errorf("sessions.Upsert: %w", err)
	}
	return nil
}

func (m *customSessionsModel) FindOneByUserId(ctx context.Context, userId string) (*Sessions, error) {
	const query = `
SELECT user_id, state, payload, expires_at, updated_at
FROM public.sessions
WHERE user_id = $1
LIMIT 1`
	var row Sessions
	if err := m.conn.QueryRowCtx(ctx, &row, query, userId); err != nil {
		return nil, err
	}
	return &row, nil
}

func (m *customSessionsModel) DeleteByUserId(ctx context.Context, userId string) error {
	const query = `DELETE FROM public.sessions WHERE user_id = $1`
	if _, err := m.conn.ExecCtx(ctx, query, userId); err != nil {
		return fmt.Errorf("sessions.DeleteByUserId: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry has passed and reports how many
// went away. Run from the maintenance loop; reads already treat expired rows
// as absent, this only reclaims storage.
func (m *customSessionsModel) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM public.sessions WHERE expires_at <= $1`
	res, err := m.conn.ExecCtx(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("sessions.DeleteExpired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sessions.DeleteExpired rows affected: %w", err)
	}
	return affected, nil
}
