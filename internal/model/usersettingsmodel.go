package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ UserSettingsModel = (*customUserSettingsModel)(nil)

// UserSettings maps one row of the user_settings table. Null columns mean the
// user never overrode that parameter.
type UserSettings struct {
	UserId      string          `db:"user_id"`
	SlippagePct sql.NullFloat64 `db:"slippage_pct"`
	PriorityFee sql.NullFloat64 `db:"priority_fee"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type (
	// UserSettingsModel is an interface to be customized, add more methods
	// here, and implement the added methods in customUserSettingsModel.
	UserSettingsModel interface {
		Upsert(ctx context.Context, data *UserSettings) error
		FindOneByUserId(ctx context.Context, userId string) (*UserSettings, error)
	}

	customUserSettingsModel struct {
		conn sqlx.SqlConn
	}
)

// NewUserSettingsModel returns a model for the database table.
func NewUserSettingsModel(conn sqlx.SqlConn) UserSettingsModel {
	return &customUserSettingsModel{conn: conn}
}

func (m *customUserSettingsModel) Upsert(ctx context.Context, data *UserSettings) error {
	const query = `
INSERT INTO public.user_settings (user_id, slippage_pct, priority_fee, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
    slippage_pct = EXCLUDED.slippage_pct,
    priority_fee = EXCLUDED.priority_fee,
    updated_at = EXCLUDED.updated_at`
	if _, err := m.conn.ExecCtx(ctx, query,
		data.UserId, data.SlippagePct, data.PriorityFee, data.UpdatedAt); err != nil {
		return fmt.Errorf("user_settings.Upsert: %w", err)
	}
	return nil
}

func (m *customUserSettingsModel) FindOneByUserId(ctx context.Context, userId string) (*UserSettings, error) {
	const query = `
SELECT user_id, slippage_pct, priority_fee, updated_at
FROM public.user_settings
WHERE user_id = $1
LIMIT 1`
	var row UserSettings
	if err := m.conn.QueryRowCtx(ctx, &row, query, userId); err != nil {
		return nil, err
	}
	return &row, nil
}
