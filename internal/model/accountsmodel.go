package model

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ AccountsModel = (*customAccountsModel)(nil)

// Accounts maps one row of the accounts table.
type Accounts struct {
	UserId              string    `db:"user_id"`
	Address             string    `db:"address"`
	EncryptedCredential string    `db:"encrypted_credential"`
	CreatedAt           time.Time `db:"created_at"`
}

type (
	// AccountsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customAccountsModel.
	AccountsModel interface {
		Insert(ctx context.Context, data *Accounts) error
		FindOneByUserId(ctx context.Context, userId string) (*Accounts, error)
	}

	customAccountsModel struct {
		conn sqlx.SqlConn
	}
)

// NewAccountsModel returns a model for the database table.
func NewAccountsModel(conn sqlx.SqlConn) AccountsModel {
	return &customAccountsModel{conn: conn}
}

func (m *customAccountsModel) Insert(ctx context.Context, data *Accounts) error {
	const query = `
INSERT INTO public.accounts (user_id, address, encrypted_credential, created_at)
VALUES ($1, $2, $3, $4)`
	if _, err := m.conn.ExecCtx(ctx, query,
		data.UserId, data.Address, data.EncryptedCredential, data.CreatedAt); err != nil {
		return fmt.Errorf("accounts.Insert: %w", err)
	}
	return nil
}

func (m *customAccountsModel) FindOneByUserId(ctx context.Context, userId string) (*Accounts, error) {
	const query = `
SELECT user_id, address, encrypted_credential, created_at
FROM public.accounts
WHERE user_id = $1
LIMIT 1`
	var row Accounts
	if err := m.conn.QueryRowCtx(ctx, &row, query, userId); err != nil {
		return nil, err
	}
	return &row, nil
}
