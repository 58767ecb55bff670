package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TransactionsModel = (*customTransactionsModel)(nil)

// ErrDuplicateTransaction marks an insert that hit the tx_id unique index.
var ErrDuplicateTransaction = errors.New("model: duplicate transaction")

const pgUniqueViolation = "23505"

// Transactions maps one row of the transactions ledger. Rows are append-only.
type Transactions struct {
	TxId           string    `db:"tx_id"`
	UserId         string    `db:"user_id"`
	AssetAddress   string    `db:"asset_address"`
	Action         string    `db:"action"`
	Mode           string    `db:"mode"`
	AmountIn       float64   `db:"amount_in"`
	ExpectedOutput float64   `db:"expected_output"`
	PriceImpactPct float64   `db:"price_impact_pct"`
	SlippagePct    float64   `db:"slippage_pct"`
	PriorityFee    float64   `db:"priority_fee"`
	ExecutedAt     time.Time `db:"executed_at"`
}

type (
	// TransactionsModel is an interface to be customized, add more methods
	// here, and implement the added methods in customTransactionsModel.
	TransactionsModel interface {
		Insert(ctx context.Context, data *Transactions) error
	}

	customTransactionsModel struct {
		conn sqlx.SqlConn
	}
)

// NewTransactionsModel returns a model for the database table.
func NewTransactionsModel(conn sqlx.SqlConn) TransactionsModel {
	return &customTransactionsModel{conn: conn}
}

// Insert appends one ledger row. A replayed tx_id returns
// ErrDuplicateTransaction so callers can treat the retry as settled.
func (m *customTransactionsModel) Insert(ctx context.Context, data *Transactions) error {
	const query = `
INSERT INTO public.transactions (
    tx_id, user_id, asset_address, action, mode,
    amount_in, expected_output, price_impact_pct,
    slippage_pct, priority_fee, executed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := m.conn.ExecCtx(ctx, query,
		data.TxId, data.UserId, data.AssetAddress, data.Action, data.Mode,
		data.AmountIn, data.ExpectedOutput, data.PriceImpactPct,
		data.SlippagePct, data.PriorityFee, data.ExecutedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("transactions.Insert: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
