package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/model"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

var _ engine.AccountStore = (*AccountRepo)(nil)

// AccountRepo backs the engine's account surface with Postgres. Caching is
// not handled here; the engine goes through its cache for every lookup.
type AccountRepo struct {
	accounts     model.AccountsModel
	settings     model.UserSettingsModel
	transactions model.TransactionsModel
}

// NewAccountRepo wires the repo over the given models.
func NewAccountRepo(accounts model.AccountsModel, settings model.UserSettingsModel, transactions model.TransactionsModel) *AccountRepo {
	return &AccountRepo{accounts: accounts, settings: settings, transactions: transactions}
}

// GetAccount implements engine.AccountStore.
func (r *AccountRepo) GetAccount(ctx context.Context, userID string) (*engine.Account, error) {
	row, err := r.accounts.FindOneByUserId(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, engine.ErrAccountNotFound
		}
		return nil, fmt.Errorf("repo: account %s: %w", userID, err)
	}
	return &engine.Account{
		UserID:              row.UserId,
		Address:             row.Address,
		EncryptedCredential: row.EncryptedCredential,
		CreatedAt:           row.CreatedAt,
	}, nil
}

// GetSettings implements engine.AccountStore. A missing row means the user
// runs on defaults and comes back as (nil, nil).
func (r *AccountRepo) GetSettings(ctx context.Context, userID string) (*policy.Settings, error) {
	row, err := r.settings.FindOneByUserId(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: settings %s: %w", userID, err)
	}
	settings := &policy.Settings{}
	if row.SlippagePct.Valid {
		value := row.SlippagePct.Float64
		settings.SlippagePct = &value
	}
	if row.PriorityFee.Valid {
		value := row.PriorityFee.Float64
		settings.PriorityFee = &value
	}
	return settings, nil
}

// AppendTransaction implements engine.AccountStore. Replayed tx ids settle as
// a no-op so retries after a timeout cannot double-book.
func (r *AccountRepo) AppendTransaction(ctx context.Context, rec *engine.TransactionRecord) error {
	err := r.transactions.Insert(ctx, &model.Transactions{
		TxId:           rec.TxID,
		UserId:         rec.UserID,
		AssetAddress:   rec.AssetAddress,
		Action:         string(rec.Action),
		Mode:           string(rec.Mode),
		AmountIn:       rec.AmountIn,
		ExpectedOutput: rec.ExpectedOutput,
		PriceImpactPct: rec.PriceImpactPct,
		SlippagePct:    rec.SlippagePct,
		PriorityFee:    rec.PriorityFee,
		ExecutedAt:     rec.ExecutedAt,
	})
	if errors.Is(err, model.ErrDuplicateTransaction) {
		logx.WithContext(ctx).Infof("repo: transaction %s already recorded", rec.TxID)
		return nil
	}
	return err
}
