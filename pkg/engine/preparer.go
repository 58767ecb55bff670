package engine

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

// Preloaded carries lookups a caller already resolved earlier in the same
// interaction. Purely a latency optimization; nil fields are fetched normally.
type Preloaded struct {
	Account  *Account
	Settings *policy.Settings
}

// DataPreparer assembles the per-request ExecutionContext from the source of
// truth, going through the cache for every constituent lookup.
type DataPreparer struct {
	store    AccountStore
	cache    Cache
	wallets  wallet.Provider
	exchange exchange.Provider
}

// NewDataPreparer wires the preparer's collaborators.
func NewDataPreparer(store AccountStore, cache Cache, wallets wallet.Provider, ex exchange.Provider) *DataPreparer {
	return &DataPreparer{store: store, cache: cache, wallets: wallets, exchange: ex}
}

// Prepare builds a fresh ExecutionContext for userID under mode.
// Account and settings resolve concurrently when not preloaded. The wallet
// handle is constructed fresh on every call; only a warm marker is cached
// for diagnostics.
func (p *DataPreparer) Prepare(ctx context.Context, userID string, mode policy.Mode, pre *Preloaded) (*ExecutionContext, error) {
	if pre == nil {
		pre = &Preloaded{}
	}

	account := pre.Account
	settings := pre.Settings
	hadSettings := settings != nil
	if account == nil || !hadSettings {
		err := mr.Finish(
			func() error {
				if account != nil {
					return nil
				}
				fetched, err := p.fetchAccount(ctx, userID)
				if err != nil {
					return err
				}
				account = fetched
				return nil
			},
			func() error {
				if hadSettings {
					return nil
				}
				fetched, err := p.fetchSettings(ctx, userID)
				if err != nil {
					return err
				}
				settings = fetched
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	handle, err := p.wallets.HandleFor(account.EncryptedCredential)
	if err != nil {
		logx.WithContext(ctx).Errorf("preparer: wallet handle user=%s err=%v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	// Live handles are never cached; the marker only records that a handle
	// was recently constructible for this user.
	p.cache.Set(ctx, CacheWalletWarm, userID, true)

	balance, err := p.fetchBalance(ctx, account.Address)
	if err != nil {
		return nil, err
	}

	slippage, err := policy.GetSlippage(mode, settings)
	if err != nil {
		return nil, err
	}
	feeRate, err := policy.GetFeeRate(mode, settings)
	if err != nil {
		return nil, err
	}

	return &ExecutionContext{
		Account:           account,
		Settings:          settings,
		Wallet:            handle,
		Balance:           balance,
		EffectiveSlippage: slippage,
		EffectiveFeeRate:  feeRate,
	}, nil
}

func (p *DataPreparer) fetchAccount(ctx context.Context, userID string) (*Account, error) {
	var account Account
	err := p.cache.GetOrSet(ctx, CacheAccount, userID, &account, func(val any) error {
		fresh, err := p.store.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		*val.(*Account) = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (p *DataPreparer) fetchSettings(ctx context.Context, userID string) (*policy.Settings, error) {
	var settings policy.Settings
	var missing bool
	err := p.cache.GetOrSet(ctx, CacheSettings, userID, &settings, func(val any) error {
		fresh, err := p.store.GetSettings(ctx, userID)
		if err != nil {
			return err
		}
		if fresh == nil {
			// Absent settings are valid; cache the zero value so the miss
			// does not refetch on every trade.
			missing = true
			return nil
		}
		*val.(*policy.Settings) = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, nil
	}
	return &settings, nil
}

func (p *DataPreparer) fetchBalance(ctx context.Context, address string) (float64, error) {
	var balance float64
	err := p.cache.GetOrSet(ctx, CacheBalance, address, &balance, func(val any) error {
		fresh, err := p.exchange.GetBalance(ctx, address)
		if err != nil {
			return err
		}
		*val.(*float64) = fresh
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("preparer: balance for %s: %w", address, err)
	}
	return balance, nil
}
