package engine

import (
	"context"
	"time"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

// AccountStore is the source of truth for accounts, settings and the
// transaction ledger. Implemented over Postgres in internal/repo.
type AccountStore interface {
	// GetAccount returns ErrAccountNotFound when no record exists.
	GetAccount(ctx context.Context, userID string) (*Account, error)
	// GetSettings returns (nil, nil) when the user has no settings row;
	// callers treat nil as all-defaults.
	GetSettings(ctx context.Context, userID string) (*policy.Settings, error)
	// AppendTransaction persists an immutable trade record. Appending the
	// same TxID twice is a no-op.
	AppendTransaction(ctx context.Context, rec *TransactionRecord) error
}

// Category names a cache namespace with its own default TTL.
type Category string

const (
	CacheAccount    Category = "account"
	CacheSettings   Category = "settings"
	CacheWalletWarm Category = "wallet_warm"
	CacheBalance    Category = "balance"
	CacheAssetMeta  Category = "asset_meta"
	CachePortfolio  Category = "portfolio"
	CacheUserStats  Category = "user_stats"
)

// CategoryKey pairs a category with a concrete key for bulk invalidation.
type CategoryKey struct {
	Category Category
	Key      string
}

// Cache is the namespaced cache surface the engine depends on. Every
// implementation must treat backend failure as a miss: producers are called
// directly and no error from the backend ever reaches a trade flow.
type Cache interface {
	// Get loads a cached value into val; found=false on miss or backend error.
	Get(ctx context.Context, category Category, key string, val any) (found bool)
	// Set stores val under the category's default TTL, or ttl when given.
	Set(ctx context.Context, category Category, key string, val any, ttl ...time.Duration)
	// GetOrSet loads into val, invoking produce on miss and storing the
	// result. produce errors are returned verbatim; concurrent callers for
	// the same key share one producer invocation.
	GetOrSet(ctx context.Context, category Category, key string, val any, produce func(val any) error) error
	// Invalidate removes one entry.
	Invalidate(ctx context.Context, category Category, key string)
	// InvalidateMany best-effort removes every listed entry.
	InvalidateMany(ctx context.Context, keys []CategoryKey)
}

// MetricsSink receives one record per ExecuteTrade call, success or not.
// Injected so aggregate counters are never process-global state.
type MetricsSink interface {
	RecordTrade(mode policy.Mode, action Action, success bool, duration time.Duration)
}

// TradeJournal receives best-effort audit records for successful trades.
// Failures are logged and swallowed.
type TradeJournal interface {
	RecordTrade(rec *TransactionRecord) error
}
