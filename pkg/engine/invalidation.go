package engine

import (
	"context"
)

// invalidationTable declares, per operation, which cache categories hold
// state a successful trade makes stale. One shared routine consumes it so
// call sites never carry ad hoc key lists.
var invalidationTable = map[Action][]Category{
	ActionBuy:  {CacheBalance, CachePortfolio, CacheUserStats},
	ActionSell: {CacheBalance, CachePortfolio, CacheUserStats},
}

// invalidateAfterTrade clears every cache entry the trade made stale for
// this user/account. Runs before control returns to the caller.
func (e *Executor) invalidateAfterTrade(ctx context.Context, ec *ExecutionContext, req *TradeRequest) {
	categories, ok := invalidationTable[req.Action]
	if !ok {
		return
	}
	keys := make([]CategoryKey, 0, len(categories))
	for _, category := range categories {
		key := req.UserID
		if category == CacheBalance {
			// Balances are keyed by account address, not user id.
			key = ec.Account.Address
		}
		keys = append(keys, CategoryKey{Category: category, Key: key})
	}
	e.cache.InvalidateMany(ctx, keys)
}
