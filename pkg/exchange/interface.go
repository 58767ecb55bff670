package exchange

import (
	"context"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

// Provider exposes swap-execution capabilities in a venue-agnostic fashion.
// Implementations own quoting, routing and submission; the engine treats the
// whole operation as opaque and bounds it only with the context deadline.
type Provider interface {
	// Buy swaps `amount` of the native asset into the asset at assetAddress.
	Buy(ctx context.Context, w wallet.Handle, assetAddress string, amount float64, slippagePct float64, fee FeeOptions) (*SwapResult, error)
	// Sell swaps `amount` units of the asset at assetAddress back to native.
	Sell(ctx context.Context, w wallet.Handle, assetAddress string, amount float64, slippagePct float64, fee FeeOptions) (*SwapResult, error)

	// GetAssetInfo returns metadata and pricing for an asset.
	GetAssetInfo(ctx context.Context, assetAddress string) (*AssetInfo, error)
	// GetBalance returns the native-asset balance of an account address.
	GetBalance(ctx context.Context, accountAddress string) (float64, error)
}
