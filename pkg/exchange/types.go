package exchange

// Core swap domain types shared across provider implementations. The shapes
// mirror what swap-router APIs return while staying venue-agnostic so further
// venues can be added behind the same interface.

// FeeOptions carries the gas/priority pricing applied to a swap submission.
type FeeOptions struct {
	// PriorityFee is the tip attached to the transaction, in native units.
	PriorityFee float64 `json:"priorityFee"`
	// GasLimitMultiplier optionally scales the estimated gas limit; zero
	// means the provider default.
	GasLimitMultiplier float64 `json:"gasLimitMultiplier,omitempty"`
}

// SwapResult captures the outcome of a submitted swap.
type SwapResult struct {
	TxID           string  `json:"txId"`
	InputAmount    float64 `json:"inputAmount"`
	ExpectedOutput float64 `json:"expectedOutput"`
	PriceImpactPct float64 `json:"priceImpactPct"`
	// Raw provider error string for diagnostics; empty on success.
	ProviderError string `json:"providerError,omitempty"`
}

// AssetInfo describes a tradable asset.
type AssetInfo struct {
	Address         string  `json:"address"`
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Decimals        int     `json:"decimals"`
	PriceNative     float64 `json:"priceNative"`
	LiquidityNative float64 `json:"liquidityNative"`
}
