package engine

import (
	"time"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

// Action is the trade direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Valid reports whether a is a recognised action.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// TradeRequest is the immutable per-invocation input to ExecuteTrade.
type TradeRequest struct {
	Mode         policy.Mode
	Action       Action
	UserID       string
	AssetAddress string
	// Amount is native units for a buy, asset units for a sell.
	Amount float64
	// SellAll marks a sell meant to liquidate the entire held amount; the
	// engine applies policy.SellAllHaircut to Amount before execution.
	SellAll bool
}

// Account is the persisted user account record.
type Account struct {
	UserID              string
	Address             string
	EncryptedCredential string
	CreatedAt           time.Time
}

// ExecutionContext bundles everything a dispatch needs. Built fresh per
// request and discarded afterwards; only its constituent lookups are cached.
type ExecutionContext struct {
	Account           *Account
	Settings          *policy.Settings
	Wallet            wallet.Handle
	Balance           float64
	EffectiveSlippage float64
	EffectiveFeeRate  float64
}

// TradeResult is the synchronous outcome of one ExecuteTrade call. Success
// false always carries a non-nil Error; nothing ever panics across this
// boundary.
type TradeResult struct {
	Success         bool
	TxID            string
	Error           *TradeError
	Action          Action
	Mode            policy.Mode
	ExecutionTimeMs int64
	AmountIn        float64
	ExpectedOutput  float64
	PriceImpactPct  float64
}

func failure(req *TradeRequest, terr *TradeError) *TradeResult {
	return &TradeResult{
		Success: false,
		Error:   terr,
		Action:  req.Action,
		Mode:    req.Mode,
	}
}

// TransactionRecord is the immutable row appended after a successful trade.
type TransactionRecord struct {
	TxID           string
	UserID         string
	AssetAddress   string
	Action         Action
	Mode           policy.Mode
	AmountIn       float64
	ExpectedOutput float64
	PriceImpactPct float64
	SlippagePct    float64
	PriorityFee    float64
	ExecutedAt     time.Time
}
