package engine

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

// strategy is the per-mode execution profile, selected once per request.
// It centralizes the "turbo skips validation" decision instead of spreading
// mode checks through the engine.
type strategy interface {
	// Validate runs the mode's validation set. nil means the trade may
	// proceed to the venue.
	Validate(ctx context.Context, ec *ExecutionContext, req *TradeRequest) *TradeError
	// Execute invokes the external exchange capability.
	Execute(ctx context.Context, ec *ExecutionContext, req *TradeRequest) (*exchange.SwapResult, *TradeError)
}

func (e *Executor) strategyFor(mode policy.Mode) strategy {
	switch mode {
	case policy.ModeTurbo:
		return &turboStrategy{engine: e}
	default:
		return &normalStrategy{engine: e}
	}
}

// normalStrategy runs the full validation set concurrently with an
// independent asset-metadata read so the extra safety costs little latency.
type normalStrategy struct {
	engine *Executor
}

func (s *normalStrategy) Validate(ctx context.Context, ec *ExecutionContext, req *TradeRequest) *TradeError {
	var verr *TradeError
	err := mr.Finish(
		func() error {
			verr = s.checkFunds(ec, req)
			return nil
		},
		func() error {
			s.engine.warmAssetMeta(ctx, req.AssetAddress)
			return nil
		},
	)
	if err != nil {
		return externalError(err)
	}
	return verr
}

func (s *normalStrategy) checkFunds(ec *ExecutionContext, req *TradeRequest) *TradeError {
	// Reserve the fee buffer in every direction; a sell still needs gas.
	required := policy.FeeBuffer
	if req.Action == ActionBuy {
		required += req.Amount
	}
	if required > ec.Balance {
		return balanceError(CodeInsufficientBalance, required, ec.Balance)
	}
	if ec.Balance-required < policy.MinBalanceFloor {
		return balanceError(CodeBelowMinimumBalance, required+policy.MinBalanceFloor, ec.Balance)
	}
	return nil
}

func (s *normalStrategy) Execute(ctx context.Context, ec *ExecutionContext, req *TradeRequest) (*exchange.SwapResult, *TradeError) {
	return s.engine.dispatch(ctx, ec, req)
}

// turboStrategy skips the validation set per policy and goes straight to the
// venue with fixed slippage and fee constants. Callers are responsible for
// warning the user out-of-band.
type turboStrategy struct {
	engine *Executor
}

func (s *turboStrategy) Validate(ctx context.Context, ec *ExecutionContext, req *TradeRequest) *TradeError {
	return nil
}

func (s *turboStrategy) Execute(ctx context.Context, ec *ExecutionContext, req *TradeRequest) (*exchange.SwapResult, *TradeError) {
	return s.engine.dispatch(ctx, ec, req)
}

// dispatch performs the venue call shared by both strategies. The amount for
// a sell-all request takes the haircut before submission.
func (e *Executor) dispatch(ctx context.Context, ec *ExecutionContext, req *TradeRequest) (*exchange.SwapResult, *TradeError) {
	amount := req.Amount
	if req.Action == ActionSell && req.SellAll {
		amount = req.Amount * policy.SellAllHaircut
	}

	timeout, perr := policy.GetTimeout(req.Mode, policy.PhaseExecute)
	if perr != nil {
		return nil, newTradeError(CodeInvalidMode, "unknown execution mode %q", req.Mode)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fee := exchange.FeeOptions{PriorityFee: ec.EffectiveFeeRate}
	var result *exchange.SwapResult
	var err error
	switch req.Action {
	case ActionBuy:
		result, err = e.exchange.Buy(callCtx, ec.Wallet, req.AssetAddress, amount, ec.EffectiveSlippage, fee)
	case ActionSell:
		result, err = e.exchange.Sell(callCtx, ec.Wallet, req.AssetAddress, amount, ec.EffectiveSlippage, fee)
	default:
		return nil, newTradeError(CodeInvalidAction, "unknown action %q", req.Action)
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("engine: %s %s user=%s asset=%s err=%v",
			req.Mode, req.Action, req.UserID, req.AssetAddress, err)
		return result, externalError(err)
	}
	return result, nil
}

// warmAssetMeta refreshes the asset metadata cache entry. Failures only cost
// the warm cache; they never block a validated trade.
func (e *Executor) warmAssetMeta(ctx context.Context, assetAddress string) {
	var info exchange.AssetInfo
	err := e.cache.GetOrSet(ctx, CacheAssetMeta, assetAddress, &info, func(val any) error {
		fresh, err := e.exchange.GetAssetInfo(ctx, assetAddress)
		if err != nil {
			return err
		}
		*val.(*exchange.AssetInfo) = *fresh
		return nil
	})
	if err != nil {
		logx.WithContext(ctx).Infof("engine: asset metadata warm failed asset=%s err=%v", assetAddress, err)
	}
}
