package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

// Executor is the trade-execution engine root. It owns dispatch, validation,
// post-trade cache invalidation and transaction logging. Every failure path
// terminates in a typed TradeResult; nothing escapes as a panic or error.
type Executor struct {
	store    AccountStore
	cache    Cache
	exchange exchange.Provider
	preparer *DataPreparer
	metrics  MetricsSink
	journal  TradeJournal
	clock    func() time.Time
}

// ExecutorOption customises the engine.
type ExecutorOption func(*Executor)

// WithMetricsSink overrides the default stats sink.
func WithMetricsSink(sink MetricsSink) ExecutorOption {
	return func(e *Executor) {
		if sink != nil {
			e.metrics = sink
		}
	}
}

// WithJournal attaches a best-effort trade journal.
func WithJournal(j TradeJournal) ExecutorOption {
	return func(e *Executor) {
		e.journal = j
	}
}

// WithClock overrides the time source (testing).
func WithClock(clock func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewExecutor wires the engine. store, cache, wallets and ex are mandatory.
func NewExecutor(store AccountStore, cache Cache, wallets wallet.Provider, ex exchange.Provider, opts ...ExecutorOption) (*Executor, error) {
	if store == nil {
		return nil, errors.New("engine: account store is required")
	}
	if cache == nil {
		return nil, errors.New("engine: cache is required")
	}
	if wallets == nil {
		return nil, errors.New("engine: wallet provider is required")
	}
	if ex == nil {
		return nil, errors.New("engine: exchange provider is required")
	}
	e := &Executor{
		store:    store,
		cache:    cache,
		exchange: ex,
		metrics:  NewStatsSink(),
		clock:    time.Now,
	}
	e.preparer = NewDataPreparer(store, cache, wallets, ex)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Preparer exposes the data preparer for callers that resolve context early
// in an interaction (e.g. to render a confirmation view).
func (e *Executor) Preparer() *DataPreparer { return e.preparer }

// ExecuteTrade runs one trade end to end and always returns a TradeResult.
func (e *Executor) ExecuteTrade(ctx context.Context, req *TradeRequest) (result *TradeResult) {
	started := e.clock()
	defer func() {
		if r := recover(); r != nil {
			logx.WithContext(ctx).Errorf("engine: panic in ExecuteTrade: %v", r)
			result = failure(req, newTradeError(CodeExternalExecutionFailed, "internal error, no funds were moved"))
		}
		result.ExecutionTimeMs = e.clock().Sub(started).Milliseconds()
		e.metrics.RecordTrade(req.Mode, req.Action, result.Success, time.Duration(result.ExecutionTimeMs)*time.Millisecond)
	}()

	if terr := gateRequest(req); terr != nil {
		return failure(req, terr)
	}

	ec, err := e.preparer.Prepare(ctx, req.UserID, req.Mode, nil)
	if err != nil {
		return failure(req, classifyPrepareError(err))
	}

	strat := e.strategyFor(req.Mode)
	if terr := strat.Validate(ctx, ec, req); terr != nil {
		return failure(req, terr)
	}

	swap, terr := strat.Execute(ctx, ec, req)
	if terr != nil {
		return failure(req, terr)
	}

	e.finishTrade(ctx, ec, req, swap)

	return &TradeResult{
		Success:        true,
		TxID:           swap.TxID,
		Action:         req.Action,
		Mode:           req.Mode,
		AmountIn:       swap.InputAmount,
		ExpectedOutput: swap.ExpectedOutput,
		PriceImpactPct: swap.PriceImpactPct,
	}
}

// gateRequest rejects malformed input before any I/O. These checks are pure
// and mode-independent; the venue could not execute such a request in any
// profile, so even turbo rejects here with zero external calls.
func gateRequest(req *TradeRequest) *TradeError {
	if !req.Mode.Valid() {
		return newTradeError(CodeInvalidMode, "unknown execution mode %q", req.Mode)
	}
	if !req.Action.Valid() {
		return newTradeError(CodeInvalidAction, "unknown action %q", req.Action)
	}
	if !common.IsHexAddress(req.AssetAddress) {
		return newTradeError(CodeInvalidAsset, "malformed asset address %q", req.AssetAddress)
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return newTradeError(CodeInvalidAmount, "amount must be a finite number, got %v", req.Amount)
	}
	if req.Amount <= 0 {
		return newTradeError(CodeInvalidAmount, "amount must be positive, got %v", req.Amount)
	}
	if req.Amount > policy.MaxTradeAmount {
		return newTradeError(CodeInvalidAmount, "amount %v exceeds maximum %v", req.Amount, policy.MaxTradeAmount)
	}
	return nil
}

func classifyPrepareError(err error) *TradeError {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return &TradeError{Code: CodeAccountNotFound, Message: "no account found, create one first", Err: err}
	case errors.Is(err, ErrWalletUnavailable), errors.Is(err, wallet.ErrUnavailable):
		return &TradeError{Code: CodeWalletUnavailable, Message: "wallet is temporarily unavailable", Err: err}
	default:
		var unknownMode policy.ErrUnknownMode
		if errors.As(err, &unknownMode) {
			return newTradeError(CodeInvalidMode, "unknown execution mode %q", unknownMode.Mode)
		}
		return externalError(err)
	}
}

// finishTrade runs the post-success bookkeeping: cache invalidation first,
// then ledger append and journal. Ledger/journal failures are logged and
// swallowed; the swap already happened and the result must report it.
func (e *Executor) finishTrade(ctx context.Context, ec *ExecutionContext, req *TradeRequest, swap *exchange.SwapResult) {
	e.invalidateAfterTrade(ctx, ec, req)

	rec := &TransactionRecord{
		TxID:           swap.TxID,
		UserID:         req.UserID,
		AssetAddress:   req.AssetAddress,
		Action:         req.Action,
		Mode:           req.Mode,
		AmountIn:       swap.InputAmount,
		ExpectedOutput: swap.ExpectedOutput,
		PriceImpactPct: swap.PriceImpactPct,
		SlippagePct:    ec.EffectiveSlippage,
		PriorityFee:    ec.EffectiveFeeRate,
		ExecutedAt:     e.clock().UTC(),
	}
	if err := e.store.AppendTransaction(ctx, rec); err != nil {
		logx.WithContext(ctx).Errorf("engine: append transaction tx=%s err=%v", swap.TxID, err)
	}
	if e.journal != nil {
		if err := e.journal.RecordTrade(rec); err != nil {
			logx.WithContext(ctx).Errorf("engine: journal tx=%s err=%v", swap.TxID, err)
		}
	}
}
