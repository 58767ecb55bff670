package session

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

// OutcomeKind classifies what the caller should do after an interaction step.
type OutcomeKind string

const (
	// OutcomePrompt means the flow advanced; prompt for the next input.
	OutcomePrompt OutcomeKind = "prompt"
	// OutcomeRetry means the input was not understood; state did not change.
	OutcomeRetry OutcomeKind = "retry"
	// OutcomeExpired means there is no live session for the action.
	OutcomeExpired OutcomeKind = "expired"
	// OutcomeTradeReady means the trade is confirmed; Request is populated.
	OutcomeTradeReady OutcomeKind = "trade_ready"
	// OutcomeCancelled means the flow was cancelled and cleared.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the soft result of one interaction step. Invalid input never
// surfaces as an error; it comes back as a retry or expired outcome.
type Outcome struct {
	Kind    OutcomeKind
	State   State
	Message string
	Request *engine.TradeRequest
}

// SelectionKind enumerates the explicit (non-free-text) actions.
type SelectionKind string

const (
	SelectionPercent SelectionKind = "percent"
	SelectionConfirm SelectionKind = "confirm"
	SelectionCancel  SelectionKind = "cancel"
)

// Selection is an explicit UI action, e.g. a tapped percentage button.
type Selection struct {
	Kind    SelectionKind
	Percent float64
}

const expiredMessage = "session expired, please restart"

// Start begins a flow for an explicit buy/sell selection and asks for the
// asset. Overwrites any in-flight interaction for the user.
func (m *Machine) Start(ctx context.Context, userID string, action engine.Action, mode policy.Mode) (*Outcome, error) {
	payload := Payload{Action: action, Mode: mode}
	if err := m.Set(ctx, userID, StateAwaitingAsset, payload); err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomePrompt, State: StateAwaitingAsset, Message: "send the asset address to trade"}, nil
}

// HandleInput interprets free text according to the current state. The text
// shape decides the meaning: an address advances an asset prompt, a number
// advances an amount prompt, anything else asks the user to retry without
// moving the state.
func (m *Machine) HandleInput(ctx context.Context, userID, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	rec, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		// An address with no active state is a shortcut straight into the
		// amount prompt, defaulting to a normal-mode buy.
		if common.IsHexAddress(text) {
			payload := Payload{
				Action:       engine.ActionBuy,
				Mode:         policy.ModeNormal,
				AssetAddress: common.HexToAddress(text).Hex(),
			}
			if err := m.Set(ctx, userID, StateAwaitingAmount, payload); err != nil {
				return nil, err
			}
			return &Outcome{Kind: OutcomePrompt, State: StateAwaitingAmount, Message: "how much would you like to spend?"}, nil
		}
		return &Outcome{Kind: OutcomeRetry, State: StateIdle, Message: "send an asset address to begin"}, nil
	}

	switch rec.State {
	case StateAwaitingAsset:
		if !common.IsHexAddress(text) {
			return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "that does not look like an asset address, try again"}, nil
		}
		payload := rec.Payload
		payload.AssetAddress = common.HexToAddress(text).Hex()
		if err := m.Transition(ctx, userID, StateAwaitingAmount, payload); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomePrompt, State: StateAwaitingAmount, Message: "how much would you like to trade?"}, nil

	case StateAwaitingAmount:
		// ParseFloat accepts "NaN" and "Inf"; neither may become an amount.
		amount, perr := strconv.ParseFloat(text, 64)
		if perr != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "enter a positive number"}, nil
		}
		payload := rec.Payload
		payload.Amount = amount
		payload.SellAll = false
		if err := m.Transition(ctx, userID, StateConfirming, payload); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomePrompt, State: StateConfirming, Message: "confirm the trade?"}, nil

	case StateConfirming:
		return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "confirm or cancel the pending trade"}, nil

	case StateExecuting:
		return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "a trade is already in progress"}, nil

	default:
		return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "send an asset address to begin"}, nil
	}
}

// HandleSelection interprets an explicit action against the current state.
// A missing or expired session fails soft; the engine is never invoked from
// here without a confirmed, fully-formed request.
func (m *Machine) HandleSelection(ctx context.Context, userID string, sel Selection) (*Outcome, error) {
	rec, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &Outcome{Kind: OutcomeExpired, State: StateIdle, Message: expiredMessage}, nil
	}

	switch sel.Kind {
	case SelectionCancel:
		if err := m.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomeCancelled, State: StateIdle, Message: "trade cancelled"}, nil

	case SelectionPercent:
		if rec.State != StateAwaitingAmount && rec.State != StateConfirming {
			return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "pick an asset first"}, nil
		}
		if rec.Payload.HeldAmount <= 0 || sel.Percent <= 0 || sel.Percent > 100 {
			return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "percentage selection is only available when selling a held asset"}, nil
		}
		payload := rec.Payload
		payload.Amount = rec.Payload.HeldAmount * sel.Percent / 100
		payload.SellAll = sel.Percent >= 100
		if payload.SellAll {
			// Keep the full held amount; the engine applies the haircut.
			payload.Amount = rec.Payload.HeldAmount
		}
		if rec.State == StateAwaitingAmount {
			if err := m.Transition(ctx, userID, StateConfirming, payload); err != nil {
				return nil, err
			}
		} else if err := m.Set(ctx, userID, StateConfirming, payload); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomePrompt, State: StateConfirming, Message: "confirm the trade?"}, nil

	case SelectionConfirm:
		if rec.State != StateConfirming {
			return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "nothing to confirm yet"}, nil
		}
		payload := rec.Payload
		if err := m.Transition(ctx, userID, StateExecuting, payload); err != nil {
			return nil, err
		}
		return &Outcome{
			Kind:  OutcomeTradeReady,
			State: StateExecuting,
			Request: &engine.TradeRequest{
				Mode:         payload.Mode,
				Action:       payload.Action,
				UserID:       userID,
				AssetAddress: payload.AssetAddress,
				Amount:       payload.Amount,
				SellAll:      payload.SellAll,
			},
		}, nil

	default:
		return &Outcome{Kind: OutcomeRetry, State: rec.State, Message: "unrecognised action"}, nil
	}
}

// Complete ends the flow after the engine returned; the record is cleared
// regardless of trade success so the user can start fresh.
func (m *Machine) Complete(ctx context.Context, userID string) error {
	return m.Clear(ctx, userID)
}
