package session

import (
	"fmt"
	"time"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

// State names one step of the multi-step trade interaction.
type State string

const (
	StateIdle           State = "idle"
	StateAwaitingAsset  State = "awaiting_asset_input"
	StateAwaitingAmount State = "awaiting_amount_input"
	StateConfirming     State = "confirming"
	StateExecuting      State = "executing"
)

// Valid reports whether s is one of the named states.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateAwaitingAsset, StateAwaitingAmount, StateConfirming, StateExecuting:
		return true
	}
	return false
}

// transitions is the explicit edge set of the interaction flow. Idle is both
// the entry point and the terminal: completing or cancelling a flow clears
// the record, which reads as Idle.
var transitions = map[State][]State{
	StateIdle:           {StateAwaitingAsset, StateAwaitingAmount},
	StateAwaitingAsset:  {StateAwaitingAmount, StateIdle},
	StateAwaitingAmount: {StateConfirming, StateIdle},
	StateConfirming:     {StateExecuting, StateAwaitingAmount, StateIdle},
	StateExecuting:      {StateIdle},
}

// CanTransition reports whether the edge from→to exists.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition reports a rejected state machine edge.
type ErrInvalidTransition struct {
	From, To State
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("session: invalid transition %s -> %s", e.From, e.To)
}

// Payload is the data accumulated across one interaction. Overwritten as a
// whole on every transition.
type Payload struct {
	Action       engine.Action `msgpack:"action,omitempty"`
	Mode         policy.Mode   `msgpack:"mode,omitempty"`
	AssetAddress string        `msgpack:"asset_address,omitempty"`
	AssetSymbol  string        `msgpack:"asset_symbol,omitempty"`
	Amount       float64       `msgpack:"amount,omitempty"`
	// HeldAmount is the user's holding of the selected asset, captured when
	// the flow starts; percentage selections resolve against it.
	HeldAmount float64 `msgpack:"held_amount,omitempty"`
	SellAll    bool    `msgpack:"sell_all,omitempty"`
}

// Record is the single live interaction state for one user.
type Record struct {
	UserID    string
	State     State
	Payload   Payload
	ExpiresAt time.Time
}
