package policy

import (
	"fmt"
	"time"
)

// Mode selects the execution profile for a trade.
type Mode string

const (
	// ModeNormal runs the full validation set and honours per-user settings.
	ModeNormal Mode = "normal"
	// ModeTurbo trades safety for latency: fixed constants, no validation.
	ModeTurbo Mode = "turbo"
)

// Phase identifies a timeout bucket within one trade flow.
type Phase string

const (
	PhasePrepare Phase = "prepare"
	PhaseQuote   Phase = "quote"
	PhaseExecute Phase = "execute"
)

// Check names the individual validations the engine may run.
type Check string

const (
	CheckBalance      Check = "balance"
	CheckAddressShape Check = "address_shape"
	CheckAmountBounds Check = "amount_bounds"
)

// Trading constants. All amounts are denominated in the native asset (MON).
// SellAllHaircut is the single authoritative value; it absorbs precision
// drift between the cached balance and the true balance at execution time.
const (
	TurboSlippagePct   = 25.0
	TurboPriorityFee   = 0.01
	DefaultSlippagePct = 1.5
	DefaultPriorityFee = 0.001
	FeeBuffer          = 0.05
	MinBalanceFloor    = 0.01
	MaxTradeAmount     = 10000.0
	SellAllHaircut     = 0.995
)

// Settings is the per-user subset of account settings the policy reads.
// A nil Settings is valid and resolves every field to its default.
type Settings struct {
	SlippagePct *float64
	PriorityFee *float64
}

// ErrUnknownMode reports a mode outside the normal/turbo set. It is fatal to
// the request, never to the process.
type ErrUnknownMode struct {
	Mode Mode
}

func (e ErrUnknownMode) Error() string {
	return fmt.Sprintf("policy: unknown mode %q", string(e.Mode))
}

// Valid reports whether m is a recognised execution mode.
func (m Mode) Valid() bool {
	return m == ModeNormal || m == ModeTurbo
}

// GetSlippage resolves the slippage tolerance (percent) for a mode.
// Turbo always returns the fixed constant regardless of settings.
func GetSlippage(mode Mode, settings *Settings) (float64, error) {
	switch mode {
	case ModeTurbo:
		return TurboSlippagePct, nil
	case ModeNormal:
		if settings != nil && settings.SlippagePct != nil && *settings.SlippagePct > 0 {
			return *settings.SlippagePct, nil
		}
		return DefaultSlippagePct, nil
	default:
		return 0, ErrUnknownMode{Mode: mode}
	}
}

// GetFeeRate resolves the priority fee (MON) for a mode.
func GetFeeRate(mode Mode, settings *Settings) (float64, error) {
	switch mode {
	case ModeTurbo:
		return TurboPriorityFee, nil
	case ModeNormal:
		if settings != nil && settings.PriorityFee != nil && *settings.PriorityFee > 0 {
			return *settings.PriorityFee, nil
		}
		return DefaultPriorityFee, nil
	default:
		return 0, ErrUnknownMode{Mode: mode}
	}
}

var timeouts = map[Mode]map[Phase]time.Duration{
	ModeNormal: {
		PhasePrepare: 5 * time.Second,
		PhaseQuote:   10 * time.Second,
		PhaseExecute: 60 * time.Second,
	},
	ModeTurbo: {
		PhasePrepare: 2 * time.Second,
		PhaseQuote:   3 * time.Second,
		PhaseExecute: 30 * time.Second,
	},
}

// GetTimeout returns the deadline budget for a phase under a mode. Unknown
// phases fall back to the execute budget so a caller never gets zero.
func GetTimeout(mode Mode, phase Phase) (time.Duration, error) {
	phases, ok := timeouts[mode]
	if !ok {
		return 0, ErrUnknownMode{Mode: mode}
	}
	if d, ok := phases[phase]; ok {
		return d, nil
	}
	return phases[PhaseExecute], nil
}

var normalChecks = map[Check]struct{}{
	CheckBalance:      {},
	CheckAddressShape: {},
	CheckAmountBounds: {},
}

// RequiresValidation reports whether a mode runs the named check.
// Turbo returns false for every check.
func RequiresValidation(mode Mode, check Check) bool {
	if mode != ModeNormal {
		return false
	}
	_, ok := normalChecks[check]
	return ok
}

// ValidationSet returns the checks a mode requires. Turbo yields an empty set.
func ValidationSet(mode Mode) []Check {
	if mode != ModeNormal {
		return nil
	}
	return []Check{CheckAddressShape, CheckAmountBounds, CheckBalance}
}
