package engine

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every way a trade can fail. Codes are stable strings
// so callers can switch on them and transaction logs stay greppable.
type ErrorCode string

const (
	CodeInvalidMode             ErrorCode = "invalid_mode"
	CodeInvalidAction           ErrorCode = "invalid_action"
	CodeInvalidAsset            ErrorCode = "invalid_asset"
	CodeInvalidAmount           ErrorCode = "invalid_amount"
	CodeInsufficientBalance     ErrorCode = "insufficient_balance"
	CodeBelowMinimumBalance     ErrorCode = "below_minimum_balance"
	CodeExternalExecutionFailed ErrorCode = "external_execution_failed"
	CodeWalletUnavailable       ErrorCode = "wallet_unavailable"
	CodeAccountNotFound         ErrorCode = "account_not_found"
)

// Sentinels used by the data-preparation layer.
var (
	ErrAccountNotFound   = errors.New("engine: account not found")
	ErrWalletUnavailable = errors.New("engine: wallet unavailable")
)

// TradeError is the typed failure carried inside a TradeResult. Message is
// safe to show to the user; Err keeps the raw cause for logging only.
type TradeError struct {
	Code    ErrorCode
	Message string
	// Required/Available carry the computed shortfall for policy errors so
	// the caller can render the exact numbers.
	Required  float64
	Available float64
	Err       error
}

func (e *TradeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TradeError) Unwrap() error { return e.Err }

func newTradeError(code ErrorCode, format string, args ...any) *TradeError {
	return &TradeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func balanceError(code ErrorCode, required, available float64) *TradeError {
	return &TradeError{
		Code:      code,
		Message:   fmt.Sprintf("required %.6f, available %.6f", required, available),
		Required:  required,
		Available: available,
	}
}

// externalError paraphrases a provider failure for display while preserving
// the raw error for logs.
func externalError(err error) *TradeError {
	return &TradeError{
		Code:    CodeExternalExecutionFailed,
		Message: "the exchange could not complete the trade, no funds were moved",
		Err:     err,
	}
}
