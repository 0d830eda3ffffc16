package errors

import (
	"fmt"
	"strings"

	"github.com/ClipFinance/route-lib/common/types"
)

// ConfigurationError is returned when a request refers to an unknown chain or token.
// It is fatal for the request that produced it.
type ConfigurationError struct {
	Chain types.Chain
	Token *types.TokenID
	Cause error
}

// UnknownTokenError builds the configuration error for a token that cannot be resolved on its chain.
func UnknownTokenError(token types.TokenID, cause error) *ConfigurationError {
	return &ConfigurationError{Chain: token.Chain, Token: &token, Cause: cause}
}

// UnknownChainError builds the configuration error for a chain that is not registered.
func UnknownChainError(chain types.Chain, cause error) *ConfigurationError {
	return &ConfigurationError{Chain: chain, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	subject := fmt.Sprintf("chain %s", e.Chain)
	if e.Token != nil {
		subject = fmt.Sprintf("token %s", e.Token)
	}
	if e.Cause != nil {
		return fmt.Sprintf("unknown %s: %v", subject, e.Cause)
	}
	return fmt.Sprintf("unknown %s", subject)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// ValidationCode classifies expected validation failures.
type ValidationCode string

const (
	AmountTooSmall        ValidationCode = "AMOUNT_TOO_SMALL"
	AmountTooLarge        ValidationCode = "AMOUNT_TOO_LARGE"
	InvalidAmount         ValidationCode = "INVALID_AMOUNT"
	InsufficientLiquidity ValidationCode = "INSUFFICIENT_LIQUIDITY"
	UnsupportedPair       ValidationCode = "UNSUPPORTED_PAIR"
	InvalidParams         ValidationCode = "INVALID_PARAMS"
	QuoteUnavailable      ValidationCode = "QUOTE_UNAVAILABLE"
)

// ValidationError describes why transfer parameters were rejected by a route.
type ValidationError struct {
	Code    ValidationCode
	Message string
	Cause   error
}

// NewValidationError builds a validation error with a formatted message.
func NewValidationError(code ValidationCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches the underlying error.
func (e *ValidationError) WithCause(err error) *ValidationError {
	e.Cause = err
	return e
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// SubmissionError is returned when a signer or RPC rejects a transaction
// during initiate or complete. Submitted lists the transactions that were
// accepted before the failure; a non-empty list means a partial submission.
// Retrying is the caller's decision.
type SubmissionError struct {
	Chain     types.Chain
	Step      int
	Submitted []types.TransactionID
	Cause     error
}

// IsPartial reports whether some transactions were submitted before the failure.
func (e *SubmissionError) IsPartial() bool {
	return len(e.Submitted) > 0
}

func (e *SubmissionError) Error() string {
	if e.IsPartial() {
		hashes := make([]string, 0, len(e.Submitted))
		for _, tx := range e.Submitted {
			hashes = append(hashes, tx.Hash)
		}
		return fmt.Sprintf("partial submission on %s failed at step %d after [%s]: %v",
			e.Chain, e.Step, strings.Join(hashes, ", "), e.Cause)
	}
	return fmt.Sprintf("submission on %s failed at step %d: %v", e.Chain, e.Step, e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// TrackingError is returned when chain queries keep failing while tracking a transfer.
type TrackingError struct {
	Attempts int
	Cause    error
}

func (e *TrackingError) Error() string {
	return fmt.Sprintf("tracking failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *TrackingError) Unwrap() error { return e.Cause }

// PreconditionError is returned when an operation needs a receipt in a later state.
type PreconditionError struct {
	Required types.TransferState
	Actual   types.TransferState
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("receipt must be at least %s, got %s", e.Required, e.Actual)
}
