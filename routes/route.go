package routes

import (
	"context"
	"math/big"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of route variants.
type Kind int

const (
	// Manual routes require the receiver to submit a completion transaction after attestation.
	Manual Kind = iota
	// Automatic routes are completed by a relayer.
	Automatic
)

func (k Kind) String() string {
	switch k {
	case Manual:
		return "MANUAL"
	case Automatic:
		return "AUTOMATIC"
	default:
		return "UNKNOWN"
	}
}

// Meta describes a route variant. Name is the registry identity.
type Meta struct {
	Name string
	Kind Kind
}

// Constructor is the registered form of a route variant. It declares the
// variant's capabilities and binds instances to transfer requests.
type Constructor interface {
	// Meta returns the variant's name and kind.
	Meta() Meta

	// IsProtocolSupported reports whether the chain offers the protocol the variant needs.
	// It is local and cheap.
	IsProtocolSupported(chain types.ChainContext) bool

	// SupportedSourceTokens lists the tokens the variant can send from fromChain.
	SupportedSourceTokens(ctx context.Context, fromChain types.ChainContext) ([]types.TokenID, error)

	// SupportedDestinationTokens lists the tokens token can be received as on toChain.
	SupportedDestinationTokens(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) ([]types.TokenID, error)

	// New binds a route instance to the request.
	New(request *TransferRequest) (Route, error)
}

// Route is a strategy for moving the token of one transfer request to its destination.
type Route interface {
	// Meta returns the variant's name and kind.
	Meta() Meta

	// Request returns the transfer request the route is bound to.
	Request() *TransferRequest

	// IsSupported reports whether the request's source and destination tokens are
	// inside the variant's declared capability set.
	IsSupported(ctx context.Context) (bool, error)

	// Validate parses user-facing parameters. Expected domain failures are
	// reported in the result, never as a Go error. Validate never mutates chain state.
	Validate(ctx context.Context, params TransferParams) ValidationResult

	// Quote estimates the received amount, fees and time. The estimate may be stale by the time of Initiate.
	Quote(ctx context.Context, params *ValidatedParams) (*Quote, error)

	// Initiate submits the source-chain transactions and returns the first receipt.
	// Signer and RPC failures are returned as *errors.SubmissionError.
	Initiate(ctx context.Context, signer types.Signer, params *ValidatedParams) (*types.Receipt, error)

	// Track returns a sequence of receipts advancing receipt. The sequence ends on
	// a terminal state, after timeout, or on persistent failure. Calling Track again
	// with the last yielded receipt resumes tracking.
	Track(ctx context.Context, receipt *types.Receipt, timeout time.Duration) *Tracker
}

// ManualRoute is a route whose transfers are finished by the receiver.
type ManualRoute interface {
	Route

	// Complete submits the destination-side transactions for an attested receipt
	// and returns their ids. It fails with *errors.PreconditionError if the receipt
	// is not attested.
	Complete(ctx context.Context, signer types.Signer, receipt *types.Receipt) ([]types.TransactionID, error)
}

// IsManual returns the route as a ManualRoute if it is one.
func IsManual(r Route) (ManualRoute, bool) {
	if r.Meta().Kind != Manual {
		return nil, false
	}
	m, ok := r.(ManualRoute)
	return m, ok
}

// IsAutomatic reports whether the route is completed by a relayer.
func IsAutomatic(r Route) bool {
	return r.Meta().Kind == Automatic
}

// TransferParams are the user-facing transfer parameters.
//
// Fields:
// - Amount: decimal amount of the source token, e.g. "0.25".
// - Options: variant-specific options; each route documents the type it accepts.
type TransferParams struct {
	Amount  string
	Options interface{}
}

// ValidatedParams is the output of a successful Validate. It is bound to the
// route instance that produced it and cannot be consumed by any other route.
type ValidatedParams struct {
	owner   Route
	raw     TransferParams
	amount  *big.Int
	decimal decimal.Decimal
	values  interface{}
}

// NewValidatedParams is called by route implementations from Validate.
func NewValidatedParams(owner Route, raw TransferParams, amount decimal.Decimal, baseUnits *big.Int, values interface{}) *ValidatedParams {
	return &ValidatedParams{
		owner:   owner,
		raw:     raw,
		amount:  new(big.Int).Set(baseUnits),
		decimal: amount,
		values:  values,
	}
}

// Raw returns the parameters as given by the user.
func (p *ValidatedParams) Raw() TransferParams { return p.raw }

// Amount returns the validated amount in source token base units.
func (p *ValidatedParams) Amount() *big.Int { return new(big.Int).Set(p.amount) }

// DecimalAmount returns the validated amount in whole source token units.
func (p *ValidatedParams) DecimalAmount() decimal.Decimal { return p.decimal }

// Unwrap returns the route-internal values if owner produced the params.
func (p *ValidatedParams) Unwrap(owner Route) (interface{}, error) {
	if p == nil || p.owner != owner {
		return nil, commonerrors.ErrForeignParams
	}
	return p.values, nil
}

// ValidationResult is either valid with params or invalid with an error.
type ValidationResult struct {
	Valid  bool
	Params *ValidatedParams
	Error  *commonerrors.ValidationError
}

// Validated builds a successful result.
func Validated(params *ValidatedParams) ValidationResult {
	return ValidationResult{Valid: true, Params: params}
}

// Invalid builds a failed result.
func Invalid(err *commonerrors.ValidationError) ValidationResult {
	return ValidationResult{Valid: false, Error: err}
}

// TokenAmount is an amount of a specific token.
type TokenAmount struct {
	Token  types.TokenID
	Amount decimal.Decimal
}

// Quote is a read-only estimate of a transfer.
type Quote struct {
	SourceToken          TokenAmount
	DestinationToken     TokenAmount
	RelayFee             *TokenAmount
	DestinationNativeGas *TokenAmount
	ETA                  time.Duration
	Warnings             []string
}
