package tokenbridge

import (
	"context"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Name is the registry name of the manual token bridge route.
const Name = "ManualTokenBridge"

// DefaultETA is the quoted time until the transfer can be completed.
const DefaultETA = 15 * time.Minute

// Config configures the manual token bridge route.
//
// Fields:
// - MinAmount: smallest accepted amount in whole source token units. Zero disables the check.
// - ETA: the quoted transfer time, DefaultETA if zero.
// - Tracker: tracking options; StopWhen is always set by the route.
// - Logger: the logger.
type Config struct {
	MinAmount decimal.Decimal
	ETA       time.Duration
	Tracker   routes.TrackerOptions
	Logger    *logrus.Logger
}

// Constructor is the registered form of the manual token bridge route.
type Constructor struct {
	config Config
	logger *logrus.Logger
}

// NewConstructor creates the manual token bridge route constructor.
func NewConstructor(config Config) *Constructor {
	if config.ETA <= 0 {
		config.ETA = DefaultETA
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Tracker.Logger == nil {
		config.Tracker.Logger = logger
	}
	return &Constructor{config: config, logger: logger}
}

// Meta implements routes.Constructor.
func (c *Constructor) Meta() routes.Meta {
	return routes.Meta{Name: Name, Kind: routes.Manual}
}

// IsProtocolSupported implements routes.Constructor.
func (c *Constructor) IsProtocolSupported(chain types.ChainContext) bool {
	return chain.SupportsTokenBridge()
}

// SupportedSourceTokens implements routes.Constructor.
func (c *Constructor) SupportedSourceTokens(ctx context.Context, fromChain types.ChainContext) ([]types.TokenID, error) {
	bridge, err := fromChain.TokenBridge(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "token bridge unavailable on %s", fromChain.Chain())
	}
	return SourceTokens(ctx, bridge, fromChain.Chain())
}

// SupportedDestinationTokens implements routes.Constructor.
func (c *Constructor) SupportedDestinationTokens(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) ([]types.TokenID, error) {
	asset, err := DestinationAsset(ctx, token, fromChain, toChain)
	if err != nil {
		return nil, err
	}
	return []types.TokenID{asset}, nil
}

// New implements routes.Constructor.
func (c *Constructor) New(request *routes.TransferRequest) (routes.Route, error) {
	if request == nil {
		return nil, errors.Wrap(commonerrors.ErrInvalidRoute, "transfer request is nil")
	}
	return &Route{constructor: c, request: request}, nil
}

// Route moves tokens through the token bridge. The receiver redeems the
// attestation on the destination chain with Complete.
type Route struct {
	constructor *Constructor
	request     *routes.TransferRequest
}

// Meta implements routes.Route.
func (r *Route) Meta() routes.Meta { return r.constructor.Meta() }

// Request implements routes.Route.
func (r *Route) Request() *routes.TransferRequest { return r.request }

// IsSupported implements routes.Route.
func (r *Route) IsSupported(ctx context.Context) (bool, error) {
	return routes.CheckSupported(ctx, r.constructor, r.request)
}

// Validate implements routes.Route. Options are ignored.
func (r *Route) Validate(ctx context.Context, params routes.TransferParams) routes.ValidationResult {
	source := r.request.Source()
	amount, baseUnits, verr := routes.ParseAmount(params.Amount, source.Decimals)
	if verr != nil {
		return routes.Invalid(verr)
	}

	if minAmount := r.constructor.config.MinAmount; minAmount.IsPositive() && amount.LessThan(minAmount) {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.AmountTooSmall,
			"amount %s is below the minimum of %s %s", amount, minAmount, source.Symbol))
	}

	destination, err := DestinationAsset(ctx, source.Token, r.request.FromChain(), r.request.ToChain())
	if err != nil {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.UnsupportedPair,
			"%s cannot be bridged to %s", source.Token, r.request.ToChain().Chain()).WithCause(err))
	}
	if destination != r.request.Destination().Token {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.UnsupportedPair,
			"%s arrives as %s, not %s", source.Token, destination, r.request.Destination().Token))
	}

	return routes.Validated(routes.NewValidatedParams(r, params, amount, baseUnits, nil))
}

// Quote implements routes.Route.
func (r *Route) Quote(ctx context.Context, params *routes.ValidatedParams) (*routes.Quote, error) {
	if _, err := params.Unwrap(r); err != nil {
		return nil, err
	}

	source, destination := r.request.Source(), r.request.Destination()
	received := routes.ScaleAmount(params.Amount(), source.Decimals, destination.Decimals)

	return &routes.Quote{
		SourceToken:      routes.TokenAmount{Token: source.Token, Amount: params.DecimalAmount()},
		DestinationToken: routes.TokenAmount{Token: destination.Token, Amount: routes.FromBaseUnits(received, destination.Decimals)},
		ETA:              r.constructor.config.ETA,
		Warnings:         []string{"the receiver must complete the transfer on the destination chain"},
	}, nil
}

// Initiate implements routes.Route.
func (r *Route) Initiate(ctx context.Context, signer types.Signer, params *routes.ValidatedParams) (*types.Receipt, error) {
	if _, err := params.Unwrap(r); err != nil {
		return nil, err
	}

	bridge, err := r.request.FromChain().TokenBridge(ctx)
	if err != nil {
		return nil, routes.BuildError(r.request.FromChain().Chain(), errors.Wrap(err, "token bridge unavailable"))
	}

	txs, err := bridge.Transfer(ctx, r.request.From(), r.request.To(), r.request.Source().Token, params.Amount())
	if err != nil {
		return nil, routes.BuildError(r.request.FromChain().Chain(), errors.Wrap(err, "failed to build transfer transactions"))
	}

	submitted, err := routes.SubmitAll(ctx, signer, txs)
	if err != nil {
		r.constructor.logger.WithFields(logrus.Fields{
			"route":    Name,
			"transfer": r.request.ID(),
		}).WithError(err).Error("Failed to submit transfer")
		return nil, err
	}

	r.constructor.logger.WithFields(logrus.Fields{
		"route":    Name,
		"transfer": r.request.ID(),
		"txs":      len(submitted),
	}).Info("Transfer initiated")

	return routes.NewReceipt(r, submitted), nil
}

// Track implements routes.Route. Tracking pauses at Attested until the
// transfer is completed, unless the attestation was already redeemed.
func (r *Route) Track(ctx context.Context, receipt *types.Receipt, timeout time.Duration) *routes.Tracker {
	opts := r.constructor.config.Tracker
	opts.StopWhen = func(receipt *types.Receipt) bool {
		return receipt.State == types.Attested
	}
	return routes.NewTracker(ctx, Name, receipt, timeout, r.poll, opts)
}

func (r *Route) poll(ctx context.Context, receipt *types.Receipt) (*types.Receipt, error) {
	switch receipt.State {
	case types.Attested:
		bridge, err := r.request.ToChain().TokenBridge(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "token bridge unavailable on %s", r.request.ToChain().Chain())
		}
		done, err := bridge.IsTransferCompleted(ctx, receipt.Attestation)
		if err != nil {
			return nil, errors.Wrap(err, "failed to check redemption")
		}
		if done {
			return receipt.WithState(types.DestinationFinalized), nil
		}
		return receipt, nil

	case types.DestinationInitiated:
		final, err := routes.AllFinalized(ctx, r.request.ToChain(), receipt.DestinationTxs)
		if err != nil {
			return nil, err
		}
		if final {
			return receipt.WithState(types.DestinationFinalized), nil
		}
		return receipt, nil
	}

	return routes.AdvanceSource(ctx, r.request.FromChain(), receipt)
}

// Complete implements routes.ManualRoute. The returned transactions are
// submitted on the destination chain; Receipt.Completed records them.
func (r *Route) Complete(ctx context.Context, signer types.Signer, receipt *types.Receipt) ([]types.TransactionID, error) {
	if err := routes.RequireState(receipt, types.Attested); err != nil {
		return nil, err
	}
	if err := routes.RequireOwnReceipt(r, receipt); err != nil {
		return nil, err
	}

	bridge, err := r.request.ToChain().TokenBridge(ctx)
	if err != nil {
		return nil, routes.BuildError(r.request.ToChain().Chain(), errors.Wrap(err, "token bridge unavailable"))
	}

	txs, err := bridge.Redeem(ctx, r.request.To(), receipt.Attestation)
	if err != nil {
		return nil, routes.BuildError(r.request.ToChain().Chain(), errors.Wrap(err, "failed to build redeem transactions"))
	}

	submitted, err := routes.SubmitAll(ctx, signer, txs)
	if err != nil {
		return nil, err
	}

	r.constructor.logger.WithFields(logrus.Fields{
		"route":       Name,
		"transfer":    receipt.ID,
		"attestation": receipt.Attestation.ID,
	}).Info("Transfer completed")

	return submitted, nil
}
