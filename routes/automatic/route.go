package automatic

import (
	"context"
	"math"
	"math/big"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/ClipFinance/route-lib/routes/tokenbridge"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Name is the registry name of the relayed token bridge route.
const Name = "AutomaticTokenBridge"

// DefaultETA is the quoted time until the relayer delivers the transfer.
const DefaultETA = 20 * time.Minute

// Config configures the relayed token bridge route.
//
// Fields:
// - NativeGasAllowed: whether part of the transfer may be converted into destination gas.
// - ETA: the quoted transfer time, DefaultETA if zero.
// - Tracker: tracking options.
// - Logger: the logger.
type Config struct {
	NativeGasAllowed bool
	ETA              time.Duration
	Tracker          routes.TrackerOptions
	Logger           *logrus.Logger
}

// Options are the route-specific transfer options, passed as TransferParams.Options.
// A nil Options requests no native gas.
//
// Fields:
// - NativeGas: the share of the amount left after the relayer fee, in [0,1],
//   converted into native gas on the destination chain.
type Options struct {
	NativeGas float64
}

// validated is what Validate hands to Quote and Initiate.
type validated struct {
	fee       *big.Int
	nativeGas *big.Int
}

// Constructor is the registered form of the relayed token bridge route.
type Constructor struct {
	config Config
	logger *logrus.Logger
}

// NewConstructor creates the relayed token bridge route constructor.
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
	return routes.Meta{Name: Name, Kind: routes.Automatic}
}

// IsProtocolSupported implements routes.Constructor. The relayer delivers
// token bridge transfers, so both protocols must be available.
func (c *Constructor) IsProtocolSupported(chain types.ChainContext) bool {
	return chain.SupportsAutomaticTokenBridge() && chain.SupportsTokenBridge()
}

// SupportedSourceTokens implements routes.Constructor.
func (c *Constructor) SupportedSourceTokens(ctx context.Context, fromChain types.ChainContext) ([]types.TokenID, error) {
	relayer, err := fromChain.AutomaticTokenBridge(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "relayer unavailable on %s", fromChain.Chain())
	}
	return tokenbridge.SourceTokens(ctx, relayer, fromChain.Chain())
}

// SupportedDestinationTokens implements routes.Constructor. When the token
// arrives as the destination's wrapped native asset, the relayer can unwrap
// it, so the native token is listed as well.
func (c *Constructor) SupportedDestinationTokens(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) ([]types.TokenID, error) {
	asset, err := tokenbridge.DestinationAsset(ctx, token, fromChain, toChain)
	if err != nil {
		return nil, err
	}

	bridge, err := toChain.TokenBridge(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "token bridge unavailable on %s", toChain.Chain())
	}
	wrapped, err := bridge.WrappedNative(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get wrapped native of %s", toChain.Chain())
	}

	if asset == wrapped {
		return []types.TokenID{asset, types.NativeToken(toChain.Chain())}, nil
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

// Route moves tokens through the token bridge and lets a relayer redeem them
// on the destination chain for a fee.
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

// Validate implements routes.Route. params.Options must be nil, Options or *Options.
func (r *Route) Validate(ctx context.Context, params routes.TransferParams) routes.ValidationResult {
	source := r.request.Source()
	toChain := r.request.ToChain().Chain()

	amount, baseUnits, verr := routes.ParseAmount(params.Amount, source.Decimals)
	if verr != nil {
		return routes.Invalid(verr)
	}

	opts, verr := r.options(params.Options)
	if verr != nil {
		return routes.Invalid(verr)
	}

	supported, err := r.constructor.SupportedDestinationTokens(ctx, source.Token, r.request.FromChain(), r.request.ToChain())
	if err != nil {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.UnsupportedPair,
			"%s cannot be relayed to %s", source.Token, toChain).WithCause(err))
	}
	if !contains(supported, r.request.Destination().Token) {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.UnsupportedPair,
			"%s cannot be received as %s", source.Token, r.request.Destination().Token))
	}

	relayer, err := r.request.FromChain().AutomaticTokenBridge(ctx)
	if err != nil {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.QuoteUnavailable,
			"relayer unavailable on %s", r.request.FromChain().Chain()).WithCause(err))
	}

	fee, err := relayer.RelayerFee(ctx, toChain, source.Token)
	if err != nil {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.QuoteUnavailable,
			"failed to get relayer fee").WithCause(err))
	}
	if baseUnits.Cmp(fee) <= 0 {
		return routes.Invalid(commonerrors.NewValidationError(commonerrors.AmountTooSmall,
			"amount %s does not cover the relayer fee of %s %s", amount, routes.FromBaseUnits(fee, source.Decimals), source.Symbol))
	}

	remaining := new(big.Int).Sub(baseUnits, fee)
	nativeGas := decimal.NewFromBigInt(remaining, 0).
		Mul(decimal.NewFromFloat(opts.NativeGas)).
		Truncate(0).
		BigInt()

	if nativeGas.Sign() > 0 {
		maxDropoff, err := relayer.MaxNativeGasDropoff(ctx, toChain, source.Token)
		if err != nil {
			return routes.Invalid(commonerrors.NewValidationError(commonerrors.QuoteUnavailable,
				"failed to get maximum native gas dropoff").WithCause(err))
		}
		if nativeGas.Cmp(maxDropoff) > 0 {
			return routes.Invalid(commonerrors.NewValidationError(commonerrors.InsufficientLiquidity,
				"native gas of %s %s exceeds the relayer maximum of %s", routes.FromBaseUnits(nativeGas, source.Decimals),
				source.Symbol, routes.FromBaseUnits(maxDropoff, source.Decimals)))
		}
	}

	return routes.Validated(routes.NewValidatedParams(r, params, amount, baseUnits, validated{
		fee:       fee,
		nativeGas: nativeGas,
	}))
}

func (r *Route) options(raw interface{}) (Options, *commonerrors.ValidationError) {
	var opts Options
	switch o := raw.(type) {
	case nil:
	case Options:
		opts = o
	case *Options:
		if o != nil {
			opts = *o
		}
	default:
		return opts, commonerrors.NewValidationError(commonerrors.InvalidParams, "unexpected options type %T", raw)
	}

	if math.IsNaN(opts.NativeGas) || opts.NativeGas < 0 || opts.NativeGas > 1 {
		return opts, commonerrors.NewValidationError(commonerrors.InvalidParams,
			"native gas share must be between 0 and 1, got %v", opts.NativeGas)
	}
	if opts.NativeGas > 0 && !r.constructor.config.NativeGasAllowed {
		return opts, commonerrors.NewValidationError(commonerrors.InvalidParams, "native gas dropoff is disabled")
	}
	return opts, nil
}

// Quote implements routes.Route.
func (r *Route) Quote(ctx context.Context, params *routes.ValidatedParams) (*routes.Quote, error) {
	values, err := r.unwrap(params)
	if err != nil {
		return nil, err
	}

	source, destination := r.request.Source(), r.request.Destination()
	delivered := new(big.Int).Sub(params.Amount(), values.fee)
	delivered.Sub(delivered, values.nativeGas)
	received := routes.ScaleAmount(delivered, source.Decimals, destination.Decimals)

	quote := &routes.Quote{
		SourceToken:      routes.TokenAmount{Token: source.Token, Amount: params.DecimalAmount()},
		DestinationToken: routes.TokenAmount{Token: destination.Token, Amount: routes.FromBaseUnits(received, destination.Decimals)},
		RelayFee:         &routes.TokenAmount{Token: source.Token, Amount: routes.FromBaseUnits(values.fee, source.Decimals)},
		ETA:              r.constructor.config.ETA,
	}
	if values.nativeGas.Sign() > 0 {
		quote.DestinationNativeGas = &routes.TokenAmount{
			Token:  source.Token,
			Amount: routes.FromBaseUnits(values.nativeGas, source.Decimals),
		}
	}
	return quote, nil
}

// Initiate implements routes.Route.
func (r *Route) Initiate(ctx context.Context, signer types.Signer, params *routes.ValidatedParams) (*types.Receipt, error) {
	values, err := r.unwrap(params)
	if err != nil {
		return nil, err
	}

	relayer, err := r.request.FromChain().AutomaticTokenBridge(ctx)
	if err != nil {
		return nil, routes.BuildError(r.request.FromChain().Chain(), errors.Wrap(err, "relayer unavailable"))
	}

	txs, err := relayer.Transfer(ctx, r.request.From(), r.request.To(), r.request.Source().Token, params.Amount(), values.nativeGas)
	if err != nil {
		return nil, routes.BuildError(r.request.FromChain().Chain(), errors.Wrap(err, "failed to build relayed transfer transactions"))
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
		"route":     Name,
		"transfer":  r.request.ID(),
		"fee":       values.fee.String(),
		"nativeGas": values.nativeGas.String(),
	}).Info("Relayed transfer initiated")

	return routes.NewReceipt(r, submitted), nil
}

// Track implements routes.Route.
func (r *Route) Track(ctx context.Context, receipt *types.Receipt, timeout time.Duration) *routes.Tracker {
	return routes.NewTracker(ctx, Name, receipt, timeout, r.poll, r.constructor.config.Tracker)
}

func (r *Route) poll(ctx context.Context, receipt *types.Receipt) (*types.Receipt, error) {
	toChain := r.request.ToChain()

	switch receipt.State {
	case types.Attested:
		relayer, err := toChain.AutomaticTokenBridge(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "relayer unavailable on %s", toChain.Chain())
		}
		hash, err := relayer.RedeemTransaction(ctx, receipt.Attestation)
		if err != nil {
			return nil, errors.Wrap(err, "failed to look up relayer redeem transaction")
		}
		if hash == "" {
			return receipt, nil
		}
		return receipt.WithDestinationTxs(types.DestinationInitiated, types.TransactionID{Chain: toChain.Chain(), Hash: hash}), nil

	case types.DestinationInitiated:
		final, err := routes.AllFinalized(ctx, toChain, receipt.DestinationTxs)
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

func (r *Route) unwrap(params *routes.ValidatedParams) (validated, error) {
	raw, err := params.Unwrap(r)
	if err != nil {
		return validated{}, err
	}
	values, ok := raw.(validated)
	if !ok {
		return validated{}, commonerrors.ErrForeignParams
	}
	return values, nil
}

func contains(tokens []types.TokenID, token types.TokenID) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
