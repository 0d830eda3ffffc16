package routetest

import (
	"context"
	"time"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
)

// Constructor is a configurable route variant with static capabilities.
type Constructor struct {
	Name         string
	Kind         routes.Kind
	Protocol     func(chain types.ChainContext) bool
	Sources      []types.TokenID
	Destinations []types.TokenID
	SourceErr    error
	DestErr      error
	ETA          time.Duration
	Received     string
}

// Meta implements routes.Constructor.
func (c *Constructor) Meta() routes.Meta { return routes.Meta{Name: c.Name, Kind: c.Kind} }

// IsProtocolSupported implements routes.Constructor; a nil Protocol supports every chain.
func (c *Constructor) IsProtocolSupported(chain types.ChainContext) bool {
	if c.Protocol == nil {
		return true
	}
	return c.Protocol(chain)
}

// SupportedSourceTokens implements routes.Constructor.
func (c *Constructor) SupportedSourceTokens(ctx context.Context, fromChain types.ChainContext) ([]types.TokenID, error) {
	if c.SourceErr != nil {
		return nil, c.SourceErr
	}
	return filter(c.Sources, fromChain.Chain()), nil
}

// SupportedDestinationTokens implements routes.Constructor.
func (c *Constructor) SupportedDestinationTokens(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) ([]types.TokenID, error) {
	if c.DestErr != nil {
		return nil, c.DestErr
	}
	return filter(c.Destinations, toChain.Chain()), nil
}

// New implements routes.Constructor.
func (c *Constructor) New(request *routes.TransferRequest) (routes.Route, error) {
	return &Route{constructor: c, request: request}, nil
}

// Route is the route bound by Constructor. Validate accepts every amount and
// Quote returns the constructor's ETA and received amount.
type Route struct {
	constructor *Constructor
	request     *routes.TransferRequest
}

func (r *Route) Meta() routes.Meta { return r.constructor.Meta() }

func (r *Route) Request() *routes.TransferRequest { return r.request }

func (r *Route) IsSupported(ctx context.Context) (bool, error) {
	return routes.CheckSupported(ctx, r.constructor, r.request)
}

func (r *Route) Validate(ctx context.Context, params routes.TransferParams) routes.ValidationResult {
	amount, base, verr := routes.ParseAmount(params.Amount, r.request.Source().Decimals)
	if verr != nil {
		return routes.Invalid(verr)
	}
	return routes.Validated(routes.NewValidatedParams(r, params, amount, base, nil))
}

func (r *Route) Quote(ctx context.Context, params *routes.ValidatedParams) (*routes.Quote, error) {
	if _, err := params.Unwrap(r); err != nil {
		return nil, err
	}
	received, _, verr := routes.ParseAmount(r.constructor.Received, r.request.Destination().Decimals)
	if verr != nil {
		return nil, verr
	}
	return &routes.Quote{
		SourceToken:      routes.TokenAmount{Token: r.request.Source().Token, Amount: params.DecimalAmount()},
		DestinationToken: routes.TokenAmount{Token: r.request.Destination().Token, Amount: received},
		ETA:              r.constructor.ETA,
	}, nil
}

func (r *Route) Initiate(ctx context.Context, signer types.Signer, params *routes.ValidatedParams) (*types.Receipt, error) {
	return routes.NewReceipt(r, []types.TransactionID{{Chain: signer.Chain(), Hash: "stub"}}), nil
}

func (r *Route) Track(ctx context.Context, receipt *types.Receipt, timeout time.Duration) *routes.Tracker {
	return routes.NewTracker(ctx, r.constructor.Name, receipt, timeout, func(ctx context.Context, receipt *types.Receipt) (*types.Receipt, error) {
		return routes.AdvanceSource(ctx, r.request.FromChain(), receipt)
	}, routes.TrackerOptions{PollInterval: time.Millisecond})
}

func filter(tokens []types.TokenID, chain types.Chain) []types.TokenID {
	out := make([]types.TokenID, 0, len(tokens))
	for _, t := range tokens {
		if t.Chain == chain {
			out = append(out, t)
		}
	}
	return out
}
