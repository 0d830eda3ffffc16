package routes

import (
	"context"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TransferRequestParams is the user intent a transfer request is created from.
//
// Fields:
// - From: the sender on the source chain.
// - To: the receiver on the destination chain.
// - Source: the token to send.
// - Destination: the token to receive.
type TransferRequestParams struct {
	From        types.ChainAddress
	To          types.ChainAddress
	Source      types.TokenID
	Destination types.TokenID
}

// TransferRequest is an immutable, normalized transfer intent with the token
// metadata snapshot every candidate route validates against.
type TransferRequest struct {
	id          string
	from        types.ChainAddress
	to          types.ChainAddress
	source      types.TokenMeta
	destination types.TokenMeta
	fromChain   types.ChainContext
	toChain     types.ChainContext
}

// NewTransferRequest resolves both chains and fetches source and destination
// token metadata concurrently.
//
// Parameters:
// - ctx: the context for managing the request.
// - provider: resolves chain labels into chain contexts.
// - params: the transfer intent.
//
// Returns:
// - *TransferRequest: the request.
// - error: *errors.ConfigurationError for unknown chains or tokens.
func NewTransferRequest(ctx context.Context, provider types.ChainProvider, params TransferRequestParams) (*TransferRequest, error) {
	if params.From.Chain != params.Source.Chain {
		return nil, commonerrors.UnknownChainError(params.From.Chain,
			errors.Errorf("sender chain %s does not match source token chain %s", params.From.Chain, params.Source.Chain))
	}
	if params.To.Chain != params.Destination.Chain {
		return nil, commonerrors.UnknownChainError(params.To.Chain,
			errors.Errorf("receiver chain %s does not match destination token chain %s", params.To.Chain, params.Destination.Chain))
	}

	fromChain, err := provider.GetChain(params.Source.Chain)
	if err != nil {
		return nil, commonerrors.UnknownChainError(params.Source.Chain, err)
	}
	toChain, err := provider.GetChain(params.Destination.Chain)
	if err != nil {
		return nil, commonerrors.UnknownChainError(params.Destination.Chain, err)
	}

	var source, destination *types.TokenMeta
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta, err := fromChain.TokenMetadata(gctx, params.Source)
		if err != nil {
			return commonerrors.UnknownTokenError(params.Source, err)
		}
		source = meta
		return nil
	})
	g.Go(func() error {
		meta, err := toChain.TokenMetadata(gctx, params.Destination)
		if err != nil {
			return commonerrors.UnknownTokenError(params.Destination, err)
		}
		destination = meta
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TransferRequest{
		id:          uuid.NewString(),
		from:        params.From,
		to:          params.To,
		source:      *source,
		destination: *destination,
		fromChain:   fromChain,
		toChain:     toChain,
	}, nil
}

// ID returns the identifier every receipt of this transfer carries.
func (r *TransferRequest) ID() string { return r.id }

// From returns the sender.
func (r *TransferRequest) From() types.ChainAddress { return r.from }

// To returns the receiver.
func (r *TransferRequest) To() types.ChainAddress { return r.to }

// Source returns the source token metadata.
func (r *TransferRequest) Source() types.TokenMeta { return r.source }

// Destination returns the destination token metadata.
func (r *TransferRequest) Destination() types.TokenMeta { return r.destination }

// FromChain returns the source chain context.
func (r *TransferRequest) FromChain() types.ChainContext { return r.fromChain }

// ToChain returns the destination chain context.
func (r *TransferRequest) ToChain() types.ChainContext { return r.toChain }
