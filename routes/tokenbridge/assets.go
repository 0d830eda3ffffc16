package tokenbridge

import (
	"context"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// SourceTokens returns the native token of the chain followed by the tokens its bridge accepts.
func SourceTokens(ctx context.Context, bridge interface {
	SupportedTokens(ctx context.Context) ([]types.TokenID, error)
}, chain types.Chain) ([]types.TokenID, error) {
	tokens, err := bridge.SupportedTokens(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bridge tokens")
	}
	out := make([]types.TokenID, 0, len(tokens)+1)
	out = append(out, types.NativeToken(chain))
	for _, t := range tokens {
		if !t.IsNative() {
			out = append(out, t)
		}
	}
	return out, nil
}

// DestinationAsset returns the token a transfer of token from fromChain arrives
// as on toChain: the native asset is bridged as its wrapped form, the wrapped
// form is resolved to the original asset, and the original asset is looked up
// on the destination bridge.
//
// Parameters:
// - ctx: the context for managing the request.
// - token: the source token.
// - fromChain: the source chain, must offer a TokenBridge.
// - toChain: the destination chain, must offer a TokenBridge.
//
// Returns:
// - types.TokenID: the destination representation.
// - error: an error if either bridge cannot resolve the asset.
func DestinationAsset(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) (types.TokenID, error) {
	fromBridge, err := fromChain.TokenBridge(ctx)
	if err != nil {
		return types.TokenID{}, errors.Wrapf(err, "token bridge unavailable on %s", fromChain.Chain())
	}
	toBridge, err := toChain.TokenBridge(ctx)
	if err != nil {
		return types.TokenID{}, errors.Wrapf(err, "token bridge unavailable on %s", toChain.Chain())
	}

	if token.IsNative() {
		token, err = fromBridge.WrappedNative(ctx)
		if err != nil {
			return types.TokenID{}, errors.Wrapf(err, "failed to get wrapped native of %s", fromChain.Chain())
		}
	}

	original, err := fromBridge.OriginalAsset(ctx, token)
	if err != nil {
		return types.TokenID{}, errors.Wrapf(err, "failed to get original asset of %s", token)
	}

	foreign, err := toBridge.ForeignAsset(ctx, original)
	if err != nil {
		return types.TokenID{}, errors.Wrapf(err, "failed to get %s representation on %s", original, toChain.Chain())
	}
	return foreign, nil
}
