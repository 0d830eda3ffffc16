package dbconfig

import (
	"context"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// LoadChainConfigs builds the chain configurations of a network from the
// active catalogue rows, using the preferred active RPC of every chain.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: only chains of this network are returned.
// - privateKeys: signing keys by chain, kept out of the database.
//
// Returns:
// - []types.ChainConfig: the configurations ordered by chain label.
// - error: ErrRPCNotFound if an active chain has no active RPC, or a query error.
func (r *DBConfig) LoadChainConfigs(ctx context.Context, network types.Network, privateKeys map[types.Chain]string) ([]types.ChainConfig, error) {
	chains, err := r.GetChains(ctx, true)
	if err != nil {
		return nil, err
	}

	var configs []types.ChainConfig
	for _, chain := range chains {
		if chain.Network != network {
			continue
		}

		rpcs, err := r.GetRPCsByChain(ctx, chain.Chain, true)
		if err != nil {
			return nil, err
		}
		if len(rpcs) == 0 {
			return nil, errors.Wrapf(ErrRPCNotFound, "%s", chain.Chain)
		}

		symbols, err := r.GetTokenSymbols(ctx, chain.Chain)
		if err != nil {
			return nil, err
		}

		configs = append(configs, types.ChainConfig{
			Name:              chain.Name,
			Chain:             chain.Chain,
			ChainType:         chain.Type,
			Network:           chain.Network,
			ChainID:           chain.ChainID,
			RpcUrl:            rpcs[0].URL,
			TxType:            chain.TxType,
			WaitNBlocks:       chain.WaitNBlocks,
			PrivateKey:        privateKeys[chain.Chain],
			NativeSymbol:      chain.NativeSymbol,
			TokenSymbols:      symbols,
			RequestsPerSecond: chain.RequestsPerSecond,
		})
	}

	return configs, nil
}
