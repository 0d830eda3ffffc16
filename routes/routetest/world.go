package routetest

import (
	"context"
	"testing"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/stretchr/testify/require"
)

// Tokens used by World.
var (
	EthUSDC = types.TokenID{Chain: types.Ethereum, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}
	EthWETH = types.TokenID{Chain: types.Ethereum, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"}
	SolUSDC = types.TokenID{Chain: types.Solana, Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}
	SolWSOL = types.TokenID{Chain: types.Solana, Address: "So11111111111111111111111111111111111111112"}
	// SolWrappedUSDC is Ethereum USDC bridged to Solana.
	SolWrappedUSDC = types.TokenID{Chain: types.Solana, Address: "A9mUU4qviSctJVPJdBJWkb28deg915LYJKrzQ19ji3FM"}
	// SolWrappedETH is Ethereum WETH bridged to Solana.
	SolWrappedETH = types.TokenID{Chain: types.Solana, Address: "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs"}
	// EthWrappedSOL is Solana WSOL bridged to Ethereum.
	EthWrappedSOL = types.TokenID{Chain: types.Ethereum, Address: "0xD31a59c85aE9D8edEFeC411D448f90841571b89c"}
)

// World is an Ethereum and a Solana chain connected by a token bridge and a relayer.
type World struct {
	Eth      *Chain
	Sol      *Chain
	Provider Provider
}

// NewWorld creates the bridged chains. Relayers charge relayerFee base units.
func NewWorld(relayerFee int64) *World {
	eth := NewChain(types.Ethereum)
	eth.AddToken(EthUSDC, 6, "USDC")
	eth.AddToken(EthWETH, 18, "WETH")
	eth.AddToken(EthWrappedSOL, 9, "SOL")
	eth.Bridge = NewTokenBridge(types.Ethereum, EthWETH, EthUSDC, EthWrappedSOL)
	eth.Bridge.Originals[EthWrappedSOL] = SolWSOL
	eth.Bridge.Foreign[SolWSOL] = EthWrappedSOL
	eth.Relayer = NewRelayer(types.Ethereum, relayerFee, EthUSDC, EthWETH)

	sol := NewChain(types.Solana)
	sol.AddToken(types.NativeToken(types.Solana), 9, "SOL")
	sol.AddToken(SolWSOL, 9, "WSOL")
	sol.AddToken(SolUSDC, 6, "USDC")
	sol.AddToken(SolWrappedUSDC, 6, "USDCet")
	sol.AddToken(SolWrappedETH, 8, "WETH")
	sol.Bridge = NewTokenBridge(types.Solana, SolWSOL, SolUSDC, SolWrappedUSDC, SolWrappedETH)
	sol.Bridge.Originals[SolWrappedUSDC] = EthUSDC
	sol.Bridge.Originals[SolWrappedETH] = EthWETH
	sol.Bridge.Foreign[EthUSDC] = SolWrappedUSDC
	sol.Bridge.Foreign[EthWETH] = SolWrappedETH
	sol.Relayer = NewRelayer(types.Solana, relayerFee, SolWrappedUSDC, SolWSOL)

	return &World{Eth: eth, Sol: sol, Provider: NewProvider(eth, sol)}
}

// Chain returns the world chain with the given id.
func (w *World) Chain(id types.Chain) *Chain {
	if id == types.Solana {
		return w.Sol
	}
	return w.Eth
}

// Request creates a transfer request between two world tokens.
func (w *World) Request(t *testing.T, source, destination types.TokenID) *routes.TransferRequest {
	t.Helper()
	req, err := routes.NewTransferRequest(context.Background(), w.Provider, routes.TransferRequestParams{
		From:        types.ChainAddress{Chain: source.Chain, Address: "sender"},
		To:          types.ChainAddress{Chain: destination.Chain, Address: "receiver"},
		Source:      source,
		Destination: destination,
	})
	require.NoError(t, err)
	return req
}

// FinalizeAll marks every transaction signer submitted as finalized on chain.
func (w *World) FinalizeAll(chain types.Chain, signer *Signer) {
	for i := range signer.Sent() {
		w.Chain(chain).SetStatus(Hash(chain, i), types.TxStatusFinalized)
	}
}
