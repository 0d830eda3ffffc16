package types

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownChain is returned by ParseChain for labels outside the supported set.
var ErrUnknownChain = errors.New("unknown chain")

// Chain is the unique label of a blockchain network.
// The set is closed: every value maps to exactly one ChainType.
type Chain string

const (
	Ethereum    Chain = "Ethereum"
	Sepolia     Chain = "Sepolia"
	Avalanche   Chain = "Avalanche"
	Base        Chain = "Base"
	BaseSepolia Chain = "BaseSepolia"
	Solana      Chain = "Solana"
)

var chainPlatforms = map[Chain]ChainType{
	Ethereum:    EVM,
	Sepolia:     EVM,
	Avalanche:   EVM,
	Base:        EVM,
	BaseSepolia: EVM,
	Solana:      SOLANA,
}

// Chains returns every supported chain label.
func Chains() []Chain {
	return []Chain{Ethereum, Sepolia, Avalanche, Base, BaseSepolia, Solana}
}

// String converts Chain to string representation.
func (c Chain) String() string {
	return string(c)
}

// Platform returns the virtual machine family of the chain.
func (c Chain) Platform() ChainType {
	if p, ok := chainPlatforms[c]; ok {
		return p
	}
	return UNKNOWN
}

// IsValid reports whether c is one of the supported chains.
func (c Chain) IsValid() bool {
	_, ok := chainPlatforms[c]
	return ok
}

// ParseChain converts a case-insensitive chain label into a Chain.
func ParseChain(s string) (Chain, error) {
	for c := range chainPlatforms {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownChain, "%q", s)
}

// Network distinguishes deployments of the same chain family.
type Network string

const (
	Mainnet Network = "Mainnet"
	Testnet Network = "Testnet"
	Devnet  Network = "Devnet"
)

// ChainConfig holds the configuration for a specific chain implementation.
//
// Fields:
// - Name: the name of the chain, used in logs.
// - Chain: the chain label.
// - ChainType: the type of the chain.
// - Network: the network the chain belongs to.
// - ChainID: the numeric chain id (EVM only).
// - RpcUrl: the URL for the chain's RPC endpoint.
// - TxType: the type of transactions supported by the chain.
// - WaitNBlocks: the number of blocks to wait for transaction finality.
// - PrivateKey: the private key for signing transactions, optional.
// - NativeSymbol: the symbol of the native asset.
// - TokenSymbols: symbol overrides keyed by token address.
// - RequestsPerSecond: RPC request budget, zero means unlimited.
type ChainConfig struct {
	Name              string            `yaml:"name" validate:"required"`
	Chain             Chain             `yaml:"chain" validate:"required"`
	ChainType         ChainType         `yaml:"chainType" validate:"required,oneof=EVM SOLANA"`
	Network           Network           `yaml:"network" validate:"required,oneof=Mainnet Testnet Devnet"`
	ChainID           uint64            `yaml:"chainId" validate:"required_if=ChainType EVM"`
	RpcUrl            string            `yaml:"rpcUrl" validate:"required,url"`
	TxType            uint64            `yaml:"txType"`
	WaitNBlocks       uint64            `yaml:"waitNBlocks"`
	PrivateKey        string            `yaml:"privateKey"`
	NativeSymbol      string            `yaml:"nativeSymbol"`
	TokenSymbols      map[string]string `yaml:"tokenSymbols"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond" validate:"gte=0"`
}

// ChainQuery provides read-only access to chain state.
// Implementations must be idempotent and safe to retry.
type ChainQuery interface {
	// Chain returns the chain this query capability is bound to.
	Chain() Chain

	// Network returns the network of the chain.
	Network() Network

	// TokenMetadata fetches decimals and symbol of a token living on this chain.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - token: the token to describe, possibly the native sentinel.
	//
	// Returns:
	// - *TokenMeta: the token metadata.
	// - error: an error if the token cannot be resolved on this chain.
	TokenMetadata(ctx context.Context, token TokenID) (*TokenMeta, error)

	// TransactionStatus reports the finality status of a transaction.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - hash: the transaction hash or signature.
	//
	// Returns:
	// - TxStatus: the observed status.
	// - error: an error if the chain could not be queried.
	TransactionStatus(ctx context.Context, hash string) (TxStatus, error)
}

// ChainContext combines the chain query capability with the optional bridge
// protocol capabilities of a chain. Missing capabilities return ErrNotImplemented.
type ChainContext interface {
	ChainQuery
	AttestationProvider

	// TokenBridge returns the manual token bridge protocol of the chain.
	TokenBridge(ctx context.Context) (TokenBridge, error)

	// AutomaticTokenBridge returns the relayed token bridge protocol of the chain.
	AutomaticTokenBridge(ctx context.Context) (AutomaticTokenBridge, error)

	// SupportsTokenBridge reports whether a manual token bridge is configured.
	SupportsTokenBridge() bool

	// SupportsAutomaticTokenBridge reports whether a relayed token bridge is configured.
	SupportsAutomaticTokenBridge() bool
}

// ChainProvider resolves chain labels into chain contexts.
type ChainProvider interface {
	// GetChain returns the context of the given chain or an error if it is not registered.
	GetChain(chain Chain) (ChainContext, error)
}
