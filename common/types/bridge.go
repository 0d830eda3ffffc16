package types

import (
	"context"
	"fmt"
	"math/big"
)

// AttestationID locates an attestation produced by the bridging layer.
//
// Fields:
// - Chain: the chain that emitted the bridged message.
// - Emitter: the emitter (bridge contract/program) address.
// - Sequence: the emitter's message sequence number.
type AttestationID struct {
	Chain    Chain
	Emitter  string
	Sequence uint64
}

// String returns "chain/emitter/sequence".
func (a AttestationID) String() string {
	return fmt.Sprintf("%s/%s/%d", a.Chain, a.Emitter, a.Sequence)
}

// Attestation is verifiable evidence that a source-chain transfer happened,
// consumable by the destination chain.
type Attestation struct {
	ID      AttestationID
	Payload []byte
}

// AttestationProvider looks up attestations for source-chain transactions.
type AttestationProvider interface {
	// FetchAttestation returns the attestation for a source transaction.
	// It returns ErrAttestationNotFound while the bridging layer has not produced one.
	FetchAttestation(ctx context.Context, tx TransactionID) (*Attestation, error)
}

// TokenBridge is the manual bridge protocol of one chain. Transfers locked
// here must be redeemed by the receiver on the destination chain.
type TokenBridge interface {
	// SupportedTokens lists the non-native tokens the bridge accepts on this chain.
	SupportedTokens(ctx context.Context) ([]TokenID, error)

	// OriginalAsset returns the canonical asset a token represents.
	// For a token native to this chain it returns the token itself.
	OriginalAsset(ctx context.Context, token TokenID) (TokenID, error)

	// ForeignAsset returns the representation of an original asset on this chain.
	// If the asset originates on this chain, the asset itself is returned.
	ForeignAsset(ctx context.Context, original TokenID) (TokenID, error)

	// WrappedNative returns the wrapped form of this chain's native asset.
	WrappedNative(ctx context.Context) (TokenID, error)

	// Transfer builds the source transactions locking amount of token for recipient.
	Transfer(ctx context.Context, sender, recipient ChainAddress, token TokenID, amount *big.Int) ([]UnsignedTransaction, error)

	// Redeem builds the destination transactions consuming an attestation.
	Redeem(ctx context.Context, sender ChainAddress, attestation *Attestation) ([]UnsignedTransaction, error)

	// IsTransferCompleted reports whether the attestation was already redeemed on this chain.
	IsTransferCompleted(ctx context.Context, attestation *Attestation) (bool, error)
}

// AutomaticTokenBridge is the relayed bridge protocol of one chain. A relayer
// redeems on the destination chain in exchange for a fee.
type AutomaticTokenBridge interface {
	// SupportedTokens lists the non-native tokens the relayer accepts on this chain.
	SupportedTokens(ctx context.Context) ([]TokenID, error)

	// RelayerFee returns the fee, in base units of token, charged to deliver to destination.
	RelayerFee(ctx context.Context, destination Chain, token TokenID) (*big.Int, error)

	// MaxNativeGasDropoff returns the largest amount of token that can be swapped into
	// destination native gas.
	MaxNativeGasDropoff(ctx context.Context, destination Chain, token TokenID) (*big.Int, error)

	// Transfer builds the source transactions for a relayed transfer.
	Transfer(ctx context.Context, sender, recipient ChainAddress, token TokenID, amount, nativeGas *big.Int) ([]UnsignedTransaction, error)

	// RedeemTransaction returns the hash of the relayer's redeem transaction on this
	// chain, or an empty string if the attestation was not delivered yet.
	RedeemTransaction(ctx context.Context, attestation *Attestation) (string, error)
}
