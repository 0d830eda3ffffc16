package chainmanager

import (
	"context"
	"sync"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// Chain implements types.ChainContext on top of a platform adapter.
// Bridge protocols are optional; each is protected by a read-write mutex so
// it can be swapped while routes are resolving.
type Chain struct {
	platform types.PlatformChain // Platform adapter answering chain queries.

	bridge       types.TokenBridge          // Manual token bridge, optional.
	automatic    types.AutomaticTokenBridge // Relayed token bridge, optional.
	attestations types.AttestationProvider  // Attestation provider, optional.

	// Mutexes for thread-safe access to dependencies.
	bridgeMutex       sync.RWMutex // Mutex for token bridge.
	automaticMutex    sync.RWMutex // Mutex for automatic token bridge.
	attestationsMutex sync.RWMutex // Mutex for attestation provider.
}

// NewChain creates a new Chain instance.
//
// Parameters:
// - platform: the platform adapter.
// - bridge: the manual token bridge, may be nil.
// - automatic: the relayed token bridge, may be nil.
// - attestations: the attestation provider, may be nil.
//
// Returns:
// - *Chain: a new Chain instance.
func NewChain(
	platform types.PlatformChain,
	bridge types.TokenBridge,
	automatic types.AutomaticTokenBridge,
	attestations types.AttestationProvider,
) *Chain {
	return &Chain{
		platform:     platform,
		bridge:       bridge,
		automatic:    automatic,
		attestations: attestations,
	}
}

// Chain returns the chain label.
func (c *Chain) Chain() types.Chain { return c.platform.Chain() }

// Network returns the network of the chain.
func (c *Chain) Network() types.Network { return c.platform.Network() }

// Config returns chain configuration.
func (c *Chain) Config() *types.ChainConfig { return c.platform.Config() }

// Signer returns the signer of the configured account.
func (c *Chain) Signer() (types.Signer, error) { return c.platform.Signer() }

// Platform returns the underlying platform adapter.
func (c *Chain) Platform() types.PlatformChain { return c.platform }

// TokenMetadata fetches decimals and symbol of a token from the platform adapter.
func (c *Chain) TokenMetadata(ctx context.Context, token types.TokenID) (*types.TokenMeta, error) {
	return c.platform.TokenMetadata(ctx, token)
}

// TransactionStatus reports the finality of a transaction from the platform adapter.
func (c *Chain) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	return c.platform.TransactionStatus(ctx, hash)
}

// FetchAttestation looks up the attestation of a source transaction.
// If no attestation provider is configured, it returns ErrNotImplemented.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the source transaction.
//
// Returns:
// - *types.Attestation: the attestation.
// - error: ErrNotImplemented, ErrAttestationNotFound or a provider error.
func (c *Chain) FetchAttestation(ctx context.Context, tx types.TransactionID) (*types.Attestation, error) {
	c.attestationsMutex.RLock()
	provider := c.attestations
	c.attestationsMutex.RUnlock()

	if provider == nil {
		return nil, errors.Wrapf(commonerrors.ErrNotImplemented, "no attestation provider on %s", c.Chain())
	}
	return provider.FetchAttestation(ctx, tx)
}

// TokenBridge returns the manual token bridge protocol of the chain.
func (c *Chain) TokenBridge(ctx context.Context) (types.TokenBridge, error) {
	c.bridgeMutex.RLock()
	defer c.bridgeMutex.RUnlock()

	if c.bridge == nil {
		return nil, errors.Wrapf(commonerrors.ErrNotImplemented, "no token bridge on %s", c.Chain())
	}
	return c.bridge, nil
}

// AutomaticTokenBridge returns the relayed token bridge protocol of the chain.
func (c *Chain) AutomaticTokenBridge(ctx context.Context) (types.AutomaticTokenBridge, error) {
	c.automaticMutex.RLock()
	defer c.automaticMutex.RUnlock()

	if c.automatic == nil {
		return nil, errors.Wrapf(commonerrors.ErrNotImplemented, "no automatic token bridge on %s", c.Chain())
	}
	return c.automatic, nil
}

// SupportsTokenBridge reports whether a manual token bridge is configured.
func (c *Chain) SupportsTokenBridge() bool {
	c.bridgeMutex.RLock()
	defer c.bridgeMutex.RUnlock()
	return c.bridge != nil
}

// SupportsAutomaticTokenBridge reports whether a relayed token bridge is configured.
func (c *Chain) SupportsAutomaticTokenBridge() bool {
	c.automaticMutex.RLock()
	defer c.automaticMutex.RUnlock()
	return c.automatic != nil
}

// SetTokenBridge replaces the manual token bridge; nil removes it.
func (c *Chain) SetTokenBridge(bridge types.TokenBridge) {
	c.bridgeMutex.Lock()
	c.bridge = bridge
	c.bridgeMutex.Unlock()
}

// SetAutomaticTokenBridge replaces the relayed token bridge; nil removes it.
func (c *Chain) SetAutomaticTokenBridge(automatic types.AutomaticTokenBridge) {
	c.automaticMutex.Lock()
	c.automatic = automatic
	c.automaticMutex.Unlock()
}

// SetAttestationProvider replaces the attestation provider; nil removes it.
func (c *Chain) SetAttestationProvider(provider types.AttestationProvider) {
	c.attestationsMutex.Lock()
	c.attestations = provider
	c.attestationsMutex.Unlock()
}

// Close releases the platform adapter.
func (c *Chain) Close() {
	c.platform.Close()
}
