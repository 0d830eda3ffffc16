package chainmanager

import (
	"github.com/ClipFinance/route-lib/common/types"
)

// ChainBuilder is a builder pattern implementation for chain composition.
// It attaches the optional bridge protocols to a platform adapter.
type ChainBuilder struct {
	platform     types.PlatformChain        // Platform adapter.
	bridge       types.TokenBridge          // Manual token bridge.
	automatic    types.AutomaticTokenBridge // Relayed token bridge.
	attestations types.AttestationProvider  // Attestation provider.
}

// BuildOption configures a chain builder, see Registry.Add.
type BuildOption func(*ChainBuilder)

// NewChainBuilder creates a new chain builder instance.
//
// Parameters:
// - platform: the platform adapter.
//
// Returns:
// - *ChainBuilder: a new ChainBuilder instance.
func NewChainBuilder(platform types.PlatformChain) *ChainBuilder {
	return &ChainBuilder{
		platform: platform,
	}
}

// WithTokenBridge sets the manual token bridge.
//
// Parameters:
// - bridge: the token bridge implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithTokenBridge(bridge types.TokenBridge) *ChainBuilder {
	b.bridge = bridge
	return b
}

// WithAutomaticTokenBridge sets the relayed token bridge.
//
// Parameters:
// - automatic: the automatic token bridge implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithAutomaticTokenBridge(automatic types.AutomaticTokenBridge) *ChainBuilder {
	b.automatic = automatic
	return b
}

// WithAttestationProvider sets the attestation provider.
//
// Parameters:
// - provider: the attestation provider implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithAttestationProvider(provider types.AttestationProvider) *ChainBuilder {
	b.attestations = provider
	return b
}

// Apply runs the options against the builder.
func (b *ChainBuilder) Apply(opts ...BuildOption) *ChainBuilder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a new chain instance with configured implementations.
//
// Returns:
// - *Chain: a new Chain instance with the configured implementations.
func (b *ChainBuilder) Build() *Chain {
	return NewChain(b.platform, b.bridge, b.automatic, b.attestations)
}

// WithTokenBridge returns a BuildOption attaching a manual token bridge.
func WithTokenBridge(bridge types.TokenBridge) BuildOption {
	return func(b *ChainBuilder) { b.WithTokenBridge(bridge) }
}

// WithAutomaticTokenBridge returns a BuildOption attaching a relayed token bridge.
func WithAutomaticTokenBridge(automatic types.AutomaticTokenBridge) BuildOption {
	return func(b *ChainBuilder) { b.WithAutomaticTokenBridge(automatic) }
}

// WithAttestationProvider returns a BuildOption attaching an attestation provider.
func WithAttestationProvider(provider types.AttestationProvider) BuildOption {
	return func(b *ChainBuilder) { b.WithAttestationProvider(provider) }
}
