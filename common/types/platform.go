package types

// PlatformChain is a connected chain adapter of one platform. It answers chain
// queries and, when the configuration carries a private key, signs transactions.
type PlatformChain interface {
	ChainQuery

	// Config returns the chain configuration the adapter was created from.
	Config() *ChainConfig

	// Signer returns the signer of the configured account, or ErrNotImplemented
	// without a private key.
	Signer() (Signer, error)

	// Close releases the RPC connection and stops background monitoring.
	Close()
}
