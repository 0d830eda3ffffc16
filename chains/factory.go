package chains

import (
	"context"
	"sync"

	"github.com/ClipFinance/route-lib/chains/evm"
	"github.com/ClipFinance/route-lib/chains/solana"
	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ChainConstructor represents a function that constructs a new chain adapter.
//
// Parameters:
// - ctx: the context for managing background monitoring of the adapter.
// - config: the configuration for the chain.
// - logger: the logger for logging purposes.
//
// Returns:
// - types.PlatformChain: the constructed chain adapter.
// - error: an error if the chain construction fails.
type ChainConstructor func(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error)

// ChainFactory defines the interface for chain creation.
type ChainFactory interface {
	// RegisterConstructor registers a chain constructor for a platform,
	// replacing any previous one.
	//
	// Parameters:
	// - chainType: the platform to register.
	// - constructor: the constructor function for the platform.
	RegisterConstructor(chainType types.ChainType, constructor ChainConstructor)

	// CreateChain validates the configuration and creates a chain adapter for it.
	//
	// Parameters:
	// - ctx: the context for managing background monitoring of the adapter.
	// - config: the configuration for the chain.
	// - logger: the logger for logging purposes.
	//
	// Returns:
	// - types.PlatformChain: the created chain adapter.
	// - error: ErrInvalidConfig, ErrInvalidChainType, or a constructor error.
	CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error)
}

type chainFactory struct {
	// constructors stores the mapping of chain types to their constructors.
	constructors map[types.ChainType]ChainConstructor
	// constructorsMutex protects access to the constructors map.
	constructorsMutex sync.RWMutex
}

// NewChainFactory creates a new chain factory with the EVM and Solana constructors registered.
//
// Parameters:
// - recorder: receives the connection monitor metrics of every created chain, nil for none.
//
// Returns:
// - ChainFactory: the new chain factory instance.
func NewChainFactory(recorder metrics.Recorder) ChainFactory {
	factory := NewEmptyChainFactory()
	factory.RegisterConstructor(types.EVM, func(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
		return evm.NewEvmChainWithMetrics(ctx, config, logger, recorder)
	})
	factory.RegisterConstructor(types.SOLANA, func(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
		return solana.NewSolanaChainWithMetrics(ctx, config, logger, recorder)
	})
	return factory
}

// NewEmptyChainFactory creates a chain factory without constructors.
func NewEmptyChainFactory() ChainFactory {
	return &chainFactory{
		constructors: make(map[types.ChainType]ChainConstructor),
	}
}

// RegisterConstructor registers a new chain constructor.
func (f *chainFactory) RegisterConstructor(chainType types.ChainType, constructor ChainConstructor) {
	f.constructorsMutex.Lock()
	defer f.constructorsMutex.Unlock()

	f.constructors[chainType] = constructor
}

// CreateChain creates a new chain adapter based on the configuration.
func (f *chainFactory) CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
	if config == nil {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, "nil config")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(commonerrors.ErrInvalidConfig, err.Error())
	}

	f.constructorsMutex.RLock()
	constructor, exists := f.constructors[config.ChainType]
	f.constructorsMutex.RUnlock()

	if !exists {
		return nil, errors.Wrapf(commonerrors.ErrInvalidChainType, "no constructor for %s", config.ChainType)
	}

	return constructor(ctx, config, logger)
}
