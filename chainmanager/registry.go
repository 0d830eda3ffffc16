package chainmanager

import (
	"context"
	"sort"
	"sync"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ChainFactory creates platform adapters from configuration.
type ChainFactory interface {
	CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error)
}

// Registry holds the connected chains keyed by label and resolves them for routes.
type Registry struct {
	logger *logrus.Logger

	chains      map[types.Chain]*Chain
	chainsMutex sync.RWMutex

	factory      ChainFactory
	factoryMutex sync.RWMutex
}

// NewChainRegistry creates a new chain registry.
//
// Parameters:
// - factory: the factory creating platform adapters, may be nil if chains are only registered directly.
// - logger: the logger for logging purposes.
//
// Returns:
// - *Registry: the new registry.
func NewChainRegistry(factory ChainFactory, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		chains:  make(map[types.Chain]*Chain),
		factory: factory,
		logger:  logger,
	}
}

// Add creates the platform adapter for the configuration, composes it with the
// options and registers it.
//
// Parameters:
// - ctx: the context for managing the adapter's connection monitor.
// - config: the chain configuration.
// - opts: bridge protocols to attach.
//
// Returns:
// - error: ErrChainExists, ErrFactoryNotProvided, or a factory error.
func (r *Registry) Add(ctx context.Context, config *types.ChainConfig, opts ...BuildOption) error {
	if config == nil {
		return errors.Wrap(commonerrors.ErrInvalidConfig, "nil config")
	}
	if r.has(config.Chain) {
		return errors.Wrapf(commonerrors.ErrChainExists, "%s", config.Chain)
	}

	// Lock factory for reading to prevent changes during chain creation.
	r.factoryMutex.RLock()
	factory := r.factory
	r.factoryMutex.RUnlock()
	if factory == nil {
		return commonerrors.ErrFactoryNotProvided
	}

	platform, err := factory.CreateChain(ctx, config, r.logger)
	if err != nil {
		return errors.Wrapf(err, "failed to create chain %s", config.Name)
	}

	chain := NewChainBuilder(platform).Apply(opts...).Build()
	if err := r.Register(chain); err != nil {
		platform.Close()
		return err
	}
	return nil
}

// Register adds an already composed chain.
//
// Parameters:
// - chain: the chain to register.
//
// Returns:
// - error: ErrChainExists if the label is taken.
func (r *Registry) Register(chain *Chain) error {
	r.chainsMutex.Lock()
	defer r.chainsMutex.Unlock()

	label := chain.Chain()
	if _, ok := r.chains[label]; ok {
		return errors.Wrapf(commonerrors.ErrChainExists, "%s", label)
	}
	r.chains[label] = chain

	r.logger.WithFields(logrus.Fields{
		"chain":         label,
		"network":       chain.Network(),
		"tokenBridge":   chain.SupportsTokenBridge(),
		"automaticPath": chain.SupportsAutomaticTokenBridge(),
	}).Info("Chain registered")
	return nil
}

// SetFactory replaces the chain factory.
func (r *Registry) SetFactory(factory ChainFactory) {
	r.factoryMutex.Lock()
	r.factory = factory
	r.factoryMutex.Unlock()
}

// Get returns the registered chain.
func (r *Registry) Get(label types.Chain) (*Chain, error) {
	r.chainsMutex.RLock()
	chain, ok := r.chains[label]
	r.chainsMutex.RUnlock()

	if !ok {
		return nil, errors.Wrapf(commonerrors.ErrChainNotFound, "%s", label)
	}
	return chain, nil
}

// GetChain implements types.ChainProvider.
func (r *Registry) GetChain(label types.Chain) (types.ChainContext, error) {
	chain, err := r.Get(label)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// Chains returns the registered labels in sorted order.
func (r *Registry) Chains() []types.Chain {
	r.chainsMutex.RLock()
	defer r.chainsMutex.RUnlock()

	labels := make([]types.Chain, 0, len(r.chains))
	for label := range r.chains {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Remove unregisters the chain and closes it. Unknown labels are ignored.
func (r *Registry) Remove(label types.Chain) {
	r.chainsMutex.Lock()
	chain, ok := r.chains[label]
	delete(r.chains, label)
	r.chainsMutex.Unlock()

	if ok {
		chain.Close()
	}
}

// Close closes and unregisters every chain.
func (r *Registry) Close() {
	r.chainsMutex.Lock()
	chains := r.chains
	r.chains = make(map[types.Chain]*Chain)
	r.chainsMutex.Unlock()

	for _, chain := range chains {
		chain.Close()
	}
}

func (r *Registry) has(label types.Chain) bool {
	r.chainsMutex.RLock()
	defer r.chainsMutex.RUnlock()
	_, ok := r.chains[label]
	return ok
}
