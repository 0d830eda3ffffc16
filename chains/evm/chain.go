package evm

import (
	"context"
	"math/big"
	"sync"

	"github.com/ClipFinance/route-lib/chains/evm/signer"
	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// TxTypeLegacy represents the legacy transaction type.
	TxTypeLegacy = 0
	// TxTypeEIP1559 represents the EIP-1559 transaction type.
	TxTypeEIP1559 = 2
)

// Backend is the subset of the go-ethereum client the adapter uses.
// *ethclient.Client satisfies it.
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	Close()
}

// Dialer opens a backend connection to an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// DialEthClient is the default Dialer.
func DialEthClient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// evm is the EVM platform adapter.
type evm struct {
	config  *types.ChainConfig // Chain configuration.
	logger  *logrus.Logger     // Logger for logging events.
	dial    Dialer             // Dialer used on reconnect.
	limiter *rate.Limiter      // RPC throttle, nil if unlimited.

	// Protected fields with their own mutexes.
	clientMutex sync.RWMutex // Mutex for client.
	client      Backend      // Ethereum client.

	signerMutex sync.RWMutex  // Mutex for signer.
	signer      signer.Signer // Signer for signing transactions.

	metaMutex sync.RWMutex                       // Mutex for token metadata cache.
	meta      map[types.TokenID]*types.TokenMeta // Token metadata cache.

	monitorMutex sync.RWMutex                        // Mutex for connection monitor.
	monitor      connectionmonitor.ConnectionMonitor // Connection monitor.
}

// NewEvmChain creates a new EVM chain adapter and starts monitoring its connection.
//
// Parameters:
// - ctx: the context for managing the connection monitor.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.PlatformChain: a new EVM chain instance.
// - error: an error if any issue occurs during creation.
func NewEvmChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
	return NewEvmChainWithMetrics(ctx, config, logger, nil)
}

// NewEvmChainWithMetrics creates a monitored EVM chain adapter whose connection
// monitor reports failed checks and reconnections to recorder.
func NewEvmChainWithMetrics(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger, recorder metrics.Recorder) (types.PlatformChain, error) {
	client, err := DialEthClient(ctx, config.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	chain, err := newEvm(config, logger, client, DialEthClient)
	if err != nil {
		client.Close()
		return nil, err
	}

	if err := chain.initMonitor(ctx, recorder); err != nil {
		chain.Close()
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	return chain, nil
}

// NewEvmChainWithBackend creates an EVM chain adapter over an existing backend
// without connection monitoring.
//
// Parameters:
// - config: the chain configuration.
// - logger: the logger for logging events.
// - client: the RPC backend.
// - dial: reopens the backend on reconnect, may be nil.
//
// Returns:
// - types.PlatformChain: the adapter.
// - error: an error if the private key cannot be parsed.
func NewEvmChainWithBackend(config *types.ChainConfig, logger *logrus.Logger, client Backend, dial Dialer) (types.PlatformChain, error) {
	return newEvm(config, logger, client, dial)
}

func newEvm(config *types.ChainConfig, logger *logrus.Logger, client Backend, dial Dialer) (*evm, error) {
	if config.Chain.Platform() != types.EVM {
		return nil, errors.Wrapf(commonerrors.ErrInvalidChainType, "%s is not an EVM chain", config.Chain)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	chain := &evm{
		config: config,
		logger: logger,
		dial:   dial,
		client: client,
		meta:   make(map[types.TokenID]*types.TokenMeta),
	}

	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		chain.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	if config.PrivateKey != "" {
		s, err := signer.NewSignerFromHex(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create signer")
		}
		chain.signer = s
	}

	return chain, nil
}

// Chain implements types.ChainQuery.
func (e *evm) Chain() types.Chain { return e.config.Chain }

// Network implements types.ChainQuery.
func (e *evm) Network() types.Network { return e.config.Network }

// Config implements types.PlatformChain.
func (e *evm) Config() *types.ChainConfig { return e.config }

// Signer implements types.PlatformChain.
func (e *evm) Signer() (types.Signer, error) {
	e.signerMutex.RLock()
	defer e.signerMutex.RUnlock()

	if e.signer == nil {
		return nil, errors.Wrapf(commonerrors.ErrNotImplemented, "no private key configured for %s", e.config.Name)
	}
	return &chainSigner{chain: e}, nil
}

// Close should be called when the chain is no longer needed.
// It stops the connection monitor and closes the client.
func (e *evm) Close() {
	e.monitorMutex.Lock()
	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.monitorMutex.Unlock()

	e.clientMutex.Lock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
	e.clientMutex.Unlock()
}

// backend returns the client after waiting for the RPC rate limit.
func (e *evm) backend(ctx context.Context) (Backend, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit wait")
		}
	}

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}
	return client, nil
}
