package solana

import (
	"context"
	"sync"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ClipFinance/route-lib/metrics"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Backend is the subset of the Solana RPC client the adapter uses.
// *rpc.Client satisfies it.
type Backend interface {
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetAccountInfo(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...sol.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SimulateTransaction(ctx context.Context, transaction *sol.Transaction) (*rpc.SimulateTransactionResponse, error)
	SendTransactionWithOpts(ctx context.Context, transaction *sol.Transaction, opts rpc.TransactionOpts) (sol.Signature, error)
}

// Dialer creates a backend for an RPC URL.
type Dialer func(rpcURL string) Backend

// NewRPCClient is the default Dialer.
func NewRPCClient(rpcURL string) Backend {
	return rpc.New(rpcURL)
}

// solana is the Solana platform adapter.
type solana struct {
	config  *types.ChainConfig
	logger  *logrus.Logger
	dial    Dialer
	limiter *rate.Limiter

	// Protected fields with their own mutexes
	clientMutex sync.RWMutex
	client      Backend

	signerMutex sync.RWMutex
	signer      *sol.PrivateKey

	metaMutex sync.RWMutex
	meta      map[types.TokenID]*types.TokenMeta

	monitorMutex sync.RWMutex
	monitor      connectionmonitor.ConnectionMonitor
}

// NewSolanaChain creates a new Solana chain adapter and starts monitoring its connection.
//
// Parameters:
// - ctx: the context for managing the connection monitor.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.PlatformChain: the adapter.
// - error: an error if the private key is invalid or monitoring cannot start.
func NewSolanaChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
	return NewSolanaChainWithMetrics(ctx, config, logger, nil)
}

// NewSolanaChainWithMetrics creates a monitored Solana chain adapter whose
// connection monitor reports failed checks and reconnections to recorder.
func NewSolanaChainWithMetrics(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger, recorder metrics.Recorder) (types.PlatformChain, error) {
	chain, err := newSolana(config, logger, NewRPCClient(config.RpcUrl), NewRPCClient)
	if err != nil {
		return nil, err
	}

	if err := chain.initMonitor(ctx, recorder); err != nil {
		chain.Close()
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	return chain, nil
}

// NewSolanaChainWithBackend creates a Solana chain adapter over an existing
// backend without connection monitoring.
func NewSolanaChainWithBackend(config *types.ChainConfig, logger *logrus.Logger, client Backend) (types.PlatformChain, error) {
	return newSolana(config, logger, client, nil)
}

func newSolana(config *types.ChainConfig, logger *logrus.Logger, client Backend, dial Dialer) (*solana, error) {
	if config.Chain.Platform() != types.SOLANA {
		return nil, errors.Wrapf(commonerrors.ErrInvalidChainType, "%s is not a Solana chain", config.Chain)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	chain := &solana{
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
		key, err := sol.PrivateKeyFromBase58(config.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create signer")
		}
		chain.signer = &key
	}

	return chain, nil
}

// Chain implements types.ChainQuery.
func (s *solana) Chain() types.Chain { return s.config.Chain }

// Network implements types.ChainQuery.
func (s *solana) Network() types.Network { return s.config.Network }

// Config implements types.PlatformChain.
func (s *solana) Config() *types.ChainConfig { return s.config }

// Signer implements types.PlatformChain.
func (s *solana) Signer() (types.Signer, error) {
	s.signerMutex.RLock()
	defer s.signerMutex.RUnlock()

	if s.signer == nil {
		return nil, errors.Wrapf(commonerrors.ErrNotImplemented, "no private key configured for %s", s.config.Name)
	}
	return &chainSigner{chain: s}, nil
}

// Close should be called when chain is no longer needed
func (s *solana) Close() {
	s.monitorMutex.Lock()
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.monitorMutex.Unlock()

	s.clientMutex.Lock()
	s.client = nil
	s.clientMutex.Unlock()
}

// backend returns the client after waiting for the RPC rate limit.
func (s *solana) backend(ctx context.Context) (Backend, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit wait")
		}
	}

	s.clientMutex.RLock()
	client := s.client
	s.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}
	return client, nil
}
