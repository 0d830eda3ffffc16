package chains

import (
	"context"
	"io"
	"testing"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChain struct {
	config *types.ChainConfig
}

func (s *stubChain) Chain() types.Chain { return s.config.Chain }
func (s *stubChain) Network() types.Network { return s.config.Network }
func (s *stubChain) Config() *types.ChainConfig { return s.config }
func (s *stubChain) Signer() (types.Signer, error) { return nil, commonerrors.ErrNotImplemented }
func (s *stubChain) Close() {}
func (s *stubChain) TokenMetadata(ctx context.Context, token types.TokenID) (*types.TokenMeta, error) {
	return &types.TokenMeta{Token: token}, nil
}
func (s *stubChain) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	return types.TxStatusNotFound, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func evmConfig() *types.ChainConfig {
	return &types.ChainConfig{
		Name:      "base",
		Chain:     types.Base,
		ChainType: types.EVM,
		Network:   types.Mainnet,
		ChainID:   8453,
		RpcUrl:    "https://mainnet.base.org",
	}
}

func TestCreateChainUsesRegisteredConstructor(t *testing.T) {
	factory := NewEmptyChainFactory()
	calls := 0
	factory.RegisterConstructor(types.EVM, func(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
		calls++
		return &stubChain{config: config}, nil
	})

	chain, err := factory.CreateChain(context.Background(), evmConfig(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, types.Base, chain.Chain())
	assert.Equal(t, 1, calls)
}

func TestCreateChainRejectsInvalidConfig(t *testing.T) {
	factory := NewEmptyChainFactory()
	factory.RegisterConstructor(types.EVM, func(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.PlatformChain, error) {
		t.Fatal("constructor must not be called")
		return nil, nil
	})

	tests := []struct {
		name   string
		mutate func(*types.ChainConfig)
	}{
		{"missing rpc url", func(c *types.ChainConfig) { c.RpcUrl = "" }},
		{"invalid rpc url", func(c *types.ChainConfig) { c.RpcUrl = "not a url" }},
		{"missing chain id", func(c *types.ChainConfig) { c.ChainID = 0 }},
		{"unknown network", func(c *types.ChainConfig) { c.Network = "Staging" }},
		{"platform mismatch", func(c *types.ChainConfig) { c.Chain = types.Solana }},
		{"unknown chain", func(c *types.ChainConfig) { c.Chain = "Gnosis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := evmConfig()
			tt.mutate(config)

			_, err := factory.CreateChain(context.Background(), config, quietLogger())
			assert.ErrorIs(t, err, commonerrors.ErrInvalidConfig)
		})
	}

	_, err := factory.CreateChain(context.Background(), nil, quietLogger())
	assert.ErrorIs(t, err, commonerrors.ErrInvalidConfig)
}

func TestCreateChainWithoutConstructor(t *testing.T) {
	factory := NewEmptyChainFactory()

	_, err := factory.CreateChain(context.Background(), evmConfig(), quietLogger())
	assert.ErrorIs(t, err, commonerrors.ErrInvalidChainType)
}

func TestNewChainFactoryCreatesMonitoredChain(t *testing.T) {
	factory := NewChainFactory(metrics.NoopRecorder{})
	config := &types.ChainConfig{
		Name:      "solana",
		Chain:     types.Solana,
		ChainType: types.SOLANA,
		Network:   types.Mainnet,
		RpcUrl:    "http://127.0.0.1:8899",
	}

	chain, err := factory.CreateChain(context.Background(), config, quietLogger())
	require.NoError(t, err)
	defer chain.Close()

	assert.Equal(t, types.Solana, chain.Chain())
	assert.Same(t, config, chain.Config())
}
