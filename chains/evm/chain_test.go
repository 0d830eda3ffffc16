package evm

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

const usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

type fakeBackend struct {
	mu sync.Mutex

	block     uint64
	receipts  map[common.Hash]*ethtypes.Receipt
	pending   map[common.Hash]bool
	calls     map[string][]byte
	callCount int
	baseFee   *big.Int
	sent      []*ethtypes.Transaction
	closed    bool
	blockErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		block:    100,
		receipts: make(map[common.Hash]*ethtypes.Receipt),
		pending:  make(map[common.Hash]bool),
		calls:    make(map[string][]byte),
		baseFee:  big.NewInt(100),
	}
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blockErr != nil {
		return 0, b.blockErr
	}
	return b.block, nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[hash] {
		return ethtypes.NewTx(&ethtypes.LegacyTx{}), true, nil
	}
	return nil, false, ethereum.NotFound
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callCount++
	method, err := erc20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	out, ok := b.calls[msg.To.Hex()+"/"+method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 50000, nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(10), nil
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{BaseFee: b.baseFee}, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *fakeBackend) setOutput(t *testing.T, contract, method string, value interface{}) {
	t.Helper()
	packed, err := erc20ABI.Methods[method].Outputs.Pack(value)
	require.NoError(t, err)
	b.calls[common.HexToAddress(contract).Hex()+"/"+method] = packed
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *types.ChainConfig {
	return &types.ChainConfig{
		Name:        "ethereum",
		Chain:       types.Ethereum,
		ChainType:   types.EVM,
		Network:     types.Mainnet,
		ChainID:     1,
		RpcUrl:      "http://localhost:8545",
		TxType:      TxTypeLegacy,
		WaitNBlocks: 5,
		PrivateKey:  testKey,
	}
}

func newTestChain(t *testing.T, config *types.ChainConfig) (*evm, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	chain, err := newEvm(config, quietLogger(), backend, nil)
	require.NoError(t, err)
	return chain, backend
}

func TestNewEvmChainRejectsOtherPlatforms(t *testing.T) {
	config := testConfig()
	config.Chain = types.Solana

	_, err := NewEvmChainWithBackend(config, quietLogger(), newFakeBackend(), nil)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidChainType)
}

func TestSignerRequiresPrivateKey(t *testing.T) {
	config := testConfig()
	config.PrivateKey = ""
	chain, _ := newTestChain(t, config)

	_, err := chain.Signer()
	assert.ErrorIs(t, err, commonerrors.ErrNotImplemented)
}

func TestTokenMetadata(t *testing.T) {
	config := testConfig()
	config.NativeSymbol = "ETH"
	chain, backend := newTestChain(t, config)
	ctx := context.Background()

	native, err := chain.TokenMetadata(ctx, types.NativeToken(types.Ethereum))
	require.NoError(t, err)
	assert.Equal(t, uint8(18), native.Decimals)
	assert.Equal(t, "ETH", native.Symbol)

	backend.setOutput(t, usdc, "decimals", uint8(6))
	backend.setOutput(t, usdc, "symbol", "USDC")
	token, err := types.ParseTokenID(types.Ethereum, usdc)
	require.NoError(t, err)

	meta, err := chain.TokenMetadata(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), meta.Decimals)
	assert.Equal(t, "USDC", meta.Symbol)

	_, err = chain.TokenMetadata(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.callCount, "metadata is cached")
}

func TestTokenMetadataSymbolOverride(t *testing.T) {
	config := testConfig()
	token, err := types.ParseTokenID(types.Ethereum, usdc)
	require.NoError(t, err)
	config.TokenSymbols = map[string]string{token.Address: "USDC.e"}
	chain, backend := newTestChain(t, config)
	backend.setOutput(t, usdc, "decimals", uint8(6))

	meta, err := chain.TokenMetadata(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "USDC.e", meta.Symbol)
	assert.Equal(t, 1, backend.callCount)
}

func TestTokenMetadataErrors(t *testing.T) {
	chain, _ := newTestChain(t, testConfig())
	ctx := context.Background()

	_, err := chain.TokenMetadata(ctx, types.NativeToken(types.Base))
	assert.ErrorIs(t, err, commonerrors.ErrWrongChain)

	token, err := types.ParseTokenID(types.Ethereum, usdc)
	require.NoError(t, err)
	_, err = chain.TokenMetadata(ctx, token)
	assert.Error(t, err)
}

func TestTransactionStatus(t *testing.T) {
	chain, backend := newTestChain(t, testConfig())
	ctx := context.Background()

	unknown := common.HexToHash("0x01")
	pending := common.HexToHash("0x02")
	shallow := common.HexToHash("0x03")
	final := common.HexToHash("0x04")
	reverted := common.HexToHash("0x05")

	backend.pending[pending] = true
	backend.receipts[shallow] = &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(98)}
	backend.receipts[final] = &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(95)}
	backend.receipts[reverted] = &ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed, BlockNumber: big.NewInt(90)}

	tests := []struct {
		name string
		hash common.Hash
		want types.TxStatus
	}{
		{"unknown", unknown, types.TxStatusNotFound},
		{"mempool", pending, types.TxStatusPending},
		{"not enough confirmations", shallow, types.TxStatusPending},
		{"final", final, types.TxStatusFinalized},
		{"reverted", reverted, types.TxStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := chain.TransactionStatus(ctx, tt.hash.Hex())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestSignAndSendLegacy(t *testing.T) {
	chain, backend := newTestChain(t, testConfig())
	ctx := context.Background()

	s, err := chain.Signer()
	require.NoError(t, err)
	assert.Equal(t, types.Ethereum, s.Chain())

	token, err := types.ParseTokenID(types.Ethereum, usdc)
	require.NoError(t, err)
	req, err := TransferRequest(token, "0x000000000000000000000000000000000000dEaD", big.NewInt(1_000_000))
	require.NoError(t, err)

	hash, err := s.SignAndSend(ctx, types.UnsignedTransaction{Payload: req, Chain: types.Ethereum, Network: types.Mainnet})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	sent := backend.sent[0]
	assert.Equal(t, sent.Hash().Hex(), hash)
	assert.Equal(t, uint8(ethtypes.LegacyTxType), sent.Type())
	assert.Equal(t, int64(15), sent.GasPrice().Int64())
	assert.Equal(t, uint64(55000), sent.Gas())
	assert.Equal(t, common.HexToAddress(usdc), *sent.To())

	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(1)), sent)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from.Hex())
}

func TestSignAndSendEIP1559(t *testing.T) {
	config := testConfig()
	config.TxType = TxTypeEIP1559
	chain, backend := newTestChain(t, config)

	s, err := chain.Signer()
	require.NoError(t, err)

	req, err := TransferRequest(types.NativeToken(types.Ethereum), "0x000000000000000000000000000000000000dEaD", big.NewInt(42))
	require.NoError(t, err)

	_, err = s.SignAndSend(context.Background(), types.UnsignedTransaction{Payload: req, Chain: types.Ethereum})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	sent := backend.sent[0]
	assert.Equal(t, uint8(ethtypes.DynamicFeeTxType), sent.Type())
	assert.Equal(t, int64(132), sent.GasFeeCap().Int64())
	assert.Equal(t, int64(2), sent.GasTipCap().Int64())
	assert.Equal(t, int64(42), sent.Value().Int64())
}

func TestSignAndSendRejectsForeignTransactions(t *testing.T) {
	chain, backend := newTestChain(t, testConfig())
	ctx := context.Background()

	s, err := chain.Signer()
	require.NoError(t, err)

	_, err = s.SignAndSend(ctx, types.UnsignedTransaction{Payload: &TransactionRequest{To: usdc}, Chain: types.Base})
	assert.ErrorIs(t, err, commonerrors.ErrWrongChain)

	_, err = s.SignAndSend(ctx, types.UnsignedTransaction{Payload: "raw", Chain: types.Ethereum})
	assert.ErrorIs(t, err, commonerrors.ErrUnsupportedPayload)

	assert.Empty(t, backend.sent)
}

func TestApproveRequestRejectsNative(t *testing.T) {
	_, err := ApproveRequest(types.NativeToken(types.Ethereum), usdc, big.NewInt(1))
	assert.Error(t, err)
}

func TestReconnectSwapsClient(t *testing.T) {
	old := newFakeBackend()
	fresh := newFakeBackend()
	dial := func(ctx context.Context, rpcURL string) (Backend, error) { return fresh, nil }

	chain, err := newEvm(testConfig(), quietLogger(), old, dial)
	require.NoError(t, err)

	manager := &evmConnectionManager{chain: chain}
	require.NoError(t, manager.CheckConnection(context.Background()))
	require.NoError(t, manager.Reconnect(context.Background()))

	assert.True(t, old.closed)
	client, err := chain.backend(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, client)

	chain.Close()
	assert.True(t, fresh.closed)
	assert.Error(t, manager.CheckConnection(context.Background()))
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncCounter(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[name+"/"+labels["chain"]]++
}

func (r *countingRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

func (r *countingRecorder) count(name, chain string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name+"/"+chain]
}

func TestConnectionMonitorReportsReconnect(t *testing.T) {
	ctx := context.Background()
	broken := newFakeBackend()
	broken.blockErr = errors.New("connection reset")
	fresh := newFakeBackend()
	dial := func(ctx context.Context, rpcURL string) (Backend, error) { return fresh, nil }

	chain, err := newEvm(testConfig(), quietLogger(), broken, dial)
	require.NoError(t, err)
	recorder := &countingRecorder{}
	require.NoError(t, chain.initMonitor(ctx, recorder))
	defer chain.Close()

	require.NoError(t, chain.monitor.Check(ctx))
	assert.True(t, chain.monitor.Healthy())
	assert.Equal(t, 1, recorder.count(connectionmonitor.ConnectionCheckFailed, "ethereum"))
	assert.Equal(t, 1, recorder.count(connectionmonitor.Reconnected, "ethereum"))
	assert.True(t, broken.closed)
}
