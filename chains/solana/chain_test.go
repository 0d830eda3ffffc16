package solana

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/ClipFinance/route-lib/chains/solana/utils"
	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ClipFinance/route-lib/metrics"
	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu sync.Mutex

	accounts  map[sol.PublicKey]*rpc.Account
	statuses  map[sol.Signature]*rpc.SignatureStatusesResult
	simulated *uint64
	simErr    error
	sent      []*sol.Transaction
	slots     int
	slotErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts: make(map[sol.PublicKey]*rpc.Account),
		statuses: make(map[sol.Signature]*rpc.SignatureStatusesResult),
	}
}

func (b *fakeBackend) GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots++
	if b.slotErr != nil {
		return 0, b.slotErr
	}
	return uint64(b.slots), nil
}

func (b *fakeBackend) GetAccountInfo(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (b *fakeBackend) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...sol.Signature) (*rpc.GetSignatureStatusesResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := &rpc.GetSignatureStatusesResult{}
	for _, sig := range transactionSignatures {
		out.Value = append(out.Value, b.statuses[sig])
	}
	return out, nil
}

func (b *fakeBackend) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: sol.Hash{7}}}, nil
}

func (b *fakeBackend) SimulateTransaction(ctx context.Context, transaction *sol.Transaction) (*rpc.SimulateTransactionResponse, error) {
	if b.simErr != nil {
		return nil, b.simErr
	}
	return &rpc.SimulateTransactionResponse{Value: &rpc.SimulateTransactionResult{UnitsConsumed: b.simulated}}, nil
}

func (b *fakeBackend) SendTransactionWithOpts(ctx context.Context, transaction *sol.Transaction, opts rpc.TransactionOpts) (sol.Signature, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, transaction)
	return transaction.Signatures[0], nil
}

func (b *fakeBackend) addMint(t *testing.T, mintKey sol.PublicKey, decimals uint8) {
	t.Helper()
	mint := token.Mint{Decimals: decimals, IsInitialized: true, Supply: 1_000_000}
	var buf bytes.Buffer
	require.NoError(t, mint.MarshalWithEncoder(bin.NewBinEncoder(&buf)))
	b.accounts[mintKey] = &rpc.Account{Owner: sol.TokenProgramID, Data: rpc.DataBytesOrJSONFromBytes(buf.Bytes())}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(t *testing.T) *types.ChainConfig {
	t.Helper()
	key, err := sol.NewRandomPrivateKey()
	require.NoError(t, err)
	return &types.ChainConfig{
		Name:       "solana",
		Chain:      types.Solana,
		ChainType:  types.SOLANA,
		Network:    types.Mainnet,
		RpcUrl:     "http://localhost:8899",
		PrivateKey: key.String(),
	}
}

func newTestChain(t *testing.T, config *types.ChainConfig) (*solana, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	chain, err := newSolana(config, quietLogger(), backend, nil)
	require.NoError(t, err)
	return chain, backend
}

func TestNewSolanaChainRejectsOtherPlatforms(t *testing.T) {
	config := testConfig(t)
	config.Chain = types.Ethereum

	_, err := NewSolanaChainWithBackend(config, quietLogger(), newFakeBackend())
	assert.ErrorIs(t, err, commonerrors.ErrInvalidChainType)
}

func TestNewSolanaChainRejectsBadKey(t *testing.T) {
	config := testConfig(t)
	config.PrivateKey = "not-a-key"

	_, err := NewSolanaChainWithBackend(config, quietLogger(), newFakeBackend())
	assert.Error(t, err)
}

func TestTokenMetadata(t *testing.T) {
	config := testConfig(t)
	mintKey := sol.NewWallet().PublicKey()
	config.TokenSymbols = map[string]string{mintKey.String(): "USDC"}
	chain, backend := newTestChain(t, config)
	backend.addMint(t, mintKey, 6)
	ctx := context.Background()

	native, err := chain.TokenMetadata(ctx, types.NativeToken(types.Solana))
	require.NoError(t, err)
	assert.Equal(t, uint8(9), native.Decimals)
	assert.Equal(t, "SOL", native.Symbol)

	tokenID, err := types.ParseTokenID(types.Solana, mintKey.String())
	require.NoError(t, err)
	meta, err := chain.TokenMetadata(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), meta.Decimals)
	assert.Equal(t, "USDC", meta.Symbol)

	delete(backend.accounts, mintKey)
	cached, err := chain.TokenMetadata(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), cached.Decimals)
}

func TestTokenMetadataErrors(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	ctx := context.Background()

	_, err := chain.TokenMetadata(ctx, types.NativeToken(types.Ethereum))
	assert.ErrorIs(t, err, commonerrors.ErrWrongChain)

	missing := sol.NewWallet().PublicKey()
	_, err = chain.TokenMetadata(ctx, types.TokenID{Chain: types.Solana, Address: missing.String()})
	assert.Error(t, err)

	notMint := sol.NewWallet().PublicKey()
	backend.accounts[notMint] = &rpc.Account{Owner: sol.SystemProgramID, Data: rpc.DataBytesOrJSONFromBytes([]byte{1})}
	_, err = chain.TokenMetadata(ctx, types.TokenID{Chain: types.Solana, Address: notMint.String()})
	assert.Error(t, err)
}

func TestTransactionStatus(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	ctx := context.Background()

	confirmed := sol.Signature{1}
	finalized := sol.Signature{2}
	failed := sol.Signature{3}
	unknown := sol.Signature{4}

	backend.statuses[confirmed] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
	backend.statuses[finalized] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized}
	backend.statuses[failed] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized, Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}

	tests := []struct {
		name string
		sig  sol.Signature
		want types.TxStatus
	}{
		{"confirmed is not final", confirmed, types.TxStatusPending},
		{"finalized", finalized, types.TxStatusFinalized},
		{"failed", failed, types.TxStatusFailed},
		{"unknown", unknown, types.TxStatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := chain.TransactionStatus(ctx, tt.sig.String())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}

	_, err := chain.TransactionStatus(ctx, "not-a-signature")
	assert.Error(t, err)
}

func TestSignAndSend(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	units := uint64(1000)
	backend.simulated = &units

	s, err := chain.Signer()
	require.NoError(t, err)
	owner := sol.MustPublicKeyFromBase58(s.Address())

	instructions, err := utils.TransferInstructions(nil, owner, sol.NewWallet().PublicKey(), 5000)
	require.NoError(t, err)

	sig, err := s.SignAndSend(context.Background(), types.UnsignedTransaction{Payload: instructions, Chain: types.Solana})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	sent := backend.sent[0]
	assert.Equal(t, sent.Signatures[0].String(), sig)
	require.NoError(t, sent.VerifySignatures())

	require.Len(t, sent.Message.Instructions, 3)
	limit := sent.Message.Instructions[0]
	assert.Equal(t, computebudget.ProgramID, sent.Message.AccountKeys[limit.ProgramIDIndex])
	assert.Equal(t, uint32(1200), binary.LittleEndian.Uint32(limit.Data[1:5]))
}

func TestSignAndSendFallsBackToDefaultComputeUnits(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	backend.simErr = errors.New("node is behind")

	s, err := chain.Signer()
	require.NoError(t, err)
	owner := sol.MustPublicKeyFromBase58(s.Address())
	mint := sol.NewWallet().PublicKey()

	instructions, err := utils.TransferInstructions(&mint, owner, sol.NewWallet().PublicKey(), 5000)
	require.NoError(t, err)

	_, err = s.SignAndSend(context.Background(), types.UnsignedTransaction{
		Payload: &TransactionRequest{Instructions: instructions},
		Chain:   types.Solana,
	})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	limit := backend.sent[0].Message.Instructions[0]
	assert.Equal(t, uint32(defaultComputeUnits), binary.LittleEndian.Uint32(limit.Data[1:5]))
}

func TestSignAndSendRejectsForeignTransactions(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	ctx := context.Background()

	s, err := chain.Signer()
	require.NoError(t, err)

	_, err = s.SignAndSend(ctx, types.UnsignedTransaction{Payload: []sol.Instruction{utils.CreateMemoInstruction("x")}, Chain: types.Ethereum})
	assert.ErrorIs(t, err, commonerrors.ErrWrongChain)

	_, err = s.SignAndSend(ctx, types.UnsignedTransaction{Payload: []byte{1}, Chain: types.Solana})
	assert.ErrorIs(t, err, commonerrors.ErrUnsupportedPayload)

	_, err = s.SignAndSend(ctx, types.UnsignedTransaction{Payload: []sol.Instruction{}, Chain: types.Solana})
	assert.ErrorIs(t, err, commonerrors.ErrUnsupportedPayload)

	assert.Empty(t, backend.sent)
}

func TestSignerRequiresPrivateKey(t *testing.T) {
	config := testConfig(t)
	config.PrivateKey = ""
	chain, _ := newTestChain(t, config)

	_, err := chain.Signer()
	assert.ErrorIs(t, err, commonerrors.ErrNotImplemented)
}

func TestConnectionManager(t *testing.T) {
	chain, backend := newTestChain(t, testConfig(t))
	fresh := newFakeBackend()
	chain.dial = func(rpcURL string) Backend { return fresh }

	manager := &solanaConnectionManager{chain: chain}
	require.NoError(t, manager.CheckConnection(context.Background()))
	assert.Equal(t, 1, backend.slots)

	require.NoError(t, manager.Reconnect(context.Background()))
	require.NoError(t, manager.CheckConnection(context.Background()))
	assert.Equal(t, 1, fresh.slots)

	chain.Close()
	assert.Error(t, manager.CheckConnection(context.Background()))
}

func TestPriorityFeeLamports(t *testing.T) {
	assert.Equal(t, uint64(2000), utils.PriorityFeeLamports(200_000, 10_000))
	assert.InDelta(t, 0.000002, utils.LamportsToSol(2000), 1e-12)
}

func TestConnectionMonitorReportsFailedCheck(t *testing.T) {
	ctx := context.Background()
	chain, backend := newTestChain(t, testConfig(t))
	backend.slotErr = errors.New("connection reset")
	fresh := newFakeBackend()
	chain.dial = func(rpcURL string) Backend { return fresh }

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(reg)
	require.NoError(t, err)
	require.NoError(t, chain.initMonitor(ctx, recorder))
	defer chain.Close()

	require.NoError(t, chain.monitor.Check(ctx))
	client, err := chain.backend(ctx)
	require.NoError(t, err)
	assert.Same(t, fresh, client)

	families, err := reg.Gather()
	require.NoError(t, err)
	events := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "type" && m.GetCounter() != nil {
					events[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, events[connectionmonitor.ConnectionCheckFailed])
	assert.Equal(t, 1.0, events[connectionmonitor.Reconnected])
}
