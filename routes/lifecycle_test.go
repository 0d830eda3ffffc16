package routes_test

import (
	"context"
	"testing"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/ClipFinance/route-lib/routes/routetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsigned(chain types.Chain, descriptions ...string) []types.UnsignedTransaction {
	txs := make([]types.UnsignedTransaction, 0, len(descriptions))
	for _, d := range descriptions {
		txs = append(txs, types.UnsignedTransaction{Chain: chain, Description: d, Payload: d})
	}
	return txs
}

func TestSubmitAll(t *testing.T) {
	signer := routetest.NewSigner(types.Ethereum)

	ids, err := routes.SubmitAll(context.Background(), signer, unsigned(types.Ethereum, "approve", "transfer"))
	require.NoError(t, err)
	assert.Equal(t, []types.TransactionID{
		{Chain: types.Ethereum, Hash: routetest.Hash(types.Ethereum, 0)},
		{Chain: types.Ethereum, Hash: routetest.Hash(types.Ethereum, 1)},
	}, ids)
}

func TestSubmitAllPartialFailure(t *testing.T) {
	signer := routetest.NewSigner(types.Ethereum)
	signer.FailAt = 1

	ids, err := routes.SubmitAll(context.Background(), signer, unsigned(types.Ethereum, "approve", "transfer", "memo"))
	assert.Nil(t, ids)

	var subErr *commonerrors.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, subErr.IsPartial())
	assert.Equal(t, 1, subErr.Step)
	assert.Equal(t, []types.TransactionID{{Chain: types.Ethereum, Hash: routetest.Hash(types.Ethereum, 0)}}, subErr.Submitted)
	assert.Len(t, signer.Sent(), 1)
}

func TestSubmitAllWrongChain(t *testing.T) {
	signer := routetest.NewSigner(types.Ethereum)

	_, err := routes.SubmitAll(context.Background(), signer, unsigned(types.Solana, "transfer"))

	var subErr *commonerrors.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.False(t, subErr.IsPartial())
	assert.ErrorIs(t, err, commonerrors.ErrWrongChain)
	assert.Empty(t, signer.Sent())
}

func TestAdvanceSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	receipt := startReceipt(types.SourceInitiated)

	next, err := routes.AdvanceSource(ctx, f.eth, receipt)
	require.NoError(t, err)
	assert.Equal(t, types.SourceInitiated, next.State, "unknown transaction is not final")

	f.eth.SetStatus("0x1", types.TxStatusFinalized)
	next, err = routes.AdvanceSource(ctx, f.eth, next)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFinalized, next.State)

	next, err = routes.AdvanceSource(ctx, f.eth, next)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFinalized, next.State, "attestation not produced yet")

	att := &types.Attestation{ID: types.AttestationID{Chain: types.Ethereum, Emitter: "bridge", Sequence: 7}}
	f.eth.SetAttestation("0x1", att)
	next, err = routes.AdvanceSource(ctx, f.eth, next)
	require.NoError(t, err)
	assert.Equal(t, types.Attested, next.State)
	assert.Equal(t, att.ID, next.Attestation.ID)

	same, err := routes.AdvanceSource(ctx, f.eth, next)
	require.NoError(t, err)
	assert.Equal(t, types.Attested, same.State)
}

func TestAdvanceSourceFailedTransaction(t *testing.T) {
	f := newFixture()
	f.eth.SetStatus("0x1", types.TxStatusFailed)

	_, err := routes.AdvanceSource(context.Background(), f.eth, startReceipt(types.SourceInitiated))
	assert.ErrorIs(t, err, commonerrors.ErrTransferFailed)
}

func TestRequireState(t *testing.T) {
	receipt := startReceipt(types.SourceFinalized)

	err := routes.RequireState(receipt, types.Attested)
	var preErr *commonerrors.PreconditionError
	require.True(t, errors.As(err, &preErr))
	assert.Equal(t, types.Attested, preErr.Required)
	assert.Equal(t, types.SourceFinalized, preErr.Actual)

	attested := receipt.WithAttestation(&types.Attestation{})
	assert.NoError(t, routes.RequireState(attested, types.Attested))
	assert.Error(t, routes.RequireState(nil, types.SourceInitiated))
}

func TestNewReceipt(t *testing.T) {
	f := newFixture()
	req := f.request(t, ethNat, solNat)
	route, err := (&routetest.Constructor{Name: "stub"}).New(req)
	require.NoError(t, err)

	origin := []types.TransactionID{{Chain: types.Ethereum, Hash: "0xabc"}}
	receipt := routes.NewReceipt(route, origin)
	origin[0].Hash = "mutated"

	assert.Equal(t, req.ID(), receipt.ID)
	assert.Equal(t, "stub", receipt.Route)
	assert.Equal(t, types.SourceInitiated, receipt.State)
	assert.Equal(t, "0xabc", receipt.OriginTxs[0].Hash)
	assert.Equal(t, types.Ethereum, receipt.From)
	assert.Equal(t, types.Solana, receipt.To)
}
