package solana

import (
	"context"

	"github.com/ClipFinance/route-lib/chains/solana/utils"
	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	sol "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// defaultComputeUnits is used when simulation fails.
	defaultComputeUnits = 200_000
	// computeUnitBuffer is the percentage applied to simulated compute units.
	computeUnitBuffer = 120
	// defaultPriorityFee is the compute unit price in micro-lamports.
	defaultPriorityFee = 10_000
)

// TransactionRequest is the Solana payload of a types.UnsignedTransaction.
//
// Fields:
// - Instructions: the instructions to execute, without compute budget instructions.
// - ComputeUnits: the compute unit limit, zero to simulate.
// - PriorityFee: the compute unit price in micro-lamports, zero for the default.
type TransactionRequest struct {
	Instructions []sol.Instruction
	ComputeUnits uint32
	PriorityFee  uint64
}

// chainSigner signs and submits TransactionRequest payloads with the configured key.
type chainSigner struct {
	chain *solana
}

// Chain implements types.Signer.
func (c *chainSigner) Chain() types.Chain { return c.chain.config.Chain }

// Address implements types.Signer.
func (c *chainSigner) Address() string {
	c.chain.signerMutex.RLock()
	defer c.chain.signerMutex.RUnlock()
	return c.chain.signer.PublicKey().String()
}

// SignAndSend signs the transaction payload and submits it to the chain.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the unsigned transaction carrying a *TransactionRequest or []sol.Instruction payload.
//
// Returns:
// - string: the transaction signature.
// - error: ErrWrongChain, ErrUnsupportedPayload, or an RPC error.
func (c *chainSigner) SignAndSend(ctx context.Context, tx types.UnsignedTransaction) (string, error) {
	s := c.chain
	if tx.Chain != s.config.Chain {
		return "", errors.Wrapf(commonerrors.ErrWrongChain, "%s transaction sent to %s", tx.Chain, s.config.Chain)
	}

	var req TransactionRequest
	switch payload := tx.Payload.(type) {
	case *TransactionRequest:
		if payload == nil {
			return "", errors.Wrap(commonerrors.ErrUnsupportedPayload, "nil request")
		}
		req = *payload
	case TransactionRequest:
		req = payload
	case []sol.Instruction:
		req = TransactionRequest{Instructions: payload}
	default:
		return "", errors.Wrapf(commonerrors.ErrUnsupportedPayload, "%T on %s", tx.Payload, s.config.Chain)
	}
	if len(req.Instructions) == 0 {
		return "", errors.Wrap(commonerrors.ErrUnsupportedPayload, "no instructions")
	}

	s.signerMutex.RLock()
	signer := s.signer
	s.signerMutex.RUnlock()
	if signer == nil {
		return "", errors.New("signer not initialized")
	}

	client, err := s.backend(ctx)
	if err != nil {
		return "", err
	}

	latest, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", errors.Wrap(err, "failed to get latest blockhash")
	}
	blockhash := latest.Value.Blockhash

	computeUnits := req.ComputeUnits
	if computeUnits == 0 {
		computeUnits = s.simulateComputeUnits(ctx, client, *signer, req.Instructions, blockhash)
	}
	priorityFee := req.PriorityFee
	if priorityFee == 0 {
		priorityFee = defaultPriorityFee
	}

	instructions, err := withComputeBudget(req.Instructions, computeUnits, priorityFee)
	if err != nil {
		return "", err
	}

	transaction, err := buildSignedTransaction(*signer, instructions, blockhash)
	if err != nil {
		return "", err
	}

	sig, err := client.SendTransactionWithOpts(ctx, transaction, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		s.logger.WithField("chain", s.config.Name).WithError(err).Error("Failed to send transaction")
		return "", errors.Wrap(err, "failed to send transaction")
	}

	s.logger.WithFields(logrus.Fields{
		"chain":        s.config.Name,
		"signature":    sig.String(),
		"computeUnits": computeUnits,
		"maxFeeInSol":  utils.LamportsToSol(utils.PriorityFeeLamports(computeUnits, priorityFee)),
		"description":  tx.Description,
	}).Info("Transaction sent")

	return sig.String(), nil
}

// simulateComputeUnits simulates the instructions and returns the buffered
// compute unit limit, or the default when simulation fails.
func (s *solana) simulateComputeUnits(ctx context.Context, client Backend, signer sol.PrivateKey, instructions []sol.Instruction, blockhash sol.Hash) uint32 {
	transaction, err := buildSignedTransaction(signer, instructions, blockhash)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build simulation transaction, using default compute units")
		return defaultComputeUnits
	}

	sim, err := client.SimulateTransaction(ctx, transaction)
	switch {
	case err != nil:
		s.logger.WithError(err).Warn("Failed to simulate transaction, using default compute units")
		return defaultComputeUnits
	case sim == nil || sim.Value == nil || sim.Value.UnitsConsumed == nil:
		return defaultComputeUnits
	case sim.Value.Err != nil:
		s.logger.WithField("err", sim.Value.Err).Warn("Simulation failed, using default compute units")
		return defaultComputeUnits
	}

	units := *sim.Value.UnitsConsumed * computeUnitBuffer / 100
	s.logger.WithField("computeUnits", units).Debug("Computed units with buffer")
	return uint32(units)
}

func withComputeBudget(instructions []sol.Instruction, computeUnits uint32, priorityFee uint64) ([]sol.Instruction, error) {
	setComputeUnitLimitIx, err := computebudget.NewSetComputeUnitLimitInstruction(computeUnits).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create compute unit limit instruction")
	}

	setPriorityFeeIx, err := computebudget.NewSetComputeUnitPriceInstruction(priorityFee).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create priority fee instruction")
	}

	final := make([]sol.Instruction, 0, len(instructions)+2)
	final = append(final, setComputeUnitLimitIx, setPriorityFeeIx)
	return append(final, instructions...), nil
}

func buildSignedTransaction(signer sol.PrivateKey, instructions []sol.Instruction, blockhash sol.Hash) (*sol.Transaction, error) {
	transaction, err := sol.NewTransaction(instructions, blockhash, sol.TransactionPayer(signer.PublicKey()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transaction")
	}

	_, err = transaction.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if signer.PublicKey().Equals(key) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return transaction, nil
}
