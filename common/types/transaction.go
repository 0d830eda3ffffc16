package types

import (
	"context"
	"fmt"
)

// TransactionID identifies a submitted transaction on a chain.
//
// Fields:
// - Chain: the chain where the transaction was submitted.
// - Hash: the transaction hash (EVM) or signature (Solana).
type TransactionID struct {
	Chain Chain
	Hash  string
}

// String returns "chain/hash".
func (t TransactionID) String() string {
	return fmt.Sprintf("%s/%s", t.Chain, t.Hash)
}

// TxStatus represents the finality status of a transaction as seen by a chain query.
type TxStatus int

const (
	// TxStatusNotFound means the chain does not know the transaction (yet).
	TxStatusNotFound TxStatus = iota
	// TxStatusPending means the transaction is known but not final.
	TxStatusPending
	// TxStatusFinalized means the transaction executed successfully and is final.
	TxStatusFinalized
	// TxStatusFailed means the transaction was included but reverted.
	TxStatusFailed
)

func (s TxStatus) String() string {
	switch s {
	case TxStatusNotFound:
		return "NOT_FOUND"
	case TxStatusPending:
		return "PENDING"
	case TxStatusFinalized:
		return "FINALIZED"
	case TxStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// UnsignedTransaction is an opaque, chain-specific transaction ready to be signed.
//
// Fields:
// - Payload: the platform transaction descriptor, interpreted only by that platform's signer.
// - Network: the network the transaction targets.
// - Chain: the chain the transaction targets.
// - Description: a human-readable summary.
// - Parallelizable: whether the transaction may be submitted independently of its siblings.
type UnsignedTransaction struct {
	Payload        interface{}
	Network        Network
	Chain          Chain
	Description    string
	Parallelizable bool
}

// Signer signs and submits unsigned transactions on one chain.
type Signer interface {
	// Chain returns the chain the signer submits to.
	Chain() Chain

	// Address returns the address of the signing account.
	Address() string

	// SignAndSend signs the transaction and submits it.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - tx: the unsigned transaction.
	//
	// Returns:
	// - string: the transaction hash or signature.
	// - error: an error if signing or submission fails.
	SignAndSend(ctx context.Context, tx UnsignedTransaction) (string, error)
}
