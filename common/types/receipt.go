package types

import "time"

// Receipt is the evolving record of a transfer. Receipts are never mutated in
// place: every builder returns a new copy carrying at least the information of
// the previous one, so a sequence of receipts is a monotonic log.
//
// Fields:
// - ID: the transfer identifier, shared by every receipt of one transfer.
// - Route: the name of the route that produced the receipt.
// - From: the source chain.
// - To: the destination chain.
// - State: the observed transfer state.
// - OriginTxs: the source-chain transactions submitted by the route.
// - Attestation: the attestation, once available.
// - DestinationTxs: the destination-chain transactions, once observed or submitted.
// - UpdatedAt: when the receipt was produced.
type Receipt struct {
	ID             string
	Route          string
	From           Chain
	To             Chain
	State          TransferState
	OriginTxs      []TransactionID
	Attestation    *Attestation
	DestinationTxs []TransactionID
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	c := *r
	c.OriginTxs = append([]TransactionID(nil), r.OriginTxs...)
	c.DestinationTxs = append([]TransactionID(nil), r.DestinationTxs...)
	if r.Attestation != nil {
		att := *r.Attestation
		att.Payload = append([]byte(nil), r.Attestation.Payload...)
		c.Attestation = &att
	}
	return &c
}

// WithState returns a copy in the given state. A lower state is ignored.
func (r *Receipt) WithState(state TransferState) *Receipt {
	c := r.Clone()
	if state > c.State {
		c.State = state
	}
	c.UpdatedAt = time.Now().UTC()
	return c
}

// WithAttestation returns a copy carrying the attestation in the Attested state.
func (r *Receipt) WithAttestation(att *Attestation) *Receipt {
	c := r.WithState(Attested)
	if att != nil {
		copied := *att
		copied.Payload = append([]byte(nil), att.Payload...)
		c.Attestation = &copied
	}
	return c
}

// WithDestinationTxs returns a copy in the given state with the destination
// transactions appended. Already known transactions are not duplicated.
func (r *Receipt) WithDestinationTxs(state TransferState, txs ...TransactionID) *Receipt {
	c := r.WithState(state)
	for _, tx := range txs {
		if !containsTx(c.DestinationTxs, tx) {
			c.DestinationTxs = append(c.DestinationTxs, tx)
		}
	}
	return c
}

// Completed returns a copy finalized by the given destination transactions.
func (r *Receipt) Completed(txs []TransactionID) *Receipt {
	return r.WithDestinationTxs(DestinationFinalized, txs...)
}

// IsAttested reports whether the receipt carries an attestation.
func (r *Receipt) IsAttested() bool {
	return r.State >= Attested && r.Attestation != nil
}

// IsCompleted reports whether the transfer reached the terminal state.
func (r *Receipt) IsCompleted() bool {
	return r.State.IsTerminal()
}

// LastOriginTx returns the last submitted source transaction.
func (r *Receipt) LastOriginTx() (TransactionID, bool) {
	if len(r.OriginTxs) == 0 {
		return TransactionID{}, false
	}
	return r.OriginTxs[len(r.OriginTxs)-1], true
}

func containsTx(txs []TransactionID, tx TransactionID) bool {
	for _, t := range txs {
		if t == tx {
			return true
		}
	}
	return false
}
