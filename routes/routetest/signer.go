package routetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// Signer records submitted transactions and returns sequential hashes.
// It fails the submission with index FailAt if FailAt is not negative.
type Signer struct {
	mu sync.Mutex

	ChainID types.Chain
	Account string
	FailAt  int

	sent []types.UnsignedTransaction
}

// NewSigner creates a signer that never fails.
func NewSigner(chain types.Chain) *Signer {
	return &Signer{ChainID: chain, Account: "signer", FailAt: -1}
}

func (s *Signer) Chain() types.Chain { return s.ChainID }

func (s *Signer) Address() string { return s.Account }

func (s *Signer) SignAndSend(ctx context.Context, tx types.UnsignedTransaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAt >= 0 && len(s.sent) == s.FailAt {
		return "", errors.New("rpc unavailable")
	}
	s.sent = append(s.sent, tx)
	return Hash(s.ChainID, len(s.sent)-1), nil
}

// Sent returns the submitted transactions.
func (s *Signer) Sent() []types.UnsignedTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.UnsignedTransaction(nil), s.sent...)
}

// Hash returns the hash Signer assigns to its i-th submission on chain.
func Hash(chain types.Chain, i int) string {
	return fmt.Sprintf("%s-tx-%d", chain, i)
}
