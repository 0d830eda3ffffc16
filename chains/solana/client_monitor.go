package solana

import (
	"context"

	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

// solanaConnectionManager implements connectionmonitor.BlockchainClient interface
type solanaConnectionManager struct {
	chain *solana
}

// CheckConnection asks the node for its latest slot.
func (m *solanaConnectionManager) CheckConnection(ctx context.Context) error {
	m.chain.clientMutex.RLock()
	client := m.chain.client
	m.chain.clientMutex.RUnlock()

	if client == nil {
		return errors.New("client not initialized")
	}

	_, err := client.GetSlot(ctx, rpc.CommitmentProcessed)
	return err
}

// Reconnect replaces the client with a fresh one for the same RPC URL.
func (m *solanaConnectionManager) Reconnect(ctx context.Context) error {
	if m.chain.dial == nil {
		return errors.New("no dialer configured")
	}

	client := m.chain.dial(m.chain.config.RpcUrl)

	m.chain.clientMutex.Lock()
	m.chain.client = client
	m.chain.clientMutex.Unlock()

	return nil
}

func (s *solana) initMonitor(ctx context.Context, recorder metrics.Recorder) error {
	s.monitorMutex.Lock()
	defer s.monitorMutex.Unlock()

	connectionManager := &solanaConnectionManager{chain: s}
	s.monitor = connectionmonitor.NewConnectionMonitor(connectionManager, s.logger, s.config.Name, connectionmonitor.Options{Metrics: recorder})
	return s.monitor.Start(ctx)
}
