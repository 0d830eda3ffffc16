package evm

import (
	"context"

	"github.com/ClipFinance/route-lib/connectionmonitor"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/pkg/errors"
)

// evmConnectionManager lets the connection monitor ping and redial the EVM client.
type evmConnectionManager struct {
	chain *evm // Reference to the EVM chain instance.
}

// initMonitor initializes the connection monitor for the EVM chain.
//
// Parameters:
// - ctx: the context for managing the initialization process.
// - recorder: receives connection metrics, nil for none.
//
// Returns:
// - error: an error if there is an issue starting the connection monitor.
func (e *evm) initMonitor(ctx context.Context, recorder metrics.Recorder) error {
	e.monitorMutex.Lock()
	defer e.monitorMutex.Unlock()

	connectionManager := &evmConnectionManager{chain: e}
	e.monitor = connectionmonitor.NewConnectionMonitor(connectionManager, e.logger, e.config.Name, connectionmonitor.Options{Metrics: recorder})
	return e.monitor.Start(ctx)
}

// CheckConnection checks the connection by retrieving the current block number.
func (w *evmConnectionManager) CheckConnection(ctx context.Context) error {
	w.chain.clientMutex.RLock()
	client := w.chain.client
	w.chain.clientMutex.RUnlock()

	if client == nil {
		return errors.New("client not initialized")
	}

	_, err := client.BlockNumber(ctx)
	return err
}

// Reconnect closes the current client and dials the RPC URL again.
//
// Parameters:
// - ctx: the context for managing the reconnection process.
//
// Returns:
// - error: an error if there is an issue dialing the new client.
func (w *evmConnectionManager) Reconnect(ctx context.Context) error {
	if w.chain.dial == nil {
		return errors.New("no dialer configured")
	}

	client, err := w.chain.dial(ctx, w.chain.config.RpcUrl)
	if err != nil {
		return err
	}

	w.chain.clientMutex.Lock()
	old := w.chain.client
	w.chain.client = client
	w.chain.clientMutex.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}
