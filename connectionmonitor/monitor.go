package connectionmonitor

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/route-lib/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultHealthCheckInterval defines interval between connection health checks.
	DefaultHealthCheckInterval = 30 * time.Second
	// DefaultReconnectDelay defines the pause between reconnection attempts.
	DefaultReconnectDelay = 5 * time.Second
	// DefaultMaxReconnectAttempts defines maximum number of reconnection attempts per failed check.
	DefaultMaxReconnectAttempts = 3

	// Metric names.
	ConnectionCheckFailed = "connection_check_failed"
	Reconnected           = "reconnected"
)

// ConnectionMonitor watches an RPC connection and reconnects when it drops.
type ConnectionMonitor interface {
	// Start starts connection monitoring.
	Start(ctx context.Context) error
	// Stop stops connection monitoring.
	Stop()
	// Healthy reports whether the last health check (or reconnection) succeeded.
	Healthy() bool
	// Check runs one health check now and reconnects if it fails.
	Check(ctx context.Context) error
}

// BlockchainClient is the connection a monitor watches.
type BlockchainClient interface {
	// CheckConnection checks if connection is alive.
	CheckConnection(ctx context.Context) error
	// Reconnect attempts to reconnect to blockchain node.
	Reconnect(ctx context.Context) error
}

// Options configures a connection monitor. Zero values select the defaults.
//
// Fields:
// - Interval: pause between health checks.
// - ReconnectDelay: pause between reconnection attempts.
// - MaxReconnectAttempts: reconnection attempts per failed check.
// - Metrics: records failed checks and reconnections.
type Options struct {
	Interval             time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	Metrics              metrics.Recorder
}

type connectionMonitor struct {
	client    BlockchainClient
	logger    *logrus.Logger
	chainName string
	opts      Options

	stopChan     chan struct{}
	isMonitoring bool
	healthy      bool
	monitorMutex sync.RWMutex
}

// NewConnectionMonitor creates a new connection monitor instance.
//
// Parameters:
// - client: the blockchain client to monitor.
// - logger: the logger for logging purposes.
// - chainName: the name of the chain, used in logs and metrics.
// - opts: monitor options.
//
// Returns:
// - ConnectionMonitor: the new connection monitor instance.
func NewConnectionMonitor(client BlockchainClient, logger *logrus.Logger, chainName string, opts Options) ConnectionMonitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultHealthCheckInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &connectionMonitor{
		client:    client,
		logger:    logger,
		chainName: chainName,
		opts:      opts,
		healthy:   true,
	}
}

// Start starts connection monitoring.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the connection monitor is already running.
func (m *connectionMonitor) Start(ctx context.Context) error {
	m.monitorMutex.Lock()
	if m.isMonitoring {
		m.monitorMutex.Unlock()
		return errors.Errorf("connection monitor is already running for chain %s", m.chainName)
	}
	m.isMonitoring = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.monitorMutex.Unlock()

	go m.monitorConnection(ctx, stop)
	return nil
}

// Stop stops connection monitoring.
func (m *connectionMonitor) Stop() {
	m.monitorMutex.Lock()
	defer m.monitorMutex.Unlock()

	if !m.isMonitoring {
		return
	}

	close(m.stopChan)
	m.isMonitoring = false
}

// Healthy reports the result of the last check.
func (m *connectionMonitor) Healthy() bool {
	m.monitorMutex.RLock()
	defer m.monitorMutex.RUnlock()
	return m.healthy
}

func (m *connectionMonitor) setHealthy(healthy bool) {
	m.monitorMutex.Lock()
	m.healthy = healthy
	m.monitorMutex.Unlock()
}

// Check runs one health check now and reconnects if it fails.
func (m *connectionMonitor) Check(ctx context.Context) error {
	return m.checkAndReconnect(ctx)
}

// monitorConnection monitors the connection state and attempts to reconnect if needed.
func (m *connectionMonitor) monitorConnection(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped due to context cancellation")
			return

		case <-stop:
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped")
			return

		case <-ticker.C:
			if err := m.checkAndReconnect(ctx); err != nil {
				m.logger.WithField("chain", m.chainName).WithError(err).Error("Failed to check or reconnect")
			}
		}
	}
}

// checkAndReconnect checks the connection state and attempts to reconnect if needed.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the reconnection fails.
func (m *connectionMonitor) checkAndReconnect(ctx context.Context) error {
	labels := map[string]string{"chain": m.chainName}

	err := m.client.CheckConnection(ctx)
	if err == nil {
		m.setHealthy(true)
		m.logger.WithField("chain", m.chainName).Debug("Ping successful")
		return nil
	}

	m.setHealthy(false)
	m.opts.Metrics.IncCounter(ConnectionCheckFailed, labels)
	m.logger.WithField("chain", m.chainName).WithError(err).Warn("Connection check failed, attempting to reconnect")

	for attempt := 1; attempt <= m.opts.MaxReconnectAttempts; attempt++ {
		err := m.client.Reconnect(ctx)
		if err == nil {
			m.setHealthy(true)
			m.opts.Metrics.IncCounter(Reconnected, labels)
			m.logger.WithFields(logrus.Fields{
				"chain":   m.chainName,
				"attempt": attempt,
			}).Info("Client successfully reconnected")
			return nil
		}

		m.logger.WithFields(logrus.Fields{
			"chain":   m.chainName,
			"attempt": attempt,
		}).WithError(err).Error("Reconnection attempt failed")

		if attempt == m.opts.MaxReconnectAttempts {
			return errors.Wrapf(err, "failed to reconnect to chain %s", m.chainName)
		}

		timer := time.NewTimer(m.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}
