package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CountsByTypeAndRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	rec.IncCounter(CapabilityQueryFailed, map[string]string{"route": "ManualTokenBridge", "chain": "Solana"})
	rec.IncCounter(CapabilityQueryFailed, map[string]string{"route": "ManualTokenBridge", "chain": "Solana"})
	rec.IncCounter(StateAdvanced, map[string]string{"route": "AutomaticTokenBridge"})
	rec.ObserveLatency(FindRoutes, 20*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.counters.With(prometheus.Labels{
		"type": CapabilityQueryFailed, "route": "ManualTokenBridge", "chain": "Solana",
	})))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.counters.With(prometheus.Labels{
		"type": StateAdvanced, "route": "AutomaticTokenBridge", "chain": "",
	})))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.histogram))
}

func TestNewPrometheusRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	_, err = NewPrometheusRecorder(reg)
	assert.Error(t, err)
}
