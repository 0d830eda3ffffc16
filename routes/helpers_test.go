package routes_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/ClipFinance/route-lib/routes/routetest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	ethUSDC = types.TokenID{Chain: types.Ethereum, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}
	solUSDC = types.TokenID{Chain: types.Solana, Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}
	ethNat  = types.NativeToken(types.Ethereum)
	solNat  = types.NativeToken(types.Solana)
)

type fixture struct {
	eth      *routetest.Chain
	sol      *routetest.Chain
	provider routetest.Provider
}

func newFixture() *fixture {
	eth := routetest.NewChain(types.Ethereum)
	eth.AddToken(ethUSDC, 6, "USDC")
	sol := routetest.NewChain(types.Solana)
	sol.AddToken(solNat, 9, "SOL")
	sol.AddToken(solUSDC, 6, "USDC")
	return &fixture{eth: eth, sol: sol, provider: routetest.NewProvider(eth, sol)}
}

func (f *fixture) request(t *testing.T, source, destination types.TokenID) *routes.TransferRequest {
	t.Helper()
	req, err := routes.NewTransferRequest(context.Background(), f.provider, routes.TransferRequestParams{
		From:        types.ChainAddress{Chain: source.Chain, Address: "sender"},
		To:          types.ChainAddress{Chain: destination.Chain, Address: "receiver"},
		Source:      source,
		Destination: destination,
	})
	require.NoError(t, err)
	return req
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// recorder counts metric events by name.
type recorder struct {
	mu       sync.Mutex
	counters map[string]int
	observed map[string]int
}

func newRecorder() *recorder {
	return &recorder{counters: map[string]int{}, observed: map[string]int{}}
}

func (r *recorder) IncCounter(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name]++
}

func (r *recorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed[name]++
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}
