package routes

import (
	"context"
	"time"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Resolver matches transfer requests to the registered route variants.
// Capability queries fan out across variants; a failing variant is logged and
// left out of the result, never propagated.
type Resolver struct {
	registry *Registry
	logger   *logrus.Logger
	metrics  metrics.Recorder
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *logrus.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the resolver metrics recorder.
func WithMetrics(m metrics.Recorder) ResolverOption {
	return func(r *Resolver) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewResolver creates a resolver over registry.
func NewResolver(registry *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		logger:   logrus.StandardLogger(),
		metrics:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SupportedSourceTokens returns the deduplicated union of the source tokens
// every variant supports on fromChain, in registry order.
//
// Parameters:
// - ctx: the context for managing the request.
// - fromChain: the source chain.
//
// Returns:
// - []types.TokenID: the supported tokens, possibly empty.
// - error: only the context error if ctx is done.
func (r *Resolver) SupportedSourceTokens(ctx context.Context, fromChain types.ChainContext) ([]types.TokenID, error) {
	candidates := r.candidates(fromChain)
	results := make([][]types.TokenID, len(candidates))

	var g errgroup.Group
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			tokens, err := c.SupportedSourceTokens(ctx, fromChain)
			if err != nil {
				r.queryFailed(c, fromChain.Chain(), "supported source tokens", err)
				return nil
			}
			results[i] = tokens
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return union(results), nil
}

// SupportedDestinationTokens returns the deduplicated union of the tokens
// token can be received as on toChain, across the variants that support
// token as a source token.
//
// Parameters:
// - ctx: the context for managing the request.
// - token: the source token.
// - fromChain: the source chain.
// - toChain: the destination chain.
//
// Returns:
// - []types.TokenID: the reachable destination tokens, possibly empty.
// - error: only the context error if ctx is done.
func (r *Resolver) SupportedDestinationTokens(ctx context.Context, token types.TokenID, fromChain, toChain types.ChainContext) ([]types.TokenID, error) {
	candidates := r.candidates(fromChain, toChain)
	results := make([][]types.TokenID, len(candidates))

	var g errgroup.Group
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			sources, err := c.SupportedSourceTokens(ctx, fromChain)
			if err != nil {
				r.queryFailed(c, fromChain.Chain(), "supported source tokens", err)
				return nil
			}
			if !containsToken(sources, token) {
				return nil
			}

			tokens, err := c.SupportedDestinationTokens(ctx, token, fromChain, toChain)
			if err != nil {
				r.queryFailed(c, toChain.Chain(), "supported destination tokens", err)
				return nil
			}
			results[i] = tokens
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return union(results), nil
}

// FindRoutes binds every registered variant to the request and keeps those
// whose capability set contains both the source and destination tokens.
// Survivors are returned in registry order; an empty result means no route
// matches and is not an error. Ranking is a separate step, see SortRoutes.
//
// Parameters:
// - ctx: the context for managing the request.
// - request: the transfer request.
//
// Returns:
// - []Route: the candidate routes.
// - error: only the context error if ctx is done.
func (r *Resolver) FindRoutes(ctx context.Context, request *TransferRequest) ([]Route, error) {
	start := time.Now()
	candidates := r.candidates(request.FromChain(), request.ToChain())
	found := make([]Route, len(candidates))

	var g errgroup.Group
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			route, err := c.New(request)
			if err != nil {
				r.queryFailed(c, request.FromChain().Chain(), "construct route", err)
				return nil
			}
			ok, err := route.IsSupported(ctx)
			if err != nil {
				r.queryFailed(c, request.FromChain().Chain(), "is supported", err)
				return nil
			}
			if ok {
				found[i] = route
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	routes := make([]Route, 0, len(found))
	for _, route := range found {
		if route != nil {
			routes = append(routes, route)
		}
	}

	labels := map[string]string{"chain": request.FromChain().Chain().String()}
	r.metrics.ObserveLatency(metrics.FindRoutes, time.Since(start), labels)
	for _, route := range routes {
		r.metrics.IncCounter(metrics.RoutesResolved, map[string]string{
			"route": route.Meta().Name,
			"chain": labels["chain"],
		})
	}

	r.logger.WithFields(logrus.Fields{
		"source":      request.Source().Token,
		"destination": request.Destination().Token,
		"candidates":  len(candidates),
		"routes":      len(routes),
	}).Debug("Resolved transfer request")

	return routes, nil
}

// candidates returns the constructors whose protocol is available on every given chain.
func (r *Resolver) candidates(chains ...types.ChainContext) []Constructor {
	var out []Constructor
	for _, c := range r.registry.Constructors() {
		supported := true
		for _, chain := range chains {
			if !c.IsProtocolSupported(chain) {
				supported = false
				break
			}
		}
		if supported {
			out = append(out, c)
		}
	}
	return out
}

func (r *Resolver) queryFailed(c Constructor, chain types.Chain, query string, err error) {
	r.metrics.IncCounter(metrics.CapabilityQueryFailed, map[string]string{
		"route": c.Meta().Name,
		"chain": chain.String(),
	})
	r.logger.WithFields(logrus.Fields{
		"route": c.Meta().Name,
		"chain": chain,
		"query": query,
	}).WithError(err).Warn("Route capability query failed")
}

func union(lists [][]types.TokenID) []types.TokenID {
	seen := make(map[types.TokenID]struct{})
	out := make([]types.TokenID, 0)
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func containsToken(tokens []types.TokenID, token types.TokenID) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
