package routes

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SortBy selects the ranking criterion of SortRoutes.
type SortBy string

const (
	// SortByCost ranks routes by the highest quoted destination amount.
	SortByCost SortBy = "cost"
	// SortBySpeed ranks routes by the lowest quoted ETA.
	SortBySpeed SortBy = "speed"
)

type rankedRoute struct {
	route Route
	quote *Quote
	order int
}

// SortRoutes ranks routes produced by FindRoutes. It is separate from
// resolution: every route validates and quotes params, routes that fail either
// step keep their relative order after the quoted ones. Ties keep registry order.
//
// Parameters:
// - ctx: the context for managing the request.
// - routes: the candidate routes.
// - params: the transfer parameters to quote with.
// - by: the ranking criterion.
//
// Returns:
// - []Route: a new, ranked slice.
func SortRoutes(ctx context.Context, routes []Route, params TransferParams, by SortBy) []Route {
	ranked := make([]rankedRoute, len(routes))

	var g errgroup.Group
	for i, route := range routes {
		i, route := i, route
		ranked[i] = rankedRoute{route: route, order: i}
		g.Go(func() error {
			result := route.Validate(ctx, params)
			if !result.Valid {
				return nil
			}
			quote, err := route.Quote(ctx, result.Params)
			if err != nil {
				return nil
			}
			ranked[i].quote = quote
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(ranked, func(a, b int) bool {
		qa, qb := ranked[a].quote, ranked[b].quote
		switch {
		case qa == nil && qb == nil:
			return ranked[a].order < ranked[b].order
		case qa == nil:
			return false
		case qb == nil:
			return true
		}

		if by == SortBySpeed {
			return qa.ETA < qb.ETA
		}
		return qa.DestinationToken.Amount.GreaterThan(qb.DestinationToken.Amount)
	})

	out := make([]Route, len(ranked))
	for i, r := range ranked {
		out[i] = r.route
	}
	return out
}
