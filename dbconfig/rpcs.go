package dbconfig

import (
	"context"
	"database/sql"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/dbconfig/models"
	"github.com/pkg/errors"
)

// GetRPCsByChain returns all RPCs for a chain, preferred first, optionally filtering by active status.
//
// Parameters:
// - ctx: the context for managing the request.
// - label: the chain label.
// - activeOnly: a boolean flag to filter only active RPCs.
//
// Returns:
// - []models.RPC: a slice of RPC models.
// - error: an error if the database operation fails.
func (r *DBConfig) GetRPCsByChain(ctx context.Context, label types.Chain, activeOnly bool) ([]models.RPC, error) {
	if !label.IsValid() {
		return nil, errors.Wrapf(ErrInvalidChain, "%q", label)
	}

	query := `
		SELECT
			id,
			chain,
			url,
			provider,
			priority,
			active,
			created_at,
			updated_at
		FROM rpcs
		WHERE chain = $1
   `

	args := []interface{}{label.String()}
	if activeOnly {
		query += " AND active = $2"
		args = append(args, true)
	}

	query += " ORDER BY priority ASC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var rpcs []models.RPC
	for rows.Next() {
		var rpc models.RPC
		var chain string
		var provider sql.NullString

		err := rows.Scan(
			&rpc.ID,
			&chain,
			&rpc.URL,
			&provider,
			&rpc.Priority,
			&rpc.Active,
			&rpc.CreatedAt,
			&rpc.UpdatedAt,
		)
		if err != nil {
			return nil, wrapDBError(ErrDatabaseQuery, err)
		}

		rpc.Chain = types.Chain(chain)
		if provider.Valid {
			rpc.Provider = provider.String
		}

		rpcs = append(rpcs, rpc)
	}

	if err = rows.Err(); err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}

	return rpcs, nil
}
