package dbconfig

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/dbconfig/models"
	"github.com/pkg/errors"
)

const chainColumns = `
          id,
          chain,
          name,
          chain_type,
          network,
          chain_id,
          tx_type,
          wait_n_blocks,
          native_symbol,
          requests_per_second,
          active,
          created_at,
          updated_at
      FROM chains`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// GetChains returns all chains from the database, optionally filtering by active status.
//
// Parameters:
// - ctx: the context for managing the request.
// - activeOnly: a boolean flag to filter only active chains.
//
// Returns:
// - []models.Chain: the chains ordered by label.
// - error: an error if the database operation fails.
func (r *DBConfig) GetChains(ctx context.Context, activeOnly bool) ([]models.Chain, error) {
	query := "SELECT " + chainColumns

	var args []interface{}
	if activeOnly {
		query += " WHERE active = $1"
		args = append(args, true)
	}

	query += " ORDER BY chain ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var chains []models.Chain
	for rows.Next() {
		chain, err := scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, *chain)
	}

	if err = rows.Err(); err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}

	return chains, nil
}

// GetChain returns one chain by label.
//
// Parameters:
// - ctx: the context for managing the request.
// - label: the chain label.
//
// Returns:
// - *models.Chain: the chain.
// - error: ErrChainNotFound if the chain is not in the catalogue.
func (r *DBConfig) GetChain(ctx context.Context, label types.Chain) (*models.Chain, error) {
	if !label.IsValid() {
		return nil, errors.Wrapf(ErrInvalidChain, "%q", label)
	}

	row := r.db.QueryRowContext(ctx, "SELECT "+chainColumns+" WHERE chain = $1", label.String())
	chain, err := scanChain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrChainNotFound, "%s", label)
	}
	if err != nil {
		return nil, err
	}
	return chain, nil
}

func scanChain(row rowScanner) (*models.Chain, error) {
	var chain models.Chain
	var label, chainType, network string
	var nativeSymbol sql.NullString
	var chainID, txType, waitNBlocks sql.NullInt64
	var rps sql.NullFloat64

	err := row.Scan(
		&chain.ID,
		&label,
		&chain.Name,
		&chainType,
		&network,
		&chainID,
		&txType,
		&waitNBlocks,
		&nativeSymbol,
		&rps,
		&chain.Active,
		&chain.CreatedAt,
		&chain.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}

	parsed, err := types.ParseChain(label)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidChain, "row %d: %v", chain.ID, err)
	}
	chain.Chain = parsed
	chain.Type = types.ParseChainType(strings.ToUpper(chainType))
	chain.Network = types.Network(network)

	if chainID.Valid {
		chain.ChainID = uint64(chainID.Int64)
	}
	if txType.Valid {
		chain.TxType = uint64(txType.Int64)
	}
	if waitNBlocks.Valid {
		chain.WaitNBlocks = uint64(waitNBlocks.Int64)
	}
	if nativeSymbol.Valid {
		chain.NativeSymbol = nativeSymbol.String
	}
	if rps.Valid {
		chain.RequestsPerSecond = rps.Float64
	}

	return &chain, nil
}

// GetTokenSymbols returns the symbol overrides of a chain keyed by token address.
func (r *DBConfig) GetTokenSymbols(ctx context.Context, label types.Chain) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
       SELECT address, symbol
       FROM chain_tokens
       WHERE chain = $1
   `, label.String())
	if err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}
	defer rows.Close()

	symbols := make(map[string]string)
	for rows.Next() {
		var address, symbol string
		if err := rows.Scan(&address, &symbol); err != nil {
			return nil, wrapDBError(ErrDatabaseQuery, err)
		}
		token, err := types.ParseTokenID(label, address)
		if err != nil {
			return nil, errors.Wrapf(err, "token %s on %s", address, label)
		}
		symbols[token.Address] = symbol
	}

	if err = rows.Err(); err != nil {
		return nil, wrapDBError(ErrDatabaseQuery, err)
	}

	return symbols, nil
}
