package dbconfig

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrChainNotFound   = errors.New("chain not found")
	ErrRPCNotFound     = errors.New("no active rpc for chain")
	ErrInvalidChain    = errors.New("invalid chain")
	ErrDatabaseConnect = errors.New("failed to connect to database")
	ErrDatabaseQuery   = errors.New("database query failed")
)

// dbError keeps the driver error in the chain while matching its sentinel.
type dbError struct {
	sentinel error
	cause    error
}

func wrapDBError(sentinel, cause error) error {
	return &dbError{sentinel: sentinel, cause: cause}
}

func (e *dbError) Error() string { return fmt.Sprintf("%v: %v", e.sentinel, e.cause) }

func (e *dbError) Unwrap() error { return e.cause }

func (e *dbError) Is(target error) bool { return target == e.sentinel }
