package errors

import "github.com/pkg/errors"

var (
	ErrChainNotFound          = errors.New("chain not found")
	ErrInvalidConfig          = errors.New("invalid chain configuration")
	ErrChainExists            = errors.New("chain already exists in registry")
	ErrFactoryNotProvided     = errors.New("chain factory not provided")
	ErrInvalidChainType       = errors.New("invalid chain type")
	ErrNotImplemented         = errors.New("functionality not implemented")
	ErrRouteAlreadyRegistered = errors.New("route already registered")
	ErrInvalidRoute           = errors.New("invalid route constructor")
	ErrAttestationNotFound    = errors.New("attestation not found")
	ErrTransferFailed         = errors.New("transfer failed on chain")
	ErrForeignParams          = errors.New("validated params belong to another route")
	ErrForeignReceipt         = errors.New("receipt belongs to another transfer")
	ErrTokenNotRegistered     = errors.New("token is not registered on the bridge")
	ErrUnsupportedPayload     = errors.New("unsupported transaction payload")
	ErrWrongChain             = errors.New("transaction targets another chain")
)
