package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

const (
	// NativeAddress is the sentinel address of a chain's gas asset.
	NativeAddress = "native"
	// evmZeroAddress is the conventional EVM placeholder for the native asset.
	evmZeroAddress = "0x0000000000000000000000000000000000000000"
)

// ErrInvalidAddress is returned when an address does not parse on its chain.
var ErrInvalidAddress = errors.New("invalid address")

// TokenID identifies a token on one chain. The zero value is not a valid token.
// A TokenID never crosses chains: the representation of an asset on another
// chain is a different TokenID that a route maps to.
type TokenID struct {
	Chain   Chain
	Address string
}

// NativeToken returns the native asset of the chain.
func NativeToken(chain Chain) TokenID {
	return TokenID{Chain: chain, Address: NativeAddress}
}

// ParseTokenID builds a TokenID with a normalized address.
// The platform's zero or system address is mapped to the native sentinel.
func ParseTokenID(chain Chain, address string) (TokenID, error) {
	if !chain.IsValid() {
		return TokenID{}, errors.Wrapf(ErrUnknownChain, "%q", chain)
	}

	address = strings.TrimSpace(address)
	if address == "" || strings.EqualFold(address, NativeAddress) {
		return NativeToken(chain), nil
	}

	normalized, err := normalizeAddress(chain, address)
	if err != nil {
		return TokenID{}, err
	}

	switch {
	case chain.Platform() == EVM && normalized == common.HexToAddress(evmZeroAddress).Hex():
		return NativeToken(chain), nil
	case chain.Platform() == SOLANA && normalized == sol.SystemProgramID.String():
		return NativeToken(chain), nil
	}

	return TokenID{Chain: chain, Address: normalized}, nil
}

// IsNative reports whether the token is the chain's native asset.
func (t TokenID) IsNative() bool {
	return t.Address == NativeAddress
}

// String returns "chain/address".
func (t TokenID) String() string {
	return fmt.Sprintf("%s/%s", t.Chain, t.Address)
}

// ChainAddress is an account address scoped to a chain.
type ChainAddress struct {
	Chain   Chain
	Address string
}

// ParseChainAddress builds a ChainAddress with a normalized address.
func ParseChainAddress(chain Chain, address string) (ChainAddress, error) {
	if !chain.IsValid() {
		return ChainAddress{}, errors.Wrapf(ErrUnknownChain, "%q", chain)
	}
	normalized, err := normalizeAddress(chain, strings.TrimSpace(address))
	if err != nil {
		return ChainAddress{}, err
	}
	return ChainAddress{Chain: chain, Address: normalized}, nil
}

// String returns "chain/address".
func (a ChainAddress) String() string {
	return fmt.Sprintf("%s/%s", a.Chain, a.Address)
}

// TokenMeta holds the token details every route needs.
type TokenMeta struct {
	Token    TokenID
	Decimals uint8
	Symbol   string
}

func normalizeAddress(chain Chain, address string) (string, error) {
	switch chain.Platform() {
	case EVM:
		if !common.IsHexAddress(address) {
			return "", errors.Wrapf(ErrInvalidAddress, "%s on %s", address, chain)
		}
		return common.HexToAddress(address).Hex(), nil
	case SOLANA:
		pk, err := sol.PublicKeyFromBase58(address)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidAddress, "%s on %s: %v", address, chain, err)
		}
		return pk.String(), nil
	default:
		return "", errors.Wrapf(ErrUnknownChain, "%q", chain)
	}
}
