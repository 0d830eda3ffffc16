package routes

import (
	"math/big"
	"strings"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-facing decimal amount for a token with the given
// decimals. It rejects empty, non-numeric, non-positive amounts and amounts
// with more fractional digits than the token supports.
//
// Returns:
// - decimal.Decimal: the amount in whole units.
// - *big.Int: the amount in base units.
// - *errors.ValidationError: nil on success.
func ParseAmount(amount string, decimals uint8) (decimal.Decimal, *big.Int, *commonerrors.ValidationError) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, nil, commonerrors.NewValidationError(commonerrors.InvalidAmount, "amount is required")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, nil, commonerrors.NewValidationError(commonerrors.InvalidAmount, "amount %q is not a number", amount).WithCause(err)
	}
	if !d.IsPositive() {
		return decimal.Zero, nil, commonerrors.NewValidationError(commonerrors.InvalidAmount, "amount must be positive, got %s", d)
	}
	if -d.Exponent() > int32(decimals) && !d.Equal(d.Truncate(int32(decimals))) {
		return decimal.Zero, nil, commonerrors.NewValidationError(commonerrors.InvalidAmount,
			"amount %s has more than %d decimal places", d, decimals)
	}

	return d, ToBaseUnits(d, decimals), nil
}

// ToBaseUnits converts whole units into base units, truncating extra precision.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// FromBaseUnits converts base units into whole units.
func FromBaseUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ScaleAmount rescales base units between token precisions, truncating dust
// when the target has fewer decimals.
func ScaleAmount(amount *big.Int, from, to uint8) *big.Int {
	return ToBaseUnits(FromBaseUnits(amount, from), to)
}
