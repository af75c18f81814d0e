package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits every monetary
// amount is held at.
const AmountPrecision = 8

// ValidateAmount rejects non-positive amounts and amounts carrying more
// than AmountPrecision fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero, got %s", ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Round(AmountPrecision)) {
		return fmt.Errorf("%w: amount %s exceeds %d fractional digits", ErrInvalidAmount, amount, AmountPrecision)
	}
	return nil
}
