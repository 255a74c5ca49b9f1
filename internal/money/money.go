// Package money converts amounts between currencies through the base-unit
// rate and reconciles paid amounts against expected ones.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits every stored or compared amount has.
const Places int32 = 2

// MaxFractionDigits bounds the precision an amount may be submitted with.
const MaxFractionDigits int32 = 18

var ErrInvalidRate = errors.New("conversion rate must be positive")

// maxAmount is the exclusive upper bound of an amount: NUMERIC(20,2) holds
// 18 integer digits.
var maxAmount = decimal.New(1, 18)

// InRange reports whether d can be rounded, converted and stored. The
// exponent is checked first so values like 1e900000000 are rejected
// without materializing their coefficient.
func InRange(d decimal.Decimal) bool {
	if d.Exponent() < -MaxFractionDigits || d.Exponent() > 18 {
		return false
	}
	return Round(d).Abs().LessThan(maxAmount)
}

// Round rounds half-up to Places fraction digits. Amounts are non-negative,
// where half-up and half-away-from-zero coincide.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ExpectedAmount converts amount, expressed in a currency whose rate against
// the base unit is requestRate, into the currency with targetRate:
// amount / requestRate * targetRate, rounded half-up to Places digits.
// The division is done last so the rounding applies to the exact quotient.
func ExpectedAmount(amount, requestRate, targetRate decimal.Decimal) (decimal.Decimal, error) {
	if !requestRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: request rate %s", ErrInvalidRate, requestRate)
	}
	if !targetRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: target rate %s", ErrInvalidRate, targetRate)
	}
	return amount.Mul(targetRate).DivRound(requestRate, Places), nil
}

// AmountsMatch rounds both sides the same way and requires exact equality.
func AmountsMatch(paid, expected decimal.Decimal) bool {
	return Round(paid).Equal(Round(expected))
}
