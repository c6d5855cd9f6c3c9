// Package valueobjects - Amount is the fixed-point monetary type used for
// every balance, transaction amount and ledger snapshot in the system.
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed-point layout shared with the NUMERIC(18,4) database columns:
// 18 significant digits total, 4 of them fractional.
const (
	AmountScale     = 4
	amountIntDigits = 14
)

var (
	ErrInvalidAmount  = errors.New("invalid amount format")
	ErrAmountScale    = errors.New("amount has more than 4 fractional digits")
	ErrAmountOverflow = errors.New("amount exceeds 18 digit precision")
)

// maxAbs is the smallest absolute value that no longer fits NUMERIC(18,4).
var maxAbs = decimal.New(1, amountIntDigits)

// Amount wraps shopspring/decimal to keep all arithmetic in exact decimal.
// Amounts may be negative: treasury wallet balances go below zero when the
// treasury mints supply. Strict positivity of transaction amounts is a
// Transaction invariant, not an Amount invariant.
//
// Value Object: immutable, every operation returns a new Amount.
type Amount struct {
	value decimal.Decimal
}

// NewAmount parses a decimal string ("100.50", "-3", "0.0001").
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewAmountFromDecimal(d)
}

// NewAmountFromDecimal validates scale and precision against the column layout.
func NewAmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -AmountScale {
		// Values like 0.00001 would be silently rounded by the database.
		if !d.Equal(d.Truncate(AmountScale)) {
			return Amount{}, fmt.Errorf("%w: %s", ErrAmountScale, d.String())
		}
	}
	if d.Abs().GreaterThanOrEqual(maxAbs) {
		return Amount{}, fmt.Errorf("%w: %s", ErrAmountOverflow, d.String())
	}
	return Amount{value: d}, nil
}

// MustAmount is a test and seed helper; panics on malformed input.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroAmount returns the zero value explicitly.
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// Add returns a + b, failing when the result leaves the 18,4 envelope.
func (a Amount) Add(b Amount) (Amount, error) {
	return NewAmountFromDecimal(a.value.Add(b.value))
}

// Sub returns a - b, failing when the result leaves the 18,4 envelope.
func (a Amount) Sub(b Amount) (Amount, error) {
	return NewAmountFromDecimal(a.value.Sub(b.value))
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{value: a.value.Neg()}
}

func (a Amount) IsPositive() bool { return a.value.IsPositive() }
func (a Amount) IsNegative() bool { return a.value.IsNegative() }
func (a Amount) IsZero() bool { return a.value.IsZero() }

func (a Amount) Equal(b Amount) bool { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool { return a.value.LessThan(b.value) }

// GreaterThanOrEqual is the balance-sufficiency comparison used by the
// executor before debiting a user wallet.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.value.GreaterThanOrEqual(b.value)
}

// Decimal exposes the underlying decimal for persistence drivers.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String renders with the canonical 4-digit fraction ("100.5000").
func (a Amount) String() string {
	return a.value.StringFixed(AmountScale)
}
