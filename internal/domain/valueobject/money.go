// Package valueobject contains the immutable value types shared by the
// domain entities. Values are compared structurally and never mutated;
// every operation returns a new value.
package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount in the single settlement currency.
// Amounts are kept at exactly two decimal places; every constructor and
// arithmetic result is rounded half-up immediately, so precision beyond
// two decimals never leaks between operations.
type Money struct {
	amount decimal.Decimal
}

// Zero returns a Money with zero amount.
func Zero() Money {
	return Money{amount: decimal.Zero.Round(2)}
}

// NewMoney creates a Money from a decimal, rounding to two places.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(2)}
}

// NewMoneyFromString parses a decimal string into Money.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// NewMoneyFromCents creates a Money from an integer minor-unit amount.
func NewMoneyFromCents(cents int64) Money {
	return NewMoney(decimal.New(cents, -2))
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return NewMoney(m.amount.Add(other.amount))
}

// Sub returns the difference of two amounts.
func (m Money) Sub(other Money) Money {
	return NewMoney(m.amount.Sub(other.amount))
}

// MulRate multiplies the amount by an arbitrary-precision rate. The
// result is rounded back to two places, so a 50% commission on an odd
// cent rounds half-up.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(rate))
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return NewMoney(m.amount.Neg())
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	return NewMoney(m.amount.Abs())
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equal reports whether two amounts are equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Decimal returns the underlying decimal amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Float64 converts the amount to a float for serialization. Only for
// display and export; arithmetic must stay on Money.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}
