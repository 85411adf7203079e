package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// FractionDigits is the number of decimal places carried by an Amount.
	FractionDigits = 2
)

var (
	// ErrInvalidFormat is returned by Parse for text that is not a decimal amount.
	ErrInvalidFormat = errors.New("invalid amount format")
	// ErrOverflow is returned when an amount does not fit in 64-bit minor units.
	ErrOverflow = errors.New("amount overflow")
)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Amount is a currency value counted in minor units (cents).
//
// Arithmetic on Amount is exact: there is no rounding anywhere in this package.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromMinor returns the amount holding v minor units.
func FromMinor(v int64) Amount {
	return Amount(v)
}

// FromMajor returns the amount holding v whole currency units.
func FromMajor(v int64) (Amount, error) {
	return fromMinorUnits(decimal.NewFromInt(v).Shift(FractionDigits))
}

// FromDecimal converts d to an Amount. d must not carry more than
// FractionDigits decimal places.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -FractionDigits {
		return 0, ErrInvalidFormat
	}
	return fromMinorUnits(d.Shift(FractionDigits))
}

// MustParse is like Parse but panics on error. Intended for constants in tests
// and seed data.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Parse reads a decimal amount such as "1500", "1500.5" or "-0.25".
//
// At most FractionDigits fractional digits are accepted; anything finer would
// need rounding and is rejected instead. Exponents, a bare leading or
// trailing dot and digit grouping are rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !wellFormed(s) {
		return 0, ErrInvalidFormat
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return FromDecimal(d)
}

// wellFormed reports whether s is an optional sign, digits and an optional
// dot followed by digits.
func wellFormed(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if !allDigits(whole) {
		return false
	}
	return !hasDot || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// fromMinorUnits converts an integral count of minor units, failing when it
// leaves the int64 range.
func fromMinorUnits(d decimal.Decimal) (Amount, error) {
	if d.Cmp(maxMinor) > 0 || d.Cmp(minMinor) < 0 {
		return 0, ErrOverflow
	}
	return Amount(d.IntPart()), nil
}

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 {
	return int64(a)
}

// Decimal returns the amount in major units as a decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -FractionDigits)
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a == 0
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a < 0
}

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or
// greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add returns a+b, or ErrOverflow if the sum leaves the int64 range.
func (a Amount) Add(b Amount) (Amount, error) {
	return fromMinorUnits(decimal.NewFromInt(int64(a)).Add(decimal.NewFromInt(int64(b))))
}

// Sub returns a-b, or ErrOverflow if the difference leaves the int64 range.
func (a Amount) Sub(b Amount) (Amount, error) {
	return fromMinorUnits(decimal.NewFromInt(int64(a)).Sub(decimal.NewFromInt(int64(b))))
}

// String formats the amount with exactly FractionDigits decimals, e.g. "1500.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(FractionDigits)
}
