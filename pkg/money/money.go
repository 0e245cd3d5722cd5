// Package money provides a fixed-point monetary amount with 4 decimal digits of precision.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of units in one whole currency unit.
const Scale = 10000

// Precision is the number of fractional digits an Amount can hold.
const Precision = 4

var (
	// ErrMalformed is returned when the text is not a decimal number.
	ErrMalformed = errors.New("malformed amount")

	// ErrExceededPrecision is returned when the value does not fit the fixed-point representation.
	ErrExceededPrecision = errors.New("amount exceeds supported precision")
)

// Amount is a non-negative monetary value stored as an integer number of 1/10000 units.
// The zero value is a valid zero amount.
type Amount struct {
	units uint64
}

// Zero returns the additive identity.
func Zero() Amount {
	return Amount{}
}

// FromUnits builds an Amount from raw 1/10000 units.
func FromUnits(units uint64) Amount {
	return Amount{units: units}
}

// Units returns the raw number of 1/10000 units.
func (a Amount) Units() uint64 {
	return a.units
}

// Parse parses text such as "42", "42.5" or " 0.0001 " into an Amount.
func Parse(text string) (Amount, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Amount{}, ErrMalformed
	}

	parts := strings.Split(trimmed, ".")
	switch len(parts) {
	case 1:
		whole, err := parseWhole(parts[0])
		if err != nil {
			return Amount{}, err
		}
		return Amount{units: whole}, nil
	case 2:
		whole, err := parseWhole(parts[0])
		if err != nil {
			return Amount{}, err
		}
		fraction, err := parseFraction(parts[1])
		if err != nil {
			return Amount{}, err
		}
		if fraction > math.MaxUint64-whole {
			return Amount{}, ErrExceededPrecision
		}
		return Amount{units: whole + fraction}, nil
	default:
		return Amount{}, ErrMalformed
	}
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("money: MustParse(%q): %v", text, err))
	}
	return a
}

func parseWhole(text string) (uint64, error) {
	if !isDigits(text) {
		return 0, ErrMalformed
	}
	whole, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		// Only range errors remain once the text is known to be digits.
		return 0, ErrExceededPrecision
	}
	if whole > math.MaxUint64/Scale {
		return 0, ErrExceededPrecision
	}
	return whole * Scale, nil
}

func parseFraction(text string) (uint64, error) {
	if !isDigits(text) {
		return 0, ErrMalformed
	}
	if len(text) > Precision {
		return 0, ErrExceededPrecision
	}
	fraction, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	for i := len(text); i < Precision; i++ {
		fraction *= 10
	}
	return fraction, nil
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CheckedAdd returns a + b, or false if the sum does not fit in an Amount.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	sum := a.units + b.units
	if sum < a.units {
		return Amount{}, false
	}
	return Amount{units: sum}, true
}

// Add returns a + b. It panics if the sum overflows, so callers that take
// untrusted input must use CheckedAdd first.
func (a Amount) Add(b Amount) Amount {
	sum, ok := a.CheckedAdd(b)
	if !ok {
		panic(fmt.Sprintf("money: adding %s to %s would overflow", b, a))
	}
	return sum
}

// Sub returns a - b. It panics if b is larger than a: amounts cannot go negative,
// so callers must clamp before subtracting.
func (a Amount) Sub(b Amount) Amount {
	if b.units > a.units {
		panic(fmt.Sprintf("money: subtracting %s from %s would underflow", b, a))
	}
	return Amount{units: a.units - b.units}
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if b.units < a.units {
		return b
	}
	return a
}

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.units < b.units:
		return -1
	case a.units > b.units:
		return 1
	default:
		return 0
	}
}

// Less reports whether a < b.
func (a Amount) Less(b Amount) bool {
	return a.units < b.units
}

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a.units == 0
}

// IsPositive reports whether a is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.units > 0
}

// String renders the amount as "whole.fraction", keeping at least one fractional digit.
func (a Amount) String() string {
	whole := a.units / Scale
	fraction := a.units % Scale

	digits := fmt.Sprintf("%0*d", Precision, fraction)
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		digits = "0"
	}

	return strconv.FormatUint(whole, 10) + "." + digits
}

// Decimal converts the amount to an arbitrary-precision decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.units), -Precision)
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", string(text), err)
	}
	*a = parsed
	return nil
}
