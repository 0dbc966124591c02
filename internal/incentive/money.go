package incentive

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be a non-negative whole number")

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// ParseAmount parses a money string in minor units. Fractions, negatives and
// values outside int64 are rejected. Thousands separators are not accepted.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() || !d.IsInteger() || d.GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}
