package entities

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Odds is a rational payout multiplier (numerator / denominator).
// Consensus code only ever compares and multiplies the integer parts.
type Odds struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// NewOdds creates odds and validates them
func NewOdds(numerator, denominator uint32) (Odds, error) {
	o := Odds{Numerator: numerator, Denominator: denominator}
	if err := o.Validate(); err != nil {
		return Odds{}, err
	}
	return o, nil
}

// ParseOdds reads odds in "n/d" form
func ParseOdds(s string) (Odds, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Odds{}, NewValidationError("odds %q must be in n/d form", s)
	}

	n, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return Odds{}, NewValidationError("invalid odds numerator %q", parts[0])
	}
	d, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return Odds{}, NewValidationError("invalid odds denominator %q", parts[1])
	}

	return NewOdds(uint32(n), uint32(d))
}

// Validate checks that both parts are positive and the multiplier is not exactly 1
func (o Odds) Validate() error {
	if o.Numerator == 0 {
		return NewValidationError("odds numerator must be positive")
	}
	if o.Denominator == 0 {
		return NewValidationError("odds denominator must be positive")
	}
	if o.Numerator == o.Denominator {
		return NewValidationError("odds %s have multiplier 1 and cannot be matched", o)
	}
	return nil
}

// String renders odds as "n/d"
func (o Odds) String() string {
	return fmt.Sprintf("%d/%d", o.Numerator, o.Denominator)
}

// Inverted swaps numerator and denominator
func (o Odds) Inverted() Odds {
	return Odds{Numerator: o.Denominator, Denominator: o.Numerator}
}

// Simplified reduces the fraction by its greatest common divisor
func (o Odds) Simplified() Odds {
	g := gcd(o.Numerator, o.Denominator)
	if g <= 1 {
		return o
	}
	return Odds{Numerator: o.Numerator / g, Denominator: o.Denominator / g}
}

// Base returns the canonical form of the complementary pair: simplified, with multiplier < 1
func (o Odds) Base() Odds {
	s := o.Simplified()
	if s.Numerator > s.Denominator {
		return s.Inverted()
	}
	return s
}

// IsComplementary reports whether other is exactly the inverse of o
func (o Odds) IsComplementary(other Odds) bool {
	return o.Simplified().Inverted() == other.Simplified()
}

// GreaterThanOne reports whether the multiplier exceeds 1 (the payout side of a match)
func (o Odds) GreaterThanOne() bool {
	return o.Numerator > o.Denominator
}

// Decimal returns the multiplier for display; it is never used for matching
func (o Odds) Decimal() decimal.Decimal {
	if o.Denominator == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(o.Numerator)).DivRound(decimal.NewFromInt(int64(o.Denominator)), 8)
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
