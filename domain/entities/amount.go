package entities

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// AddStake returns a+b, failing when either operand is negative or the sum leaves int64
func AddStake(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("%w: negative stake in addition (%d + %d)", ErrOverflow, a, b)
	}
	if a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: %d + %d exceeds maximum stake", ErrOverflow, a, b)
	}
	return a + b, nil
}

// SubStake returns a-b, failing when the result would be negative
func SubStake(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("%w: negative stake in subtraction (%d - %d)", ErrOverflow, a, b)
	}
	if b > a {
		return 0, fmt.Errorf("%w: %d - %d underflows", ErrOverflow, a, b)
	}
	return a - b, nil
}

// MulDiv computes floor(amount * mul / div) with a 256-bit intermediate.
// The result must fit back into a non-negative int64.
func MulDiv(amount int64, mul, div uint64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount %d", ErrOverflow, amount)
	}
	if div == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrOverflow)
	}

	x := uint256.NewInt(uint64(amount))
	x.Mul(x, uint256.NewInt(mul))
	x.Div(x, uint256.NewInt(div))

	if !x.IsUint64() || x.Uint64() > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d * %d / %d exceeds maximum stake", ErrOverflow, amount, mul, div)
	}
	return int64(x.Uint64()), nil
}
