package ir

import (
	"math"
	"math/bits"
)

// Checked uint64 arithmetic. Every overflow is ARITHMETIC_OVERFLOW; no
// amount ever wraps.

// Add returns a+b.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, Errorf(CodeArithmeticOverflow, "%d + %d overflows", a, b)
	}
	return sum, nil
}

// Sub returns a-b. Underflow is reported as ARITHMETIC_OVERFLOW; callers
// that can distinguish an insufficient balance check it first.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, Errorf(CodeArithmeticOverflow, "%d - %d underflows", a, b)
	}
	return diff, nil
}

// Mul returns a*b.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, Errorf(CodeArithmeticOverflow, "%d * %d overflows", a, b)
	}
	return lo, nil
}

// MulDiv returns floor(a*b/c) using a 128-bit intermediate.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, Errorf(CodeArithmeticOverflow, "division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, Errorf(CodeArithmeticOverflow, "%d * %d / %d overflows", a, b, c)
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}

// MulDivCeil returns ceil(a*b/c).
func MulDivCeil(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, Errorf(CodeArithmeticOverflow, "division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, Errorf(CodeArithmeticOverflow, "%d * %d / %d overflows", a, b, c)
	}
	quo, rem := bits.Div64(hi, lo, c)
	if rem != 0 {
		if quo == math.MaxUint64 {
			return 0, Errorf(CodeArithmeticOverflow, "%d * %d / %d overflows", a, b, c)
		}
		quo++
	}
	return quo, nil
}

// MustAdd is Add for values already proven in range. A failure is an
// invariant breach.
func MustAdd(a, b uint64) uint64 {
	v, err := Add(a, b)
	if err != nil {
		Breach("checked-add", "%v", err)
	}
	return v
}

// MustSub is Sub for values already proven in range.
func MustSub(a, b uint64) uint64 {
	v, err := Sub(a, b)
	if err != nil {
		Breach("checked-sub", "%v", err)
	}
	return v
}

// MaxTime is the largest representable logical time. Times are persisted as
// signed 64-bit integers.
const MaxTime uint64 = math.MaxInt64

// AddTime returns t+d, rejecting results beyond MaxTime.
func AddTime(t, d uint64) (uint64, error) {
	sum, err := Add(t, d)
	if err != nil || sum > MaxTime {
		return 0, Errorf(CodeArithmeticOverflow, "time %d + %d exceeds %d", t, d, MaxTime)
	}
	return sum, nil
}
