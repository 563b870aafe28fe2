package ir

import (
	"github.com/shopspring/decimal"
)

// AccumulatorPrecision is the number of fractional digits kept in reward
// accumulators. Extra digits are truncated toward zero.
const AccumulatorPrecision int32 = 18

// RewardPerShare returns elapsed*rate/totalShare truncated to
// AccumulatorPrecision digits. totalShare must be non-zero.
func RewardPerShare(elapsed, rate, totalShare uint64) decimal.Decimal {
	num := decimal.NewFromUint64(elapsed).Mul(decimal.NewFromUint64(rate))
	q, _ := num.QuoRem(decimal.NewFromUint64(totalShare), AccumulatorPrecision)
	return q
}

// MulFloor returns floor(d*n) as uint64. d must be non-negative.
func MulFloor(d decimal.Decimal, n uint64) (uint64, error) {
	if d.IsNegative() {
		return 0, Errorf(CodeArithmeticOverflow, "negative factor %s", d)
	}
	v := d.Mul(decimal.NewFromUint64(n)).Floor().BigInt()
	if !v.IsUint64() {
		return 0, Errorf(CodeArithmeticOverflow, "%s * %d overflows", d, n)
	}
	return v.Uint64(), nil
}

// MeetsFraction reports whether part >= frac*whole, evaluated exactly.
func MeetsFraction(part, whole uint64, frac decimal.Decimal) bool {
	return decimal.NewFromUint64(part).GreaterThanOrEqual(
		frac.Mul(decimal.NewFromUint64(whole)))
}

// ParseDecimal parses a non-negative decimal string.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Wrap(CodeInvalidArgument, err, "invalid decimal "+s)
	}
	if d.IsNegative() {
		return decimal.Zero, Errorf(CodeInvalidArgument, "negative decimal %s", s)
	}
	return d, nil
}

// FormatDecimal renders d without exponent, as stored in the database.
func FormatDecimal(d decimal.Decimal) string {
	return d.String()
}
