package collector

import (
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Average returns the mean of fn, or 0 when there are no inputs.
func Average[In any, N Number](fn func(In) N) Collector[In, float64] {
	return Compose2(Count[In](), Sum(fn), func(n int, sum N) float64 {
		if n == 0 {
			return 0
		}
		return float64(sum) / float64(n)
	})
}

// AverageDuration returns the mean duration, truncated to a whole
// nanosecond, or 0 when there are no inputs.
func AverageDuration[In any](fn func(In) time.Duration) Collector[In, time.Duration] {
	return Compose2(CountLong[In](), SumDuration(fn), func(n int64, sum time.Duration) time.Duration {
		if n == 0 {
			return 0
		}
		return sum / time.Duration(n)
	})
}

// AverageDecimal returns the mean of fn to 34 significant digits, or nil
// when there are no inputs.
func AverageDecimal[In any](fn func(In) *apd.Decimal) Collector[In, *apd.Decimal] {
	return Compose2(Conditionally(func(in In) bool { return fn(in) != nil }, CountLong[In]()), SumDecimal(fn),
		divideDecimal)
}

// AverageBigInt returns the mean of fn as a decimal, or nil when there are
// no inputs.
func AverageBigInt[In any](fn func(In) *big.Int) Collector[In, *apd.Decimal] {
	return Compose2(Conditionally(func(in In) bool { return fn(in) != nil }, CountLong[In]()), SumBigInt(fn),
		func(n int64, sum *big.Int) *apd.Decimal {
			coeff := new(apd.BigInt).SetMathBigInt(sum)
			return divideDecimal(n, apd.NewWithBigInt(coeff, 0))
		})
}

func divideDecimal(n int64, sum *apd.Decimal) *apd.Decimal {
	if n == 0 {
		return nil
	}
	out := new(apd.Decimal)
	mustDecimal(quoCtx.Quo(out, sum, apd.New(n, 0)))
	out.Reduce(out)
	return out
}
