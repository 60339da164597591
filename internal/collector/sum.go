package collector

import (
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// Number is any Go numeric type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

type total[T any] struct {
	sum T
}

// SumFunc sums the values of fn with a caller-supplied arithmetic. sub must
// exactly reverse add.
func SumFunc[In, T any](fn func(In) T, zero T, add, sub func(a, b T) T) Collector[In, T] {
	if fn == nil || add == nil || sub == nil {
		return Collector[In, T]{}
	}
	return Of(
		func() *total[T] { return &total[T]{sum: zero} },
		func(t *total[T], in In) Undo {
			v := fn(in)
			t.sum = add(t.sum, v)
			return func() { t.sum = sub(t.sum, v) }
		},
		func(t *total[T]) T { return t.sum },
	)
}

// Sum sums the values of fn. Floating point sums are only as reversible as
// the arithmetic itself.
func Sum[In any, N Number](fn func(In) N) Collector[In, N] {
	return SumFunc(fn, 0,
		func(a, b N) N { return a + b },
		func(a, b N) N { return a - b })
}

// SumDuration sums durations.
func SumDuration[In any](fn func(In) time.Duration) Collector[In, time.Duration] {
	return Sum(fn)
}

// exactCtx performs unrounded decimal addition and subtraction.
var exactCtx = apd.BaseContext.WithPrecision(0)

// quoCtx divides with decimal128 precision.
var quoCtx = apd.BaseContext.WithPrecision(34)

type decimalTotal struct {
	sum apd.Decimal
}

func mustDecimal(_ apd.Condition, err error) {
	if err != nil {
		panic(errors.Wrap(err, "decimal arithmetic"))
	}
}

// SumDecimal sums decimals exactly. Nil values contribute nothing.
func SumDecimal[In any](fn func(In) *apd.Decimal) Collector[In, *apd.Decimal] {
	if fn == nil {
		return Collector[In, *apd.Decimal]{}
	}
	return Of(
		func() *decimalTotal { return &decimalTotal{} },
		func(t *decimalTotal, in In) Undo {
			v := fn(in)
			if v == nil {
				return NoUndo
			}
			var d apd.Decimal
			d.Set(v)
			mustDecimal(exactCtx.Add(&t.sum, &t.sum, &d))
			return func() { mustDecimal(exactCtx.Sub(&t.sum, &t.sum, &d)) }
		},
		func(t *decimalTotal) *apd.Decimal { return new(apd.Decimal).Set(&t.sum) },
	)
}

type bigTotal struct {
	sum big.Int
}

// SumBigInt sums arbitrary precision integers. Nil values contribute
// nothing.
func SumBigInt[In any](fn func(In) *big.Int) Collector[In, *big.Int] {
	if fn == nil {
		return Collector[In, *big.Int]{}
	}
	return Of(
		func() *bigTotal { return &bigTotal{} },
		func(t *bigTotal, in In) Undo {
			v := fn(in)
			if v == nil {
				return NoUndo
			}
			d := new(big.Int).Set(v)
			t.sum.Add(&t.sum, d)
			return func() { t.sum.Sub(&t.sum, d) }
		},
		func(t *bigTotal) *big.Int { return new(big.Int).Set(&t.sum) },
	)
}

// NoUndo is the undo of a contribution that changed nothing.
func NoUndo() {}
