// Package row defines the argument rows that carry a stream's free
// variables to user functions.
//
// A stream of arity one passes its single value directly. Streams of arity
// two to four pass a Bi, Tri or Quad row, so every pipeline operation is
// written once as func(In) and the arity is still checked at compile time.
package row

import "github.com/cockroachdb/errors"

// Bi carries the two free variables of a bi stream.
type Bi[A, B any] struct {
	A A
	B B
}

// Tri carries the three free variables of a tri stream.
type Tri[A, B, C any] struct {
	A A
	B B
	C C
}

// Quad carries the four free variables of a quad stream.
type Quad[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// BiOf adapts a two-argument function to a Bi row.
func BiOf[A, B, R any](fn func(A, B) R) func(Bi[A, B]) R {
	return func(r Bi[A, B]) R { return fn(r.A, r.B) }
}

// TriOf adapts a three-argument function to a Tri row.
func TriOf[A, B, C, R any](fn func(A, B, C) R) func(Tri[A, B, C]) R {
	return func(r Tri[A, B, C]) R { return fn(r.A, r.B, r.C) }
}

// QuadOf adapts a four-argument function to a Quad row.
func QuadOf[A, B, C, D, R any](fn func(A, B, C, D) R) func(Quad[A, B, C, D]) R {
	return func(r Quad[A, B, C, D]) R { return fn(r.A, r.B, r.C, r.D) }
}

// Values returns the slots of a row in order. Non-row values are returned as
// a single-element slice.
func Values(v any) []any {
	if r, ok := v.(interface{ values() []any }); ok {
		return r.values()
	}
	return []any{v}
}

func (r Bi[A, B]) values() []any         { return []any{r.A, r.B} }
func (r Tri[A, B, C]) values() []any     { return []any{r.A, r.B, r.C} }
func (r Quad[A, B, C, D]) values() []any { return []any{r.A, r.B, r.C, r.D} }

// As converts an erased slot value back to T. A nil slot yields the zero T;
// a value of another type means the slot layout is wrong and panics.
func As[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	t, ok := v.(T)
	if !ok {
		panic(errors.AssertionFailedf("slot holds %T, want %T", v, t))
	}
	return t
}
