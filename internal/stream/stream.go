package stream

import (
	"cmp"

	"github.com/roach88/scorestream/internal/joiner"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
)

// Stream is an immutable pipeline whose free variables reach user functions
// as In: the value itself for a uni stream, or a row.Bi, row.Tri or
// row.Quad for wider streams.
//
// Every operation returns a new Stream and leaves the receiver usable, so a
// stream can be branched into several constraints. Operations that change
// the arity are package functions because Go methods cannot introduce type
// parameters.
type Stream[In any] struct {
	lhs  *lhs
	pack func(args []any) In
}

// UniStream carries one free variable.
type UniStream[A any] = Stream[A]

// BiStream carries two free variables.
type BiStream[A, B any] = Stream[row.Bi[A, B]]

// TriStream carries three free variables.
type TriStream[A, B, C any] = Stream[row.Tri[A, B, C]]

// QuadStream carries four free variables.
type QuadStream[A, B, C, D any] = Stream[row.Quad[A, B, C, D]]

func packUni[A any](args []any) A {
	return row.As[A](args[0])
}

func packBi[A, B any](args []any) row.Bi[A, B] {
	return row.Bi[A, B]{A: row.As[A](args[0]), B: row.As[B](args[1])}
}

func packTri[A, B, C any](args []any) row.Tri[A, B, C] {
	return row.Tri[A, B, C]{A: row.As[A](args[0]), B: row.As[B](args[1]), C: row.As[C](args[2])}
}

func packQuad[A, B, C, D any](args []any) row.Quad[A, B, C, D] {
	return row.Quad[A, B, C, D]{A: row.As[A](args[0]), B: row.As[B](args[1]), C: row.As[C](args[2]), D: row.As[D](args[3])}
}

func uni[A any](l *lhs) UniStream[A] {
	return Stream[A]{lhs: l, pack: packUni[A]}
}

func bi[A, B any](l *lhs) BiStream[A, B] {
	return Stream[row.Bi[A, B]]{lhs: l, pack: packBi[A, B]}
}

func tri[A, B, C any](l *lhs) TriStream[A, B, C] {
	return Stream[row.Tri[A, B, C]]{lhs: l, pack: packTri[A, B, C]}
}

func quad[A, B, C, D any](l *lhs) QuadStream[A, B, C, D] {
	return Stream[row.Quad[A, B, C, D]]{lhs: l, pack: packQuad[A, B, C, D]}
}

func (s Stream[In]) with(l *lhs) Stream[In] {
	return Stream[In]{lhs: l, pack: s.pack}
}

// Err returns the configuration error recorded so far, if any.
func (s Stream[In]) Err() error {
	return s.lhs.err
}

// Arity returns the number of free variables.
func (s Stream[In]) Arity() int {
	return s.lhs.arity()
}

// Fragments returns the plan built so far.
func (s Stream[In]) Fragments() []plan.Fragment {
	return s.lhs.build()
}

// ForEach starts a uni stream over every fact of type A that passes A's
// nullity filter.
func ForEach[A any](f *Factory) UniStream[A] {
	return forEach[A](f, false)
}

// ForEachIncludingUnassigned starts a uni stream over every fact of type A.
func ForEachIncludingUnassigned[A any](f *Factory) UniStream[A] {
	return forEach[A](f, true)
}

func forEach[A any](f *Factory, includeUnassigned bool) UniStream[A] {
	typ := plan.TypeOf[A]()
	v := f.newVariable(variableName(typ), typ)
	pv := newDirectVariable(&plan.Pattern{Var: v, Source: f.source(typ, includeUnassigned)})
	return uni[A](&lhs{factory: f, vars: []patternVariable{pv}})
}

// ForEachUniquePair matches every unordered pair of distinct facts of type
// A once, ordering the pair by id.
func ForEachUniquePair[A any, ID cmp.Ordered](f *Factory, id func(A) ID, joiners ...joiner.Joiner[A, A]) BiStream[A, A] {
	if id == nil {
		return bi[A, A](&lhs{factory: f, err: plan.NewConfigError(plan.CodeNilFunction, "unique pair id function is nil")})
	}
	return Join(ForEach[A](f), append([]joiner.Joiner[A, A]{joiner.LessThan(id, id)}, joiners...)...)
}

// Filter keeps the matches for which pred holds.
func (s Stream[In]) Filter(pred func(In) bool) Stream[In] {
	if pred == nil {
		return s.with(s.lhs.filter(nil))
	}
	pack := s.pack
	return s.with(s.lhs.filter(func(args []any) bool { return pred(pack(args)) }))
}

func bindOf[In, R any](pack func([]any) In, name string, fn func(In) R) bindSpec {
	spec := bindSpec{name: name, typ: plan.TypeOf[R]()}
	if fn != nil {
		spec.fn = func(args []any) any { return fn(pack(args)) }
	}
	return spec
}

// Map replaces the free variables with one derived value. Matches are not
// deduplicated; use Distinct for that.
func Map[In, R any](s Stream[In], fn func(In) R) UniStream[R] {
	return uni[R](s.lhs.mapTo([]bindSpec{bindOf(s.pack, "mapped", fn)}))
}

// Map2 replaces the free variables with two derived values.
func Map2[In, R1, R2 any](s Stream[In], fn1 func(In) R1, fn2 func(In) R2) BiStream[R1, R2] {
	return bi[R1, R2](s.lhs.mapTo([]bindSpec{
		bindOf(s.pack, "mapped1", fn1),
		bindOf(s.pack, "mapped2", fn2),
	}))
}

// Map3 replaces the free variables with three derived values.
func Map3[In, R1, R2, R3 any](s Stream[In], fn1 func(In) R1, fn2 func(In) R2, fn3 func(In) R3) TriStream[R1, R2, R3] {
	return tri[R1, R2, R3](s.lhs.mapTo([]bindSpec{
		bindOf(s.pack, "mapped1", fn1),
		bindOf(s.pack, "mapped2", fn2),
		bindOf(s.pack, "mapped3", fn3),
	}))
}

// Map4 replaces the free variables with four derived values.
func Map4[In, R1, R2, R3, R4 any](s Stream[In], fn1 func(In) R1, fn2 func(In) R2, fn3 func(In) R3, fn4 func(In) R4) QuadStream[R1, R2, R3, R4] {
	return quad[R1, R2, R3, R4](s.lhs.mapTo([]bindSpec{
		bindOf(s.pack, "mapped1", fn1),
		bindOf(s.pack, "mapped2", fn2),
		bindOf(s.pack, "mapped3", fn3),
		bindOf(s.pack, "mapped4", fn4),
	}))
}

// Distinct keeps one match per distinct combination of free variable values.
func Distinct[In comparable](s Stream[In]) Stream[In] {
	pack := s.pack
	return s.with(s.lhs.distinct(
		plan.TypeOf[In](),
		func(args []any) any { return pack(args) },
		row.Values,
	))
}

func flattenFn[T, E any](fn func(T) []E) func(any) []any {
	if fn == nil {
		return nil
	}
	return func(v any) []any {
		elems := fn(row.As[T](v))
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e
		}
		return out
	}
}

// FlattenLast replaces the value with one match per element of fn(value).
func FlattenLast[A, B any](s UniStream[A], fn func(A) []B) UniStream[B] {
	return uni[B](s.lhs.flattenLast(variableName(plan.TypeOf[B]()), plan.TypeOf[B](), flattenFn(fn)))
}

// FlattenLastBi replaces the last variable with one match per element of
// fn(last).
func FlattenLastBi[A, B, C any](s BiStream[A, B], fn func(B) []C) BiStream[A, C] {
	return bi[A, C](s.lhs.flattenLast(variableName(plan.TypeOf[C]()), plan.TypeOf[C](), flattenFn(fn)))
}

// FlattenLastTri replaces the last variable with one match per element of
// fn(last).
func FlattenLastTri[A, B, C, D any](s TriStream[A, B, C], fn func(C) []D) TriStream[A, B, D] {
	return tri[A, B, D](s.lhs.flattenLast(variableName(plan.TypeOf[D]()), plan.TypeOf[D](), flattenFn(fn)))
}

// FlattenLastQuad replaces the last variable with one match per element of
// fn(last).
func FlattenLastQuad[A, B, C, D, E any](s QuadStream[A, B, C, D], fn func(D) []E) QuadStream[A, B, C, E] {
	return quad[A, B, C, E](s.lhs.flattenLast(variableName(plan.TypeOf[E]()), plan.TypeOf[E](), flattenFn(fn)))
}
