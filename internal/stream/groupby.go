package stream

import (
	"fmt"

	"github.com/roach88/scorestream/internal/collector"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
	"github.com/roach88/scorestream/internal/tuple"
)

func keyOf[In any, K comparable](pack func([]any) In, name string, fn func(In) K) keySpec {
	spec := keySpec{name: name, typ: plan.TypeOf[K]()}
	if fn != nil {
		spec.fn = func(args []any) any { return fn(pack(args)) }
	}
	return spec
}

func accOf[In, R any](pack func([]any) In, name string, c collector.Collector[In, R]) accSpec {
	return accSpec{
		name:  name,
		typ:   plan.TypeOf[R](),
		valid: c.Valid(),
		def: func(inputs []*plan.Variable) plan.Accumulator {
			return newAccumulator(c, inputs, pack)
		},
	}
}

func numbered(prefix string, i, n int) string {
	if n == 1 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, i+1)
}

func biTuple[A, B comparable]() *tupleSpec {
	return &tupleSpec{
		typ: plan.TypeOf[tuple.BiTuple[A, B]](),
		compose: func(k []any) any {
			return tuple.NewBi(row.As[A](k[0]), row.As[B](k[1]))
		},
		extract: []func(any) any{
			func(t any) any { return t.(tuple.BiTuple[A, B]).A() },
			func(t any) any { return t.(tuple.BiTuple[A, B]).B() },
		},
	}
}

func triTuple[A, B, C comparable]() *tupleSpec {
	return &tupleSpec{
		typ: plan.TypeOf[tuple.TriTuple[A, B, C]](),
		compose: func(k []any) any {
			return tuple.NewTri(row.As[A](k[0]), row.As[B](k[1]), row.As[C](k[2]))
		},
		extract: []func(any) any{
			func(t any) any { return t.(tuple.TriTuple[A, B, C]).A() },
			func(t any) any { return t.(tuple.TriTuple[A, B, C]).B() },
			func(t any) any { return t.(tuple.TriTuple[A, B, C]).C() },
		},
	}
}

func quadTuple[A, B, C, D comparable]() *tupleSpec {
	return &tupleSpec{
		typ: plan.TypeOf[tuple.QuadTuple[A, B, C, D]](),
		compose: func(k []any) any {
			return tuple.NewQuad(row.As[A](k[0]), row.As[B](k[1]), row.As[C](k[2]), row.As[D](k[3]))
		},
		extract: []func(any) any{
			func(t any) any { return t.(tuple.QuadTuple[A, B, C, D]).A() },
			func(t any) any { return t.(tuple.QuadTuple[A, B, C, D]).B() },
			func(t any) any { return t.(tuple.QuadTuple[A, B, C, D]).C() },
			func(t any) any { return t.(tuple.QuadTuple[A, B, C, D]).D() },
		},
	}
}

// GroupBy collapses the stream into one match per distinct key.
func GroupBy[In any, K comparable](s Stream[In], key func(In) K) UniStream[K] {
	return uni[K](s.lhs.groupBy([]keySpec{keyOf(s.pack, "key", key)}, nil, nil))
}

// GroupBy2 collapses the stream into one match per distinct pair of keys.
func GroupBy2[In any, K1, K2 comparable](s Stream[In], key1 func(In) K1, key2 func(In) K2) BiStream[K1, K2] {
	return bi[K1, K2](s.lhs.groupBy([]keySpec{
		keyOf(s.pack, "key1", key1),
		keyOf(s.pack, "key2", key2),
	}, biTuple[K1, K2](), nil))
}

// GroupBy3 collapses the stream into one match per distinct triple of keys.
func GroupBy3[In any, K1, K2, K3 comparable](s Stream[In], key1 func(In) K1, key2 func(In) K2, key3 func(In) K3) TriStream[K1, K2, K3] {
	return tri[K1, K2, K3](s.lhs.groupBy([]keySpec{
		keyOf(s.pack, "key1", key1),
		keyOf(s.pack, "key2", key2),
		keyOf(s.pack, "key3", key3),
	}, triTuple[K1, K2, K3](), nil))
}

// GroupBy4 collapses the stream into one match per distinct quadruple of
// keys.
func GroupBy4[In any, K1, K2, K3, K4 comparable](s Stream[In], key1 func(In) K1, key2 func(In) K2, key3 func(In) K3, key4 func(In) K4) QuadStream[K1, K2, K3, K4] {
	return quad[K1, K2, K3, K4](s.lhs.groupBy([]keySpec{
		keyOf(s.pack, "key1", key1),
		keyOf(s.pack, "key2", key2),
		keyOf(s.pack, "key3", key3),
		keyOf(s.pack, "key4", key4),
	}, quadTuple[K1, K2, K3, K4](), nil))
}

// Collect aggregates the whole stream into a single match. The match exists
// only while at least one input contributes to it.
func Collect[In, R any](s Stream[In], c collector.Collector[In, R]) UniStream[R] {
	return uni[R](s.lhs.groupBy(nil, nil, []accSpec{accOf(s.pack, "result", c)}))
}

// Collect2 aggregates the whole stream with two collectors.
func Collect2[In, R1, R2 any](s Stream[In], c1 collector.Collector[In, R1], c2 collector.Collector[In, R2]) BiStream[R1, R2] {
	return bi[R1, R2](s.lhs.groupBy(nil, nil, []accSpec{
		accOf(s.pack, numbered("result", 0, 2), c1),
		accOf(s.pack, numbered("result", 1, 2), c2),
	}))
}

// Collect3 aggregates the whole stream with three collectors.
func Collect3[In, R1, R2, R3 any](s Stream[In], c1 collector.Collector[In, R1], c2 collector.Collector[In, R2], c3 collector.Collector[In, R3]) TriStream[R1, R2, R3] {
	return tri[R1, R2, R3](s.lhs.groupBy(nil, nil, []accSpec{
		accOf(s.pack, numbered("result", 0, 3), c1),
		accOf(s.pack, numbered("result", 1, 3), c2),
		accOf(s.pack, numbered("result", 2, 3), c3),
	}))
}

// Collect4 aggregates the whole stream with four collectors.
func Collect4[In, R1, R2, R3, R4 any](s Stream[In], c1 collector.Collector[In, R1], c2 collector.Collector[In, R2], c3 collector.Collector[In, R3], c4 collector.Collector[In, R4]) QuadStream[R1, R2, R3, R4] {
	return quad[R1, R2, R3, R4](s.lhs.groupBy(nil, nil, []accSpec{
		accOf(s.pack, numbered("result", 0, 4), c1),
		accOf(s.pack, numbered("result", 1, 4), c2),
		accOf(s.pack, numbered("result", 2, 4), c3),
		accOf(s.pack, numbered("result", 3, 4), c4),
	}))
}

// GroupByCollect aggregates each group with one collector.
func GroupByCollect[In any, K comparable, R any](s Stream[In], key func(In) K, c collector.Collector[In, R]) BiStream[K, R] {
	return bi[K, R](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key", key)}, nil,
		[]accSpec{accOf(s.pack, "result", c)},
	))
}

// GroupByCollect2 aggregates each group with two collectors.
func GroupByCollect2[In any, K comparable, R1, R2 any](s Stream[In], key func(In) K, c1 collector.Collector[In, R1], c2 collector.Collector[In, R2]) TriStream[K, R1, R2] {
	return tri[K, R1, R2](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key", key)}, nil,
		[]accSpec{
			accOf(s.pack, "result1", c1),
			accOf(s.pack, "result2", c2),
		},
	))
}

// GroupByCollect3 aggregates each group with three collectors.
func GroupByCollect3[In any, K comparable, R1, R2, R3 any](s Stream[In], key func(In) K, c1 collector.Collector[In, R1], c2 collector.Collector[In, R2], c3 collector.Collector[In, R3]) QuadStream[K, R1, R2, R3] {
	return quad[K, R1, R2, R3](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key", key)}, nil,
		[]accSpec{
			accOf(s.pack, "result1", c1),
			accOf(s.pack, "result2", c2),
			accOf(s.pack, "result3", c3),
		},
	))
}

// GroupBy2Collect aggregates each pair of keys with one collector.
func GroupBy2Collect[In any, K1, K2 comparable, R any](s Stream[In], key1 func(In) K1, key2 func(In) K2, c collector.Collector[In, R]) TriStream[K1, K2, R] {
	return tri[K1, K2, R](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key1", key1), keyOf(s.pack, "key2", key2)},
		biTuple[K1, K2](),
		[]accSpec{accOf(s.pack, "result", c)},
	))
}

// GroupBy2Collect2 aggregates each pair of keys with two collectors.
func GroupBy2Collect2[In any, K1, K2 comparable, R1, R2 any](s Stream[In], key1 func(In) K1, key2 func(In) K2, c1 collector.Collector[In, R1], c2 collector.Collector[In, R2]) QuadStream[K1, K2, R1, R2] {
	return quad[K1, K2, R1, R2](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key1", key1), keyOf(s.pack, "key2", key2)},
		biTuple[K1, K2](),
		[]accSpec{accOf(s.pack, "result1", c1), accOf(s.pack, "result2", c2)},
	))
}

// GroupBy3Collect aggregates each triple of keys with one collector.
func GroupBy3Collect[In any, K1, K2, K3 comparable, R any](s Stream[In], key1 func(In) K1, key2 func(In) K2, key3 func(In) K3, c collector.Collector[In, R]) QuadStream[K1, K2, K3, R] {
	return quad[K1, K2, K3, R](s.lhs.groupBy(
		[]keySpec{keyOf(s.pack, "key1", key1), keyOf(s.pack, "key2", key2), keyOf(s.pack, "key3", key3)},
		triTuple[K1, K2, K3](),
		[]accSpec{accOf(s.pack, "result", c)},
	))
}
