package stream

import (
	"slices"

	"github.com/roach88/scorestream/internal/joiner"
	"github.com/roach88/scorestream/internal/plan"
	"github.com/roach88/scorestream/internal/row"
)

// compiledJoin is a joiner lowered to plan fragments for a right variable.
type compiledJoin struct {
	right  *plan.Variable
	source plan.FactSource
	joins  []*plan.Join
	filter *plan.Filter
}

// compileJoiner lowers joiners between the stream's free variables and a
// new fact variable of type R. Descending comparisons are flipped to their
// ascending form so that runtimes only index Equal, LessThan and
// LessThanOrEqual.
func compileJoiner[In, R any](l *lhs, pack func([]any) In, includeUnassigned bool, joiners []joiner.Joiner[In, R]) (compiledJoin, error) {
	indexes, filter, err := joiner.And(joiners...).Split()
	if err != nil {
		return compiledJoin{}, err
	}
	typ := plan.TypeOf[R]()
	right := l.factory.newVariable(variableName(typ), typ)
	left := l.variables()

	c := compiledJoin{right: right, source: l.factory.source(typ, includeUnassigned)}
	for _, ix := range indexes {
		native, swapped := ix.Type.Ascending()
		leftKey, rightKey := ix.Left, ix.Right
		c.joins = append(c.joins, &plan.Join{
			Right:    right,
			Left:     left,
			LeftKey:  func(args []any) any { return leftKey(pack(args)) },
			RightKey: func(v any) any { return rightKey(row.As[R](v)) },
			Type:     native,
			Swapped:  swapped,
			Range:    ix.Type.IsRange(),
			Compare:  ix.Compare,
		})
	}
	if filter != nil {
		n := len(left)
		c.filter = &plan.Filter{
			Inputs: append(left[:n:n], right),
			Predicate: func(args []any) bool {
				return filter(pack(args[:n]), row.As[R](args[n]))
			},
		}
	}
	return c, nil
}

func joinWith[In, R any](s Stream[In], joiners []joiner.Joiner[In, R]) *lhs {
	if s.lhs.err != nil {
		return s.lhs
	}
	c, err := compileJoiner(s.lhs, s.pack, false, joiners)
	if err != nil {
		return s.lhs.withErr(err)
	}
	return s.lhs.join(c.right, c.source, c.joins, c.filter)
}

// Join extends a uni stream with every fact of type B matching all joiners.
func Join[A, B any](s UniStream[A], joiners ...joiner.Joiner[A, B]) BiStream[A, B] {
	return bi[A, B](joinWith(s, joiners))
}

// JoinBi extends a bi stream with every fact of type C matching all joiners.
func JoinBi[A, B, C any](s BiStream[A, B], joiners ...joiner.Joiner[row.Bi[A, B], C]) TriStream[A, B, C] {
	return tri[A, B, C](joinWith(s, joiners))
}

// JoinTri extends a tri stream with every fact of type D matching all
// joiners.
func JoinTri[A, B, C, D any](s TriStream[A, B, C], joiners ...joiner.Joiner[row.Tri[A, B, C], D]) QuadStream[A, B, C, D] {
	return quad[A, B, C, D](joinWith(s, joiners))
}

func existsWith[In, R any](s Stream[In], negated, includeUnassigned bool, joiners []joiner.Joiner[In, R]) Stream[In] {
	if s.lhs.err != nil {
		return s
	}
	c, err := compileJoiner(s.lhs, s.pack, includeUnassigned, joiners)
	if err != nil {
		return s.with(s.lhs.withErr(err))
	}
	return s.with(s.lhs.exists(negated, c.right, c.source, c.joins, c.filter))
}

// IfExists keeps the matches for which at least one fact of type R matches
// all joiners. The arity is unchanged.
func IfExists[In, R any](s Stream[In], joiners ...joiner.Joiner[In, R]) Stream[In] {
	return existsWith(s, false, false, joiners)
}

// IfNotExists keeps the matches for which no fact of type R matches all
// joiners.
func IfNotExists[In, R any](s Stream[In], joiners ...joiner.Joiner[In, R]) Stream[In] {
	return existsWith(s, true, false, joiners)
}

// IfExistsIncludingUnassigned is IfExists without R's nullity filter.
func IfExistsIncludingUnassigned[In, R any](s Stream[In], joiners ...joiner.Joiner[In, R]) Stream[In] {
	return existsWith(s, false, true, joiners)
}

// IfNotExistsIncludingUnassigned is IfNotExists without R's nullity filter.
func IfNotExistsIncludingUnassigned[In, R any](s Stream[In], joiners ...joiner.Joiner[In, R]) Stream[In] {
	return existsWith(s, true, true, joiners)
}

// IfExistsOther keeps the facts for which another fact of the same type
// matches all joiners. Facts are told apart by identity, so A should be a
// pointer type.
func IfExistsOther[A any](s UniStream[A], joiners ...joiner.Joiner[A, A]) UniStream[A] {
	return existsWith(s, false, false, append(slices.Clip(joiners), other[A]()))
}

// IfNotExistsOther keeps the facts for which no other fact of the same type
// matches all joiners.
func IfNotExistsOther[A any](s UniStream[A], joiners ...joiner.Joiner[A, A]) UniStream[A] {
	return existsWith(s, true, false, append(slices.Clip(joiners), other[A]()))
}

func other[A any]() joiner.Joiner[A, A] {
	return joiner.Filtering(func(a, b A) bool { return any(a) != any(b) })
}
