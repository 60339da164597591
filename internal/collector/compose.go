package collector

// Conditionally feeds delegate only the inputs for which pred holds. Other
// inputs get a no-op undo. The empty result is delegate's empty result.
func Conditionally[In, R any](pred func(In) bool, delegate Collector[In, R]) Collector[In, R] {
	if pred == nil || !delegate.Valid() {
		return Collector[In, R]{}
	}
	return Collector[In, R]{
		supply: delegate.supply,
		accumulate: func(c any, in In) Undo {
			if !pred(in) {
				return NoUndo
			}
			return delegate.accumulate(c, in)
		},
		finish: delegate.finish,
	}
}

// Map transforms the result of c.
func Map[In, R, T any](c Collector[In, R], fn func(R) T) Collector[In, T] {
	if fn == nil || !c.Valid() {
		return Collector[In, T]{}
	}
	return Collector[In, T]{
		supply:     c.supply,
		accumulate: c.accumulate,
		finish:     func(container any) T { return fn(c.finish(container)) },
	}
}

type part[In any] struct {
	supply     func() any
	accumulate func(container any, in In) Undo
}

func composeOf[In, R any](parts []part[In], finish func(containers []any) R) Collector[In, R] {
	for _, p := range parts {
		if p.supply == nil || p.accumulate == nil {
			return Collector[In, R]{}
		}
	}
	return Collector[In, R]{
		supply: func() any {
			containers := make([]any, len(parts))
			for i, p := range parts {
				containers[i] = p.supply()
			}
			return containers
		},
		accumulate: func(c any, in In) Undo {
			containers := c.([]any)
			undos := make([]Undo, len(parts))
			for i, p := range parts {
				undos[i] = p.accumulate(containers[i], in)
			}
			return func() {
				for _, u := range undos {
					u()
				}
			}
		},
		finish: func(c any) R { return finish(c.([]any)) },
	}
}

func partOf[In, R any](c Collector[In, R]) part[In] {
	return part[In]{supply: c.supply, accumulate: c.accumulate}
}

// Compose2 runs two collectors over the same inputs and combines their
// results.
func Compose2[In, R1, R2, R any](c1 Collector[In, R1], c2 Collector[In, R2], combine func(R1, R2) R) Collector[In, R] {
	if !c1.Valid() || !c2.Valid() || combine == nil {
		return Collector[In, R]{}
	}
	return composeOf([]part[In]{partOf(c1), partOf(c2)}, func(cs []any) R {
		return combine(c1.finish(cs[0]), c2.finish(cs[1]))
	})
}

// Compose3 runs three collectors over the same inputs and combines their
// results.
func Compose3[In, R1, R2, R3, R any](c1 Collector[In, R1], c2 Collector[In, R2], c3 Collector[In, R3], combine func(R1, R2, R3) R) Collector[In, R] {
	if !c1.Valid() || !c2.Valid() || !c3.Valid() || combine == nil {
		return Collector[In, R]{}
	}
	return composeOf([]part[In]{partOf(c1), partOf(c2), partOf(c3)}, func(cs []any) R {
		return combine(c1.finish(cs[0]), c2.finish(cs[1]), c3.finish(cs[2]))
	})
}

// Compose4 runs four collectors over the same inputs and combines their
// results.
func Compose4[In, R1, R2, R3, R4, R any](c1 Collector[In, R1], c2 Collector[In, R2], c3 Collector[In, R3], c4 Collector[In, R4], combine func(R1, R2, R3, R4) R) Collector[In, R] {
	if !c1.Valid() || !c2.Valid() || !c3.Valid() || !c4.Valid() || combine == nil {
		return Collector[In, R]{}
	}
	return composeOf([]part[In]{partOf(c1), partOf(c2), partOf(c3), partOf(c4)}, func(cs []any) R {
		return combine(c1.finish(cs[0]), c2.finish(cs[1]), c3.finish(cs[2]), c4.finish(cs[3]))
	})
}
