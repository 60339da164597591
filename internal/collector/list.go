package collector

import "container/list"

// ToList collects the values of fn in contribution order.
//
// Each contribution owns its own list element and its undo removes exactly
// that element, so equal values contributed by different inputs are never
// confused: the surviving elements keep the order in which they were added.
func ToList[In, T any](fn func(In) T) Collector[In, []T] {
	if fn == nil {
		return Collector[In, []T]{}
	}
	return Of(
		list.New,
		func(l *list.List, in In) Undo {
			e := l.PushBack(fn(in))
			return func() { l.Remove(e) }
		},
		func(l *list.List) []T {
			out := make([]T, 0, l.Len())
			for e := l.Front(); e != nil; e = e.Next() {
				v, _ := e.Value.(T)
				out = append(out, v)
			}
			return out
		},
	)
}
