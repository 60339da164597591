// Package plan defines the runtime-neutral plan fragments emitted by the
// stream compiler.
//
// The plan is the abstraction boundary between the constraint stream
// builder and whatever executes it. The builder never talks to a runtime
// directly; it produces an ordered list of fragments per constraint and a
// consequence, bundled as a Rule. Backends consume rules:
//
//	[stream builder] → [plan.Rule] → [engine]   (incremental evaluation)
//	                               → [planfmt]  (explain / fingerprint)
//
// FRAGMENTS:
//
// A rule's fragment list is evaluated in order. Each fragment either binds
// new variables or narrows the set of matches:
//   - Pattern binds a variable from facts, from a flattened iterable, or
//     re-anchors a variable bound by an earlier fragment
//   - Join restricts the most recent Pattern through an indexed comparison
//   - Filter restricts matches by a predicate over bound variables
//   - Exists keeps a match only if its sub-plan has (or lacks) a result
//   - GroupBy collapses its body into one match per key
//   - Bind derives a variable from other variables
//
// INDEXING:
//
// Runtimes only need two index kinds: a hash index for Equal and an
// ascending ordered index for LessThan / LessThanOrEqual. Descending and
// range comparisons are compiled away by flipping the joiner type and
// marking the join as Swapped, so a Join reaching a runtime always carries
// one of the three native types.
//
// SEALED INTERFACES:
//
// Fragment and Source are sealed with marker methods. Only types in this
// package implement them, which keeps type switches in backends exhaustive:
//
//	switch f := fragment.(type) {
//	case *Pattern:
//	case *Join:
//	case *Filter:
//	case *Exists:
//	case *GroupBy:
//	case *Bind:
//	}
//
// IMMUTABILITY:
//
// Fragments are never mutated after construction. Builders share fragment
// values freely between rules and copy slices before appending.
package plan
