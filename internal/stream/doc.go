// Package stream compiles fluent constraint streams into plan rules.
//
// A constraint starts from ForEach, is narrowed by filters, joins and
// existence tests, optionally regrouped by group-by or map operations, and
// is finished by a penalty or reward and a name:
//
//	f := stream.NewFactory()
//	c := stream.Join(stream.ForEach[*Person](f),
//		joiner.EqualBy(func(p *Person) int { return p.Age }),
//		joiner.LessThan(personName, personName)).
//		Penalize(1).
//		AsConstraint("Same age")
//
// Streams carry up to four free variables. Operations that keep the arity
// are methods; operations that change it are package functions, one per
// arity where the signatures differ.
//
// PATTERN VARIABLES:
//
// Each free variable owns the fragments that produce it. A direct variable
// is read off a Pattern and can take indexed joins; an indirect variable is
// derived by a Bind; a detached variable is a side output of a group-by and
// cannot be filtered or joined on. Filters and existence tests attach to
// the last variable, which is always direct or indirect.
//
// ERRORS:
//
// Misuse such as an indexing joiner after a filtering joiner or a nil
// function is recorded on the stream and reported by Constraint.Err as a
// *plan.ConfigError. No plan reaches a runtime until every constraint built
// cleanly.
package stream
