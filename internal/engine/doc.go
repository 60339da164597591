// Package engine is an in-memory runtime for compiled constraint plans.
//
// The engine consumes plan.Rule values only. It knows nothing about the
// stream builder that produced them, so any front end that emits fragments
// can be scored here.
//
// ARCHITECTURE:
//
// Plan and Sessions:
// Compile turns rules into an immutable Plan: every variable of a rule gets
// a slot in one row layout shared by all of the rule's scopes. A Plan is
// shared by any number of Sessions. Each Session owns its facts, its group
// state and its score, and is used from one goroutine at a time.
//
// Scoring Pass:
//  1. Insert, Update and Retract enqueue changes to a FIFO queue
//  2. CalculateScore drains the queue into the fact set
//  3. Rules are evaluated in plan order, fragments in rule order
//  4. Each surviving row is scored through the rule's consequence
//  5. The per constraint totals are summed into the Score
//
// Incrementality:
// Every row carries a lineage naming the facts, flattened elements and
// groups it was built from. Group-by state survives the pass: body rows are
// diffed by lineage against the previous pass, so only new, changed and
// vanished contributions reach the accumulators. Matches whose lineage is
// unchanged keep their impact.
//
// Joins, filters and existence tests are re-evaluated every pass. Joins that
// can be indexed select their candidates through a hash index (equality) or
// a sorted index (ordering comparisons) built once per pass.
//
// CRITICAL PATTERNS:
//
// Deterministic Order:
// Facts are stamped with a monotonic sequence from Clock.Next() on insert.
// Rows are produced in fact sequence order with or without indexes, and
// groups in creation order, so a plan yields the same matches in the same
// order on every run.
//
// Fatal Errors:
// A RuntimeError raised by CalculateScore poisons the session. Consequence
// panics are recovered in exactly one place and reported as
// ErrCodeConsequenceFailed.
package engine
