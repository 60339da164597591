// Package harness runs scripted scoring scenarios over the demo model.
//
// A scenario inserts, updates and retracts demo facts one step at a time.
// After every step the session score is calculated and recorded in a
// trace, and the step's expectations are checked. Because each step goes
// through the incremental engine with accumulator assertions enabled, a
// scenario also checks that incremental group state never drifts from a
// recomputation.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: team_spread
//	description: "What this scenario validates"
//	config: |
//	  constraints: "demo/Same age": weight: 3
//	setup:
//	  - {kind: team, name: red}
//	steps:
//	  - insert: {kind: person, name: Ann, age: 20, team: red}
//	    expect:
//	      total: -1
//	      constraints: {"demo/Lonely person": -2}
//	      matches: {"demo/Lonely person": 1}
//	  - update: {kind: person, name: Ann, team: blue}
//	  - retract: {kind: person, name: Ann}
//	assertions:
//	  - type: indictment
//	    object: Team(red)
//	    score: -5
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - total: the final score total
//   - constraint: the final total of one constraint
//   - match_count: the number of live matches of one constraint
//   - indictment: the summed impact of the matches indicting an object
//
// # Golden Files
//
// RunWithGolden stores the score trace as JSON under testdata/golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
