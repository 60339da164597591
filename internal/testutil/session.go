package testutil

// FixedSessionGenerator names every session with the same id.
//
// Scenario runs use it so that log lines and error messages are identical
// across runs. Unlike engine.FixedGenerator it never runs out of ids.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// DefaultSessionID is used when a scenario does not name its session.
const DefaultSessionID = "scenario-session"

// NewFixedSessionGenerator creates a generator that always returns id, or
// DefaultSessionID if id is empty.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements engine.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
