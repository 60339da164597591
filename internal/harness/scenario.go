package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of fact changes over the demo model with
// the scores expected after each change.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is optional inline CUE in the scorestream.cue format. It can
	// disable constraints, override weights and tune the engine.
	Config string `yaml:"config,omitempty"`

	// Session fixes the session id used in logs and errors.
	Session string `yaml:"session,omitempty"`

	// Setup facts are inserted before the first step and are not scored on
	// their own.
	Setup []FactSpec `yaml:"setup,omitempty"`

	// Steps each change one fact and then calculate the score.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the session after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Fact kinds.
const (
	KindPerson = "person"
	KindTeam   = "team"
	KindDesk   = "desk"
)

// FactSpec describes a demo fact. People and teams are keyed by name,
// desks by id. In an update only the fields given are changed.
type FactSpec struct {
	Kind   string  `yaml:"kind"`
	Name   string  `yaml:"name,omitempty"`
	ID     string  `yaml:"id,omitempty"`
	Age    *int    `yaml:"age,omitempty"`
	Team   *string `yaml:"team,omitempty"`
	Person *string `yaml:"person,omitempty"`
	Start  *int    `yaml:"start,omitempty"`
	End    *int    `yaml:"end,omitempty"`
}

// Step changes exactly one fact. Expect, if present, is checked against
// the score calculated after the change.
type Step struct {
	Insert  *FactSpec    `yaml:"insert,omitempty"`
	Update  *FactSpec    `yaml:"update,omitempty"`
	Retract *FactSpec    `yaml:"retract,omitempty"`
	Expect  *Expectation `yaml:"expect,omitempty"`
}

// Step actions.
const (
	ActionInsert  = "insert"
	ActionUpdate  = "update"
	ActionRetract = "retract"
)

// change returns the action of the step and the fact it applies to.
func (s *Step) change() (string, *FactSpec) {
	switch {
	case s.Insert != nil:
		return ActionInsert, s.Insert
	case s.Update != nil:
		return ActionUpdate, s.Update
	case s.Retract != nil:
		return ActionRetract, s.Retract
	}
	return "", nil
}

// Expectation is a subset match on a score: only the totals and match
// counts given are checked. Constraints are named by full id.
type Expectation struct {
	Total       *int64           `yaml:"total,omitempty"`
	Constraints map[string]int64 `yaml:"constraints,omitempty"`
	Matches     map[string]int   `yaml:"matches,omitempty"`
}

// Assertion validates the final state of the session.
type Assertion struct {
	// Type specifies the assertion type:
	// - "total": the score total equals Score
	// - "constraint": the total of Constraint equals Score
	// - "match_count": Constraint has exactly Count matches
	// - "indictment": the matches indicting Object sum to Score; Count, if
	//   non-zero, is the number of those matches
	Type string `yaml:"type"`

	Constraint string `yaml:"constraint,omitempty"`

	// Object is the printed form of an indicted object, e.g. "Person(Ann)".
	Object string `yaml:"object,omitempty"`

	Score int64 `yaml:"score,omitempty"`
	Count int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTotal      = "total"
	AssertConstraint = "constraint"
	AssertMatchCount = "match_count"
	AssertIndictment = "indictment"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file of dir in file name
// order. The first invalid file fails the whole load.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", dir)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", filepath.Base(path))
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	for i := range s.Setup {
		if err := validateFact(&s.Setup[i], ActionInsert); err != nil {
			return errors.Wrapf(err, "setup[%d]", i)
		}
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		set := 0
		for _, f := range []*FactSpec{step.Insert, step.Update, step.Retract} {
			if f != nil {
				set++
			}
		}
		if set != 1 {
			return errors.Newf("steps[%d]: exactly one of insert, update or retract is required", i)
		}
		action, fact := step.change()
		if err := validateFact(fact, action); err != nil {
			return errors.Wrapf(err, "steps[%d].%s", i, action)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateFact checks the key of a fact and, for inserts, the fields the
// fact cannot do without.
func validateFact(f *FactSpec, action string) error {
	switch f.Kind {
	case KindPerson, KindTeam:
		if f.Name == "" {
			return errors.Newf("name is required for a %s", f.Kind)
		}
	case KindDesk:
		if f.ID == "" {
			return errors.New("id is required for a desk")
		}
		if action == ActionInsert && (f.Person == nil || f.Start == nil || f.End == nil) {
			return errors.New("person, start and end are required to insert a desk")
		}
	case "":
		return errors.New("kind is required")
	default:
		return errors.Newf("unknown kind %q", f.Kind)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return errors.Newf("assertions[%d]: type is required", index)
	case AssertTotal:
	case AssertConstraint, AssertMatchCount:
		if a.Constraint == "" {
			return errors.Newf("assertions[%d]: constraint is required for %s", index, a.Type)
		}
	case AssertIndictment:
		if a.Object == "" {
			return errors.Newf("assertions[%d]: object is required for indictment", index)
		}
	default:
		return errors.Newf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
