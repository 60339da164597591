package plan

import "fmt"

// ValidationResult lists the structural problems found in a rule.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation, in evaluation order.
	Problems []string
}

// Validate checks that a rule is well formed:
//  1. every variable is bound before it is read
//  2. no variable is bound twice in the same scope
//  3. joins follow the pattern of their right variable and use native types
//  4. every required function is present
//  5. a group-by has a key or at least one accumulator
//  6. the rule's outputs are in scope at the end of the plan
//
// Validate does not stop at the first problem. It is a pure function.
func Validate(rule *Rule) ValidationResult {
	v := &validator{problems: []string{}}
	if rule == nil {
		v.addProblem("nil rule")
	} else {
		s := v.validateFragments(rule.Fragments, newScope(nil))
		for _, out := range rule.Outputs {
			if !s.has(out) {
				v.addProblem("output %s is not in scope at the end of the plan", out)
			}
		}
	}
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// scope is the set of bound variables, chained to an enclosing scope for
// Exists bodies.
type scope struct {
	parent *scope
	vars   map[*Variable]bool
	last   *Variable // most recent Pattern variable
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[*Variable]bool)}
}

func (s *scope) has(v *Variable) bool {
	for c := s; c != nil; c = c.parent {
		if c.vars[v] {
			return true
		}
	}
	return false
}

func (v *validator) require(s *scope, vars []*Variable, what string) {
	for _, in := range vars {
		if in == nil {
			v.addProblem("%s reads a nil variable", what)
		} else if !s.has(in) {
			v.addProblem("%s reads %s before it is bound", what, in)
		}
	}
}

func (v *validator) define(s *scope, out *Variable, what string) {
	if out == nil {
		v.addProblem("%s binds a nil variable", what)
		return
	}
	if s.has(out) {
		v.addProblem("%s binds %s twice", what, out)
	}
	s.vars[out] = true
}

func (v *validator) validateFragments(fragments []Fragment, s *scope) *scope {
	for _, f := range fragments {
		s = v.validateFragment(f, s)
	}
	return s
}

func (v *validator) validateFragment(f Fragment, s *scope) *scope {
	switch frag := f.(type) {
	case *Pattern:
		v.validatePattern(frag, s)
	case *Join:
		v.validateJoin(frag, s)
	case *Filter:
		v.require(s, frag.Inputs, "filter")
		if frag.Predicate == nil {
			v.addProblem("filter has no predicate")
		}
		s.last = nil
	case *Exists:
		v.validateFragments(frag.Body, newScope(s))
		s.last = nil
	case *GroupBy:
		return v.validateGroupBy(frag)
	case *Bind:
		v.require(s, frag.Inputs, "bind")
		if frag.Fn == nil {
			v.addProblem("bind of %s has no function", frag.Var)
		}
		v.define(s, frag.Var, "bind")
		s.last = nil
	case nil:
		v.addProblem("nil fragment")
	default:
		v.addProblem("unknown fragment type %T", f)
	}
	return s
}

func (v *validator) validatePattern(p *Pattern, s *scope) {
	switch src := p.Source.(type) {
	case FactSource:
		if src.Type == nil {
			v.addProblem("pattern %s has no fact type", p.Var)
		}
		v.define(s, p.Var, "pattern")
	case BoundSource:
		v.require(s, []*Variable{p.Var}, "bound pattern")
	case FlattenSource:
		v.require(s, []*Variable{src.From}, "flatten")
		if src.Fn == nil {
			v.addProblem("flatten into %s has no function", p.Var)
		}
		v.define(s, p.Var, "flatten")
	default:
		v.addProblem("pattern %s has unknown source %T", p.Var, p.Source)
	}
	s.last = p.Var
}

func (v *validator) validateJoin(j *Join, s *scope) {
	if j.Right == nil || j.Right != s.last {
		v.addProblem("join on %s does not follow its pattern", j.Right)
	}
	v.require(s, j.Left, "join")
	if j.LeftKey == nil || j.RightKey == nil {
		v.addProblem("join on %s is missing a key function", j.Right)
	}
	if !j.Type.Native() {
		v.addProblem("join on %s uses non-native type %s", j.Right, j.Type)
	}
	if j.Type != Equal && j.Compare == nil {
		v.addProblem("ordering join on %s has no comparator", j.Right)
	}
}

func (v *validator) validateGroupBy(g *GroupBy) *scope {
	body := v.validateFragments(g.Body, newScope(nil))
	v.require(body, g.Inputs, "group-by")
	if g.Key == nil && len(g.Accumulates) == 0 {
		v.addProblem("group-by has neither a key nor an accumulator")
	}
	if g.Key != nil && g.KeyFn == nil {
		v.addProblem("group-by key %s has no function", g.Key)
	}

	out := newScope(nil)
	if g.Key != nil {
		v.define(out, g.Key, "group-by")
	}
	for _, acc := range g.Accumulates {
		if acc.Def == nil {
			v.addProblem("accumulate into %s has no definition", acc.Output)
		}
		v.define(out, acc.Output, "accumulate")
	}
	return out
}
