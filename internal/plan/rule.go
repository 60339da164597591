package plan

// ImpactType says how a match weight turns into a score delta.
type ImpactType int

const (
	Penalty ImpactType = iota
	Reward
	Mixed
)

func (t ImpactType) String() string {
	switch t {
	case Penalty:
		return "PENALTY"
	case Reward:
		return "REWARD"
	default:
		return "MIXED"
	}
}

// Sign returns -1 for penalties and +1 otherwise. Mixed impacts keep the
// sign of the match weight.
func (t ImpactType) Sign() int64 {
	if t == Penalty {
		return -1
	}
	return 1
}

// ConstraintRef identifies a constraint and carries its weight.
type ConstraintRef struct {
	Package string
	Name    string
	Weight  int64
	Impact  ImpactType
}

// ID returns the fully qualified constraint id, "package/name".
func (c ConstraintRef) ID() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "/" + c.Name
}

// Consequence turns a live match into a score impact.
//
// All functions receive the values of the rule's Outputs, in order. A nil
// Weight means a match weight of 1; nil Justify and Indict default to the
// output values themselves.
type Consequence struct {
	Weight  func(args []any) int64
	Justify func(args []any, impact int64) any
	Indict  func(args []any) []any
}

// Rule is the compiled form of one constraint.
type Rule struct {
	Constraint  ConstraintRef
	Fragments   []Fragment
	Outputs     []*Variable
	Consequence Consequence
}

// ID returns the constraint id.
func (r *Rule) ID() string {
	return r.Constraint.ID()
}

// Walk calls fn for every fragment of fragments in evaluation order,
// descending into Exists and GroupBy bodies before visiting the enclosing
// fragment.
func Walk(fragments []Fragment, fn func(Fragment)) {
	for _, f := range fragments {
		switch frag := f.(type) {
		case *Exists:
			Walk(frag.Body, fn)
		case *GroupBy:
			Walk(frag.Body, fn)
		}
		fn(f)
	}
}

// Variables returns every variable bound anywhere in the rule, in the order
// in which evaluation binds them.
func (r *Rule) Variables() []*Variable {
	var vars []*Variable
	seen := make(map[*Variable]bool)
	add := func(v *Variable) {
		if v != nil && !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	Walk(r.Fragments, func(f Fragment) {
		switch frag := f.(type) {
		case *Pattern:
			add(frag.Var)
		case *Bind:
			add(frag.Var)
		case *GroupBy:
			add(frag.Key)
			for _, acc := range frag.Accumulates {
				add(acc.Output)
			}
		}
	})
	return vars
}
