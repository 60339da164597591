// Package planfmt renders compiled constraint plans as deterministic text.
//
// The rendering is a second backend over the fragment contract: it walks
// the same plan.Rule values the engine evaluates and prints each fragment on
// one line, bodies indented. User functions cannot be printed, so the
// rendering and the fingerprints derived from it describe the structure of
// a plan only: two rules that differ only in a lambda render identically.
package planfmt

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/plan"
)

const indent = "  "

// Render returns the text plan of rule.
//
// Example output:
//
//	constraint demo/Same age PENALTY weight=1
//	  pattern person#1 <- *demo.Person
//	  pattern person#2 <- *demo.Person
//	  join person#2 EQUAL (person#1)
//	  outputs person#1, person#2
func Render(rule *plan.Rule) (string, error) {
	if rule == nil {
		return "", errors.New("cannot render nil rule")
	}
	var b strings.Builder
	c := rule.Constraint
	fmt.Fprintf(&b, "constraint %s %s weight=%d\n", c.ID(), c.Impact, c.Weight)
	if err := renderFragments(&b, rule.Fragments, 1); err != nil {
		return "", errors.Wrapf(err, "render %s", c.ID())
	}
	fmt.Fprintf(&b, "%soutputs %s\n", indent, vars(rule.Outputs))
	return b.String(), nil
}

func renderFragments(b *strings.Builder, fragments []plan.Fragment, depth int) error {
	pad := strings.Repeat(indent, depth)
	for i, f := range fragments {
		switch frag := f.(type) {
		case *plan.Pattern:
			fmt.Fprintf(b, "%spattern %s <- %s\n", pad, frag.Var, source(frag.Source))
		case *plan.Join:
			fmt.Fprintf(b, "%sjoin %s %s (%s)", pad, frag.Right, frag.Type, vars(frag.Left))
			if frag.Swapped {
				b.WriteString(" swapped")
			}
			if frag.Compare != nil && frag.Type == plan.Equal {
				b.WriteString(" ordered")
			}
			fmt.Fprintf(b, " declared=%s\n", frag.Declared())
		case *plan.Filter:
			fmt.Fprintf(b, "%sfilter (%s)\n", pad, vars(frag.Inputs))
		case *plan.Exists:
			kind := "exists"
			if frag.Negated {
				kind = "not-exists"
			}
			fmt.Fprintf(b, "%s%s\n", pad, kind)
			if err := renderFragments(b, frag.Body, depth+1); err != nil {
				return err
			}
		case *plan.GroupBy:
			key := "<none>"
			if frag.Key != nil {
				key = fmt.Sprintf("%s (%s)", frag.Key, vars(frag.Inputs))
			}
			fmt.Fprintf(b, "%sgroup-by key=%s\n", pad, key)
			if err := renderFragments(b, frag.Body, depth+1); err != nil {
				return err
			}
			for _, acc := range frag.Accumulates {
				fmt.Fprintf(b, "%s%saccumulate -> %s\n", pad, indent, acc.Output)
			}
		case *plan.Bind:
			fmt.Fprintf(b, "%sbind %s <- (%s)\n", pad, frag.Var, vars(frag.Inputs))
		case nil:
			return errors.Newf("fragment #%d is nil", i)
		default:
			return errors.Newf("fragment #%d: unsupported fragment type %T", i, f)
		}
	}
	return nil
}

func source(s plan.Source) string {
	switch src := s.(type) {
	case plan.FactSource:
		typ := "<nil>"
		if src.Type != nil {
			typ = src.Type.String()
		}
		if src.Filter != nil {
			return typ + " (filtered)"
		}
		return typ
	case plan.BoundSource:
		return "bound"
	case plan.FlattenSource:
		return fmt.Sprintf("flatten %s", src.From)
	default:
		return fmt.Sprintf("%T", s)
	}
}

func vars(vs []*plan.Variable) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
