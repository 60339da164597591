package config

import (
	"fmt"
	"slices"

	"github.com/roach88/scorestream/internal/plan"
)

// Validate checks the configuration against the rules it will be applied
// to. Returns all errors found (does not fail-fast).
func (c *Config) Validate(rules []*plan.Rule) []ValidationError {
	var errs []ValidationError

	known := make(map[string]bool, len(rules))
	enabled := 0
	for _, rule := range rules {
		id := rule.ID()
		known[id] = true
		if c.Enabled(id) {
			enabled++
		}
	}

	ids := make([]string, 0, len(c.Constraints))
	for id := range c.Constraints {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if !known[id] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("constraints.%q", id),
				Message: fmt.Sprintf("unknown constraint %q", id),
				Code:    ErrUnknownConstraint,
			})
		}
	}

	if len(rules) > 0 && enabled == 0 {
		errs = append(errs, ValidationError{
			Field:   "constraints",
			Message: "every constraint is disabled",
			Code:    ErrNothingEnabled,
		})
	}
	return errs
}

// Apply returns the enabled rules in their original order, with weight
// overrides applied. Overridden rules are shallow copies; the input rules
// are not modified.
func (c *Config) Apply(rules []*plan.Rule) ([]*plan.Rule, error) {
	if errs := c.Validate(rules); len(errs) > 0 {
		return nil, &errs[0]
	}
	out := make([]*plan.Rule, 0, len(rules))
	for _, rule := range rules {
		cc, ok := c.Constraints[rule.ID()]
		if !ok {
			out = append(out, rule)
			continue
		}
		if !cc.Enabled {
			continue
		}
		if cc.Weight != nil {
			copied := *rule
			copied.Constraint.Weight = *cc.Weight
			rule = &copied
		}
		out = append(out, rule)
	}
	return out, nil
}
