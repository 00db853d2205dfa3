// Package validate checks configurations against an expanded tree's
// structural group rules and its compiled cross-tree constraints.
package validate

import (
	"fmt"
	"strings"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
)

// Validate checks the configuration against every structural rule of
// the expanded tree and every compiled constraint. The returned list
// is always fully populated, never cut at the first violation; an
// empty list means the configuration is valid.
func Validate(t *feature.ExpandedTree, set constraint.Set, cfg feature.Configuration) feature.ViolationList {
	var out feature.ViolationList

	for id := range cfg {
		if _, ok := t.Instance(id); !ok {
			out = append(out, feature.Violation{Subject: id, Rule: "not an instance of the expanded tree"})
		}
	}

	for _, inst := range t.Instances() {
		if _, ok := cfg[inst.ID]; !ok {
			out = append(out, feature.Violation{Subject: inst.ID, Rule: "no entry in configuration"})
			continue
		}
		out = append(out, structural(inst, cfg)...)
	}

	for _, c := range set {
		if !c.Evaluate(cfg) {
			out = append(out, feature.Violation{Subject: c.Scope, Rule: "violates constraint " + c.Text + fmt.Sprintf(" (line %d)", c.Line)})
		}
	}

	return out
}

// structural checks the rules anchored at a single instance: root
// presence, the depth bound, parent implication, and the instance's
// group cardinalities.
func structural(inst *feature.Instance, cfg feature.Configuration) feature.ViolationList {
	var out feature.ViolationList
	selected := cfg[inst.ID]

	switch {
	case inst.Parent == nil && !selected:
		out = append(out, feature.Violation{Subject: inst.ID, Rule: "the root feature must be selected"})
	case inst.Forbidden && selected:
		out = append(out, feature.Violation{Subject: inst.ID, Rule: "cannot be selected: the recursion depth bound leaves it without an expansion"})
	case inst.Parent != nil && selected && !cfg[inst.Parent.ID]:
		out = append(out, feature.Violation{Subject: inst.ID, Rule: fmt.Sprintf("selected while its parent %s is not", inst.Parent.ID)})
	}

	for _, g := range inst.Groups {
		n := 0
		for _, c := range g.Children {
			if cfg[c.ID] {
				n++
			}
		}
		switch g.Kind {
		case feature.MandatoryChildren:
			for _, c := range g.Children {
				if cfg[c.ID] != selected {
					out = append(out, feature.Violation{
						Subject: c.ID,
						Rule:    fmt.Sprintf("mandatory: must be selected exactly when %s is", inst.ID),
					})
				}
			}
		case feature.OptionalChild:
			// child => parent is covered per child above
		case feature.Alternative:
			if selected && n != 1 {
				out = append(out, feature.Violation{
					Subject: inst.ID,
					Rule:    fmt.Sprintf("alternative group requires exactly one of %s, found %d", childNames(g), n),
				})
			}
		case feature.Or:
			if selected && n == 0 {
				out = append(out, feature.Violation{
					Subject: inst.ID,
					Rule:    fmt.Sprintf("or group requires at least one of %s", childNames(g)),
				})
			}
		}
	}

	return out
}

func childNames(g feature.InstanceGroup) string {
	s := make([]string, len(g.Children))
	for i, c := range g.Children {
		s[i] = c.Name
	}
	return strings.Join(s, ", ")
}
