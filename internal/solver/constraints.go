package solver

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/z"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
)

// Constraint is one clause of the SAT encoding of an expanded tree:
// a structural group rule or a compiled cross-tree constraint.
type Constraint interface {
	String() string
	Subject() feature.Identifier
	Apply(lm feature.LitMapping) z.Lit
	Anchor() bool
}

// GenerateConstraints encodes the expanded tree's structural rules
// and the compiled constraint set. The root's mandatory constraint is
// the only anchor: everything else is assumed, so that an UNSAT
// outcome yields the violated clauses rather than a bare failure.
func GenerateConstraints(t *feature.ExpandedTree, set constraint.Set) []Constraint {
	var out []Constraint
	out = append(out, mandatoryRoot{id: t.Root.ID})

	for _, inst := range t.Instances() {
		if inst.Forbidden {
			out = append(out, prohibited{id: inst.ID})
		}
		for _, g := range inst.Groups {
			for _, c := range g.Children {
				out = append(out, implication{
					subject: c.ID,
					target:  inst.ID,
					reason:  "requires its parent",
				})
			}
			switch g.Kind {
			case feature.MandatoryChildren:
				for _, c := range g.Children {
					out = append(out, implication{
						subject: inst.ID,
						target:  c.ID,
						reason:  "requires its mandatory child",
					})
				}
			case feature.Alternative:
				out = append(out, atLeastOne{parent: inst.ID, children: ids(g.Children)})
				out = append(out, atMostOne{parent: inst.ID, children: ids(g.Children)})
			case feature.Or:
				out = append(out, atLeastOne{parent: inst.ID, children: ids(g.Children)})
			}
		}
	}

	for _, c := range set {
		out = append(out, formula{compiled: c})
	}
	return out
}

func ids(children []*feature.Instance) []feature.Identifier {
	out := make([]feature.Identifier, len(children))
	for i, c := range children {
		out[i] = c.ID
	}
	return out
}

type mandatoryRoot struct {
	id feature.Identifier
}

func (c mandatoryRoot) String() string {
	return fmt.Sprintf("%s is the root and must be selected", c.id)
}

func (c mandatoryRoot) Subject() feature.Identifier {
	return c.id
}

func (c mandatoryRoot) Apply(lm feature.LitMapping) z.Lit {
	return lm.LitOf(c.id)
}

func (c mandatoryRoot) Anchor() bool {
	return true
}

type prohibited struct {
	id feature.Identifier
}

func (c prohibited) String() string {
	return fmt.Sprintf("%s is beyond the recursion depth bound and can never be selected", c.id)
}

func (c prohibited) Subject() feature.Identifier {
	return c.id
}

func (c prohibited) Apply(lm feature.LitMapping) z.Lit {
	return lm.LitOf(c.id).Not()
}

func (c prohibited) Anchor() bool {
	return false
}

type implication struct {
	subject feature.Identifier
	target  feature.Identifier
	reason  string
}

func (c implication) String() string {
	return fmt.Sprintf("%s %s %s", c.subject, c.reason, c.target)
}

func (c implication) Subject() feature.Identifier {
	return c.subject
}

func (c implication) Apply(lm feature.LitMapping) z.Lit {
	return lm.LogicCircuit().Or(lm.LitOf(c.subject).Not(), lm.LitOf(c.target))
}

func (c implication) Anchor() bool {
	return false
}

type atLeastOne struct {
	parent   feature.Identifier
	children []feature.Identifier
}

func (c atLeastOne) String() string {
	return fmt.Sprintf("%s requires at least one of %s", c.parent, join(c.children))
}

func (c atLeastOne) Subject() feature.Identifier {
	return c.parent
}

func (c atLeastOne) Apply(lm feature.LitMapping) z.Lit {
	m := lm.LitOf(c.parent).Not()
	for _, id := range c.children {
		m = lm.LogicCircuit().Or(m, lm.LitOf(id))
	}
	return m
}

func (c atLeastOne) Anchor() bool {
	return false
}

type atMostOne struct {
	parent   feature.Identifier
	children []feature.Identifier
}

func (c atMostOne) String() string {
	return fmt.Sprintf("%s permits at most one of %s", c.parent, join(c.children))
}

func (c atMostOne) Subject() feature.Identifier {
	return c.parent
}

func (c atMostOne) Apply(lm feature.LitMapping) z.Lit {
	// pairwise encoding; alternative groups stay small. The builder
	// guarantees at least two children, so at least one pair exists.
	circuit := lm.LogicCircuit()
	m := z.LitNull
	for i := 0; i < len(c.children); i++ {
		for j := i + 1; j < len(c.children); j++ {
			pair := circuit.Or(lm.LitOf(c.children[i]).Not(), lm.LitOf(c.children[j]).Not())
			if m == z.LitNull {
				m = pair
			} else {
				m = circuit.And(m, pair)
			}
		}
	}
	return m
}

func (c atMostOne) Anchor() bool {
	return false
}

type formula struct {
	compiled *constraint.Compiled
}

func (c formula) String() string {
	return c.compiled.String()
}

func (c formula) Subject() feature.Identifier {
	return c.compiled.Scope
}

func (c formula) Apply(lm feature.LitMapping) z.Lit {
	return c.compiled.Apply(lm)
}

func (c formula) Anchor() bool {
	return false
}

func join(ids []feature.Identifier) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}
