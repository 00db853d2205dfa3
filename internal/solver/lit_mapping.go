package solver

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

type inconsistentLitMapping []error

func (inconsistentLitMapping) Error() string {
	return "internal solver failure"
}

// litMapping performs translation between feature instance
// identifiers/constraints and the variables that appear in the SAT
// formula.
type litMapping struct {
	inorder     []Constraint
	lits        map[feature.Identifier]z.Lit
	constraints map[z.Lit]Constraint
	c           *logic.C
	errs        inconsistentLitMapping
}

// newLitMapping returns a new litMapping with its state initialized
// based on the provided constraints, including the translation tables
// between constraints and the inputs to the underlying solver.
func newLitMapping(constraints []Constraint) *litMapping {
	d := &litMapping{
		inorder:     constraints,
		lits:        make(map[feature.Identifier]z.Lit, len(constraints)),
		constraints: make(map[z.Lit]Constraint, len(constraints)),
		c:           logic.NewC(),
	}
	for _, cn := range constraints {
		m := cn.Apply(d)
		if m == z.LitNull {
			// This constraint doesn't have a useful representation
			// in the SAT inputs.
			continue
		}
		d.constraints[m] = cn
	}
	return d
}

// LitOf returns the positive literal corresponding to the instance
// with the given identifier.
func (d *litMapping) LitOf(id feature.Identifier) z.Lit {
	m, ok := d.lits[id]
	if ok {
		return m
	}
	d.lits[id] = d.c.Lit()
	return d.lits[id]
}

// LogicCircuit returns the circuit constraints are encoded into.
func (d *litMapping) LogicCircuit() *logic.C {
	return d.c
}

// Error returns a single error value that is an aggregation of all
// errors encountered during a litMapping's lifetime, or nil if there
// have been none. A non-nil return value likely indicates a problem
// with the solver or constraint implementations.
func (d *litMapping) Error() error {
	if len(d.errs) == 0 {
		return nil
	}
	s := make([]string, len(d.errs))
	for i, err := range d.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// AddConstraints teaches the constraints encoded in the embedded
// circuit to the solver g.
func (d *litMapping) AddConstraints(g inter.S) {
	d.c.ToCnf(g)
}

// AssumeConstraints assumes every non-anchor constraint, so that an
// UNSAT outcome can name the violated constraints through Why.
func (d *litMapping) AssumeConstraints(g inter.S) {
	for m, c := range d.constraints {
		if !c.Anchor() {
			g.Assume(m)
		}
	}
}

// AnchorIdentifiers returns the identifiers of every subject with at
// least one anchor constraint, in input order.
func (d *litMapping) AnchorIdentifiers() []feature.Identifier {
	var ids []feature.Identifier
	for _, c := range d.inorder {
		if c.Anchor() {
			ids = append(ids, c.Subject())
		}
	}
	return ids
}

// Conflicts maps the solver's failed assumptions back to the applied
// constraints they encode.
func (d *litMapping) Conflicts(g inter.Assumable) []feature.AppliedConstraint {
	whys := g.Why(nil)
	as := make([]feature.AppliedConstraint, 0, len(whys))
	for _, why := range whys {
		if c, ok := d.constraints[why]; ok {
			as = append(as, feature.AppliedConstraint{
				Subject: c.Subject(),
				Message: c.String(),
			})
		}
	}
	return as
}

// Configuration reads the model found by the solver back into a full
// configuration over every mapped instance.
func (d *litMapping) Configuration(g inter.S) feature.Configuration {
	cfg := make(feature.Configuration, len(d.lits))
	for id, m := range d.lits {
		cfg[id] = g.Value(m)
	}
	return cfg
}
