// Package constraint parses cross-tree constraint formulas, binds
// their atoms to expanded feature instances, and evaluates them
// against configurations.
package constraint

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// Expr is a propositional formula over feature instances: a closed
// tagged tree of Not, And, Or, Implies, BiImplication and Atom nodes.
// Expressions are immutable once built.
type Expr interface {
	// Eval evaluates the formula against a configuration,
	// short-circuiting left-to-right.
	Eval(cfg feature.Configuration) bool
	// Lit encodes the formula into the mapping's logic circuit.
	Lit(lm feature.LitMapping) z.Lit
	fmt.Stringer

	atoms(dst []feature.Identifier) []feature.Identifier
	resolve(r resolver) (Expr, error)
}

// Atom references a single feature instance. The parser leaves the
// declared name in ID; compilation rebinds it to an instance id.
type Atom struct {
	ID feature.Identifier
}

func (a *Atom) Eval(cfg feature.Configuration) bool {
	return cfg[a.ID]
}

func (a *Atom) Lit(lm feature.LitMapping) z.Lit {
	return lm.LitOf(a.ID)
}

func (a *Atom) String() string {
	return string(a.ID)
}

func (a *Atom) atoms(dst []feature.Identifier) []feature.Identifier {
	return append(dst, a.ID)
}

func (a *Atom) resolve(r resolver) (Expr, error) {
	id, err := r(string(a.ID))
	if err != nil {
		return nil, err
	}
	return &Atom{ID: id}, nil
}

// Not negates its operand.
type Not struct {
	Operand Expr
}

func (n *Not) Eval(cfg feature.Configuration) bool {
	return !n.Operand.Eval(cfg)
}

func (n *Not) Lit(lm feature.LitMapping) z.Lit {
	return n.Operand.Lit(lm).Not()
}

func (n *Not) String() string {
	return "!" + n.Operand.String()
}

func (n *Not) atoms(dst []feature.Identifier) []feature.Identifier {
	return n.Operand.atoms(dst)
}

func (n *Not) resolve(r resolver) (Expr, error) {
	op, err := n.Operand.resolve(r)
	if err != nil {
		return nil, err
	}
	return &Not{Operand: op}, nil
}

// And is conjunction.
type And struct {
	LHS, RHS Expr
}

func (a *And) Eval(cfg feature.Configuration) bool {
	return a.LHS.Eval(cfg) && a.RHS.Eval(cfg)
}

func (a *And) Lit(lm feature.LitMapping) z.Lit {
	return lm.LogicCircuit().And(a.LHS.Lit(lm), a.RHS.Lit(lm))
}

func (a *And) String() string {
	return fmt.Sprintf("(%s & %s)", a.LHS, a.RHS)
}

func (a *And) atoms(dst []feature.Identifier) []feature.Identifier {
	return a.RHS.atoms(a.LHS.atoms(dst))
}

func (a *And) resolve(r resolver) (Expr, error) {
	lhs, rhs, err := resolvePair(a.LHS, a.RHS, r)
	if err != nil {
		return nil, err
	}
	return &And{LHS: lhs, RHS: rhs}, nil
}

// Or is disjunction.
type Or struct {
	LHS, RHS Expr
}

func (o *Or) Eval(cfg feature.Configuration) bool {
	return o.LHS.Eval(cfg) || o.RHS.Eval(cfg)
}

func (o *Or) Lit(lm feature.LitMapping) z.Lit {
	return lm.LogicCircuit().Or(o.LHS.Lit(lm), o.RHS.Lit(lm))
}

func (o *Or) String() string {
	return fmt.Sprintf("(%s | %s)", o.LHS, o.RHS)
}

func (o *Or) atoms(dst []feature.Identifier) []feature.Identifier {
	return o.RHS.atoms(o.LHS.atoms(dst))
}

func (o *Or) resolve(r resolver) (Expr, error) {
	lhs, rhs, err := resolvePair(o.LHS, o.RHS, r)
	if err != nil {
		return nil, err
	}
	return &Or{LHS: lhs, RHS: rhs}, nil
}

// Implies is material implication.
type Implies struct {
	LHS, RHS Expr
}

func (im *Implies) Eval(cfg feature.Configuration) bool {
	return !im.LHS.Eval(cfg) || im.RHS.Eval(cfg)
}

func (im *Implies) Lit(lm feature.LitMapping) z.Lit {
	return lm.LogicCircuit().Or(im.LHS.Lit(lm).Not(), im.RHS.Lit(lm))
}

func (im *Implies) String() string {
	return fmt.Sprintf("(%s => %s)", im.LHS, im.RHS)
}

func (im *Implies) atoms(dst []feature.Identifier) []feature.Identifier {
	return im.RHS.atoms(im.LHS.atoms(dst))
}

func (im *Implies) resolve(r resolver) (Expr, error) {
	lhs, rhs, err := resolvePair(im.LHS, im.RHS, r)
	if err != nil {
		return nil, err
	}
	return &Implies{LHS: lhs, RHS: rhs}, nil
}

// BiImplication is logical equivalence.
type BiImplication struct {
	LHS, RHS Expr
}

func (b *BiImplication) Eval(cfg feature.Configuration) bool {
	return b.LHS.Eval(cfg) == b.RHS.Eval(cfg)
}

func (b *BiImplication) Lit(lm feature.LitMapping) z.Lit {
	c := lm.LogicCircuit()
	lhs, rhs := b.LHS.Lit(lm), b.RHS.Lit(lm)
	return c.And(c.Or(lhs.Not(), rhs), c.Or(rhs.Not(), lhs))
}

func (b *BiImplication) String() string {
	return fmt.Sprintf("(%s <=> %s)", b.LHS, b.RHS)
}

func (b *BiImplication) atoms(dst []feature.Identifier) []feature.Identifier {
	return b.RHS.atoms(b.LHS.atoms(dst))
}

func (b *BiImplication) resolve(r resolver) (Expr, error) {
	lhs, rhs, err := resolvePair(b.LHS, b.RHS, r)
	if err != nil {
		return nil, err
	}
	return &BiImplication{LHS: lhs, RHS: rhs}, nil
}

// resolver rebinds a declared atom name to an instance id.
type resolver func(name string) (feature.Identifier, error)

func resolvePair(lhs, rhs Expr, r resolver) (Expr, Expr, error) {
	l, err := lhs.resolve(r)
	if err != nil {
		return nil, nil, err
	}
	rr, err := rhs.resolve(r)
	if err != nil {
		return nil, nil, err
	}
	return l, rr, nil
}
