// Package solver encodes an expanded feature tree and its compiled
// constraints as a SAT problem and solves for a single valid
// configuration.
package solver

import (
	"context"
	"errors"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
)

var ErrIncomplete = errors.New("solver returned before an outcome was reached")

const (
	satisfiable   = 1
	unsatisfiable = -1
)

type Solver struct {
	tracer feature.Tracer
}

// Solve returns one valid configuration of the expanded tree, or a
// feature.NotSatisfiable error naming a set of applied constraints
// sufficient to make any configuration impossible.
func (s *Solver) Solve(_ context.Context, t *feature.ExpandedTree, set constraint.Set) (feature.Configuration, error) {
	g := gini.New()
	litMap := newLitMapping(GenerateConstraints(t, set))

	cfg, err := s.solve(g, litMap)

	// This likely indicates a bug, so discard whatever return values
	// were produced.
	if derr := litMap.Error(); derr != nil {
		return nil, derr
	}
	return cfg, err
}

func (s *Solver) solve(g inter.S, litMap *litMapping) (feature.Configuration, error) {
	// teach all constraints to the solver
	litMap.AddConstraints(g)

	// collect literals of all anchor subjects to assume as a baseline
	anchors := litMap.AnchorIdentifiers()
	assumptions := make([]z.Lit, len(anchors))
	for i := range anchors {
		assumptions[i] = litMap.LitOf(anchors[i])
	}

	// assume that all constraints hold
	litMap.AssumeConstraints(g)
	g.Assume(assumptions...)

	switch g.Solve() {
	case satisfiable:
		return litMap.Configuration(g), nil
	case unsatisfiable:
		conflicts := litMap.Conflicts(g)
		s.tracer.Trace(position{assumptions: anchors, conflicts: conflicts})
		return nil, feature.NotSatisfiable(conflicts)
	}
	return nil, ErrIncomplete
}

type position struct {
	assumptions []feature.Identifier
	conflicts   []feature.AppliedConstraint
}

func (p position) Assumptions() []feature.Identifier {
	return p.assumptions
}

func (p position) Conflicts() []feature.AppliedConstraint {
	return p.conflicts
}

func New(options ...Option) (*Solver, error) {
	s := Solver{}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type Option func(s *Solver) error

func WithTracer(t feature.Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.tracer == nil {
			s.tracer = feature.DefaultTracer{}
		}
		return nil
	},
}
