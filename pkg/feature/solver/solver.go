// Package solver exposes the SAT-backed facet of the engine: finding
// a single valid configuration, or proving that none exists.
package solver

import (
	"context"
	"errors"

	internal "github.com/jmhorcas/recursive-configuration/internal/solver"
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
)

// Solution is returned when the internal solver executed
// successfully. A successful execution can still end in an error when
// no configuration can be found.
type Solution struct {
	err error
	cfg feature.Configuration
}

// Error returns the resolution error in case the model is
// unsatisfiable, nil otherwise.
func (s *Solution) Error() error {
	return s.err
}

// Configuration returns the configuration found by the solver, nil
// when the model is unsatisfiable.
func (s *Solution) Configuration() feature.Configuration {
	return s.cfg
}

// IsSelected reports whether the instance identified by id is
// selected in the solution.
func (s *Solution) IsSelected(id feature.Identifier) bool {
	return s.cfg[id]
}

type solveOptions struct {
	tracer feature.Tracer
}

type Option func(*solveOptions)

// WithTracer observes the solver's dead ends, e.g. with
// feature.LoggingTracer.
func WithTracer(t feature.Tracer) Option {
	return func(o *solveOptions) {
		o.tracer = t
	}
}

// Solve encodes the expanded tree and its compiled constraints as a
// SAT problem and returns a Solution. Unsatisfiability is reported
// through Solution.Error, not as a Solve error.
func Solve(ctx context.Context, t *feature.ExpandedTree, set constraint.Set, options ...Option) (*Solution, error) {
	opts := &solveOptions{tracer: feature.DefaultTracer{}}
	for _, apply := range options {
		apply(opts)
	}

	satSolver, err := internal.New(internal.WithTracer(opts.tracer))
	if err != nil {
		return nil, err
	}

	cfg, err := satSolver.Solve(ctx, t, set)
	if err != nil && !errors.As(err, &feature.NotSatisfiable{}) {
		return nil, err
	}

	solution := &Solution{cfg: cfg}
	if err != nil {
		unsat := feature.NotSatisfiable{}
		errors.As(err, &unsat)
		solution.err = unsat
	}
	return solution, nil
}
