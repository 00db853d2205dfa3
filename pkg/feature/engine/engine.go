// Package engine assembles the full pipeline: parse, build, expand,
// compile. It is the entry point intended for front ends.
package engine

import (
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/builder"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/parser"
)

// Engine holds the immutable artifacts of a loaded model. It is safe
// to share across goroutines.
type Engine struct {
	tree     *feature.Tree
	expanded *feature.ExpandedTree
	set      constraint.Set
}

type loadOptions struct {
	maxDepth int
}

type Option func(*loadOptions)

// WithMaxDepth overrides the recursion depth bound
// (expand.DefaultMaxDepth otherwise).
func WithMaxDepth(d int) Option {
	return func(o *loadOptions) {
		o.maxDepth = d
	}
}

// Load runs the pipeline over model text. Each stage is fail-fast:
// the first *feature.SyntaxError, *feature.SemanticError,
// *feature.ExpansionError or *feature.ConstraintError stops the load.
func Load(text string, options ...Option) (*Engine, error) {
	opts := &loadOptions{maxDepth: expand.DefaultMaxDepth}
	for _, apply := range options {
		apply(opts)
	}

	model, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	tree, err := builder.Build(model)
	if err != nil {
		return nil, err
	}
	expanded, err := expand.Expand(tree, opts.maxDepth)
	if err != nil {
		return nil, err
	}
	set, err := constraint.Compile(expanded, tree.Constraints)
	if err != nil {
		return nil, err
	}

	return &Engine{tree: tree, expanded: expanded, set: set}, nil
}

// Tree returns the feature tree as built, before expansion.
func (e *Engine) Tree() *feature.Tree {
	return e.tree
}

// Expanded returns the expanded instance tree.
func (e *Engine) Expanded() *feature.ExpandedTree {
	return e.expanded
}

// Constraints returns the compiled cross-tree constraints.
func (e *Engine) Constraints() constraint.Set {
	return e.set
}
