// Package expand unrolls recursive feature references into a finite
// tree of uniquely-identified instances.
package expand

import (
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// DefaultMaxDepth bounds recursive unrolling when the caller passes a
// negative depth to Expand.
const DefaultMaxDepth = 3

// Expand walks the feature tree top-down and splices, for every
// feature marked as a recursive reference, a clone of the referenced
// ancestor's declared subtree. Cloning repeats for nested references
// up to maxDepth splices; a reference encountered at that depth
// becomes a leaf instance that can never be selected, so the result is
// always finite. Passing a negative maxDepth selects DefaultMaxDepth.
//
// Expand fails with a *feature.ExpansionError if a reference names a
// feature that is not among its ancestors.
func Expand(tree *feature.Tree, maxDepth int) (*feature.ExpandedTree, error) {
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	x := &expander{maxDepth: maxDepth}
	root, err := x.instantiate(tree.Root, nil, tree.Root.Name, 0)
	if err != nil {
		return nil, err
	}
	scopes := append([]*feature.Instance{root}, x.cloneRoots...)
	return feature.NewExpandedTree(tree.Namespace, root, maxDepth, scopes), nil
}

type ancestor struct {
	name string
	feat *feature.Feature
}

type expander struct {
	maxDepth   int
	ancestors  []ancestor
	cloneRoots []*feature.Instance
}

// instantiate clones the declared feature f (and its subtree) into an
// instance with the given path-based id. depth counts the recursive
// splices already crossed on the way down.
func (x *expander) instantiate(f *feature.Feature, parent *feature.Instance, id string, depth int) (*feature.Instance, error) {
	inst := &feature.Instance{
		ID:       feature.Identifier(id),
		Name:     f.Name,
		Abstract: f.Abstract,
		Depth:    depth,
		Parent:   parent,
	}

	if f.RecRef != "" {
		tmpl := x.lookup(f.RecRef)
		if tmpl == nil {
			return nil, &feature.ExpansionError{Reference: f.RecRef}
		}
		if depth >= x.maxDepth {
			// The recursion bottoms out: the reference exists as a
			// permanently-absent leaf rather than an error.
			inst.Forbidden = true
			return inst, nil
		}
		// Splice a clone of the template's declared subtree. The
		// template itself goes back on the ancestor stack so that the
		// clone's own references resolve, one level deeper.
		x.cloneRoots = append(x.cloneRoots, inst)
		if err := x.children(tmpl, inst, id, depth+1); err != nil {
			return nil, err
		}
		return inst, nil
	}

	if err := x.children(f, inst, id, depth); err != nil {
		return nil, err
	}
	return inst, nil
}

func (x *expander) children(f *feature.Feature, inst *feature.Instance, id string, depth int) error {
	x.ancestors = append(x.ancestors, ancestor{name: f.Name, feat: f})
	defer func() { x.ancestors = x.ancestors[:len(x.ancestors)-1] }()

	for _, g := range f.Groups {
		ig := feature.InstanceGroup{Kind: g.Kind}
		for _, child := range g.Children {
			ci, err := x.instantiate(child, inst, id+"/"+child.Name, depth)
			if err != nil {
				return err
			}
			ig.Children = append(ig.Children, ci)
		}
		inst.Groups = append(inst.Groups, ig)
	}
	return nil
}

// lookup resolves a reference against the current ancestor path,
// nearest ancestor first.
func (x *expander) lookup(name string) *feature.Feature {
	for i := len(x.ancestors) - 1; i >= 0; i-- {
		if x.ancestors[i].name == name {
			return x.ancestors[i].feat
		}
	}
	return nil
}
