package feature

import (
	"sort"
	"strings"
)

// Identifier values uniquely identify feature instances within an
// expanded tree. Before expansion an identifier is simply the declared
// feature name; after expansion it is the instance's path from the
// root (e.g. "Expr/Operands/LExpr/Expr1/Connectives").
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// IdentifierFromPath composes an instance identifier from the names of
// the features on the path from the root.
func IdentifierFromPath(names ...string) Identifier {
	return Identifier(strings.Join(names, "/"))
}

// GroupKind is the closed set of relationships a feature's children
// may have to their parent.
type GroupKind uint8

const (
	// MandatoryChildren: every child in the group is selected iff the
	// parent is selected.
	MandatoryChildren GroupKind = iota
	// OptionalChild: each child in the group may be selected only if
	// the parent is selected, but need not be.
	OptionalChild
	// Alternative: exactly one child is selected when the parent is
	// selected, none otherwise.
	Alternative
	// Or: at least one child is selected when the parent is selected,
	// none otherwise.
	Or
)

func (k GroupKind) String() string {
	switch k {
	case MandatoryChildren:
		return "mandatory"
	case OptionalChild:
		return "optional"
	case Alternative:
		return "alternative"
	case Or:
		return "or"
	}
	return "unknown"
}

// Feature is a declared unit of structural choice. Its children are
// owned through Groups, in declaration order.
type Feature struct {
	Name     string
	Abstract bool
	// RecRef names the ancestor feature whose declared subtree this
	// feature re-embeds. Empty for ordinary features. A recursive
	// feature declares no groups of its own.
	RecRef string
	Groups []Group
}

// Group relates a contiguous block of children to their parent.
type Group struct {
	Kind     GroupKind
	Children []*Feature
}

// Children returns the feature's children across all groups, in
// declaration order.
func (f *Feature) Children() []*Feature {
	var out []*Feature
	for _, g := range f.Groups {
		out = append(out, g.Children...)
	}
	return out
}

// ConstraintLine is one cross-tree constraint as written in the model
// text, retained with its source line for diagnostics.
type ConstraintLine struct {
	Line int
	Text string
}

// Tree is the structural result of building a parsed model. The raw
// tree may reference ancestors recursively (via RecRef) but is
// otherwise acyclic: every feature has exactly one structural parent.
type Tree struct {
	Namespace   string
	Root        *Feature
	Constraints []ConstraintLine
}

// Instance is one node of an expanded tree: a clone of a declared
// feature carrying a synthesized path-based identifier, so that two
// unrolled copies of the same recursive feature stay distinguishable
// in constraints and configurations.
type Instance struct {
	ID       Identifier
	Name     string
	Abstract bool
	// Forbidden marks a recursive reference that hit the expansion
	// depth bound: the instance exists but can never be selected.
	Forbidden bool
	// Depth is the number of recursive splices between the tree root
	// and this instance.
	Depth  int
	Parent *Instance
	Groups []InstanceGroup
}

// InstanceGroup mirrors Group over expanded instances.
type InstanceGroup struct {
	Kind     GroupKind
	Children []*Instance
}

// Children returns the instance's children across all groups, in
// declaration order.
func (i *Instance) Children() []*Instance {
	var out []*Instance
	for _, g := range i.Groups {
		out = append(out, g.Children...)
	}
	return out
}

// ExpandedTree is a finite, cycle-free tree of uniquely-identified
// instances. It is immutable after construction and safe to share
// across concurrent readers.
type ExpandedTree struct {
	Namespace string
	Root      *Instance
	MaxDepth  int

	inorder []*Instance
	index   map[Identifier]*Instance
	scopes  []*Instance
}

// NewExpandedTree indexes the given instance tree. scopes must list
// the expansion scope roots (the tree root plus every spliced clone
// root) in pre-order.
func NewExpandedTree(namespace string, root *Instance, maxDepth int, scopes []*Instance) *ExpandedTree {
	t := &ExpandedTree{
		Namespace: namespace,
		Root:      root,
		MaxDepth:  maxDepth,
		index:     map[Identifier]*Instance{},
		scopes:    scopes,
	}
	var walk func(i *Instance)
	walk = func(i *Instance) {
		t.inorder = append(t.inorder, i)
		t.index[i.ID] = i
		for _, c := range i.Children() {
			walk(c)
		}
	}
	walk(root)
	return t
}

// Instances returns every instance in pre-order (children in declared
// order). Callers must not mutate the returned slice.
func (t *ExpandedTree) Instances() []*Instance {
	return t.inorder
}

// Instance looks up an instance by identifier.
func (t *ExpandedTree) Instance(id Identifier) (*Instance, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Scopes returns the expansion scope roots in pre-order: the tree root
// first, then every spliced recursive clone.
func (t *ExpandedTree) Scopes() []*Instance {
	return t.scopes
}

// Len returns the number of instances in the tree.
func (t *ExpandedTree) Len() int {
	return len(t.inorder)
}

// Configuration maps every expanded instance to selected/unselected.
type Configuration map[Identifier]bool

// Clone returns an independent copy of the configuration.
func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	for id, v := range c {
		out[id] = v
	}
	return out
}

// Selected returns the selected identifiers in lexical order.
func (c Configuration) Selected() []Identifier {
	var out []Identifier
	for id, v := range c {
		if v {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
