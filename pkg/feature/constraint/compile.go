package constraint

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// Compiled is one constraint line bound to the instances of a single
// expansion scope. Non-root replicas are guarded: they only apply
// when the scope's clone root is selected.
type Compiled struct {
	Line  int
	Text  string
	Scope feature.Identifier
	Expr  Expr

	guarded bool
	atomIDs []feature.Identifier
}

// Atoms returns every instance id the constraint depends on,
// including the guarding scope root for clone replicas.
func (c *Compiled) Atoms() []feature.Identifier {
	return c.atomIDs
}

// Evaluate reports whether the constraint holds in the configuration.
// A guarded replica holds vacuously while its scope root is
// unselected.
func (c *Compiled) Evaluate(cfg feature.Configuration) bool {
	if c.guarded && !cfg[c.Scope] {
		return true
	}
	return c.Expr.Eval(cfg)
}

// Apply encodes the constraint into the mapping's logic circuit.
func (c *Compiled) Apply(lm feature.LitMapping) z.Lit {
	m := c.Expr.Lit(lm)
	if c.guarded {
		m = lm.LogicCircuit().Or(lm.LitOf(c.Scope).Not(), m)
	}
	return m
}

// String implements fmt.Stringer and returns a human-readable message
// representing the receiver.
func (c *Compiled) String() string {
	if c.guarded {
		return fmt.Sprintf("%s requires %s (line %d)", c.Scope, c.Text, c.Line)
	}
	return fmt.Sprintf("%s (line %d)", c.Text, c.Line)
}

// Set is the full compilation result: every constraint line, once per
// expansion scope it binds in.
type Set []*Compiled

// Compile parses each constraint line and resolves its atoms against
// the expanded tree, once per expansion scope. An atom resolves to
// the nearest enclosing instance with a matching name along the same
// expansion path: the scope's own instances first, then the enclosing
// scope's, up to the root. Replicas whose atoms all resolve outside
// their own scope are dropped as duplicates of the enclosing replica.
//
// Compile fails with a *feature.ConstraintError on a malformed
// formula or an atom that resolves to no instance or to more than one
// within a scope.
func Compile(t *feature.ExpandedTree, lines []feature.ConstraintLine) (Set, error) {
	tables := scopeTables(t)

	var set Set
	for _, line := range lines {
		parsed, err := ParseFormula(line)
		if err != nil {
			return nil, err
		}
		for si, scope := range t.Scopes() {
			localHits := 0
			resolve := func(name string) (feature.Identifier, error) {
				local := true
				for s := scope; s != nil; s = enclosingScope(t, s) {
					candidates := tables[s.ID][name]
					switch len(candidates) {
					case 0:
						local = false
						continue
					case 1:
						if local {
							localHits++
						}
						return candidates[0].ID, nil
					default:
						return "", &feature.ConstraintError{
							Line: line.Line,
							Atom: name,
							Message: fmt.Sprintf("ambiguous: %d instances named %q in scope %s",
								len(candidates), name, s.ID),
						}
					}
				}
				return "", &feature.ConstraintError{Line: line.Line, Atom: name, Message: "no matching feature instance"}
			}
			bound, err := parsed.resolve(resolve)
			if err != nil {
				return nil, err
			}
			if si > 0 && localHits == 0 {
				continue
			}
			c := &Compiled{
				Line:    line.Line,
				Text:    line.Text,
				Scope:   scope.ID,
				Expr:    bound,
				guarded: si > 0,
			}
			c.atomIDs = bound.atoms(nil)
			if c.guarded {
				c.atomIDs = append(c.atomIDs, scope.ID)
			}
			set = append(set, c)
		}
	}
	return set, nil
}

// scopeTables maps each scope root to a name index of the instances
// it directly encloses. A clone root belongs to its enclosing scope;
// its descendants belong to the clone's own scope.
func scopeTables(t *feature.ExpandedTree) map[feature.Identifier]map[string][]*feature.Instance {
	isScope := make(map[feature.Identifier]bool, len(t.Scopes()))
	for _, s := range t.Scopes() {
		isScope[s.ID] = true
	}

	tables := make(map[feature.Identifier]map[string][]*feature.Instance, len(t.Scopes()))
	var walk func(i *feature.Instance, scope feature.Identifier)
	walk = func(i *feature.Instance, scope feature.Identifier) {
		tbl := tables[scope]
		if tbl == nil {
			tbl = map[string][]*feature.Instance{}
			tables[scope] = tbl
		}
		tbl[i.Name] = append(tbl[i.Name], i)

		next := scope
		if isScope[i.ID] {
			next = i.ID
		}
		for _, c := range i.Children() {
			walk(c, next)
		}
	}
	walk(t.Root, t.Root.ID)
	return tables
}

// enclosingScope returns the scope root whose scope contains the
// given clone root, or nil for the tree root.
func enclosingScope(t *feature.ExpandedTree, s *feature.Instance) *feature.Instance {
	isScope := func(i *feature.Instance) bool {
		for _, sc := range t.Scopes() {
			if sc == i {
				return true
			}
		}
		return false
	}
	for p := s.Parent; p != nil; p = p.Parent {
		if isScope(p) {
			return p
		}
	}
	if s == t.Root {
		return nil
	}
	return t.Root
}
