// Package render turns a configuration into configured text. A
// mapping model relates feature selections to text fragments through
// variation points; rendering substitutes each variation point with
// the fragment of its first selected variant, following recursive
// clone roots into their own expansion scopes.
package render

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// Variant couples a feature name with the text fragment it
// contributes when that feature is selected. The fragment may contain
// {Handler} placeholders substituting other variation points.
type Variant struct {
	Feature string `yaml:"feature"`
	Text    string `yaml:"text"`
}

// VariationPoint is one substitutable position in the output text,
// addressed by its handler name. Variants are tried in declaration
// order; the first one whose feature is selected wins.
type VariationPoint struct {
	Handler  string    `yaml:"handler"`
	Variants []Variant `yaml:"variants"`
}

// Mapping is a mapping model: the variation points and the handler
// rendering starts at.
type Mapping struct {
	Root            string           `yaml:"root"`
	VariationPoints []VariationPoint `yaml:"variation_points"`
}

// LoadMapping parses a YAML mapping model.
func LoadMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing mapping model: %w", err)
	}
	if m.Root == "" {
		return nil, &feature.RenderError{Message: "mapping model declares no root handler"}
	}
	seen := map[string]struct{}{}
	for _, vp := range m.VariationPoints {
		if _, dup := seen[vp.Handler]; dup {
			return nil, &feature.RenderError{Handler: vp.Handler, Message: "declared twice"}
		}
		seen[vp.Handler] = struct{}{}
	}
	return &m, nil
}

// Render produces the text the configuration selects, starting at the
// mapping's root handler in the tree root's scope. Variant features
// resolve like constraint atoms: scope-local first, then climbing the
// enclosing scopes. A variant naming an expansion scope root switches
// its fragment's placeholders into that scope, so recursive models
// render recursively.
//
// Render fails with a *feature.RenderError on an unknown handler or
// feature, a variation point none of whose variants is selected, or a
// substitution cycle.
func Render(t *feature.ExpandedTree, m *Mapping, cfg feature.Configuration) (string, error) {
	r := &renderer{
		cfg:       cfg,
		byHandler: map[string]*VariationPoint{},
		tables:    map[feature.Identifier]map[string][]*feature.Instance{},
		isScope:   map[feature.Identifier]bool{},
		enclosing: map[feature.Identifier]feature.Identifier{},
		active:    map[string]bool{},
	}
	for i := range m.VariationPoints {
		vp := &m.VariationPoints[i]
		r.byHandler[vp.Handler] = vp
	}
	for _, s := range t.Scopes() {
		r.isScope[s.ID] = true
	}
	r.index(t.Root, t.Root.ID)

	return r.render(m.Root, t.Root.ID)
}

type renderer struct {
	cfg       feature.Configuration
	byHandler map[string]*VariationPoint
	tables    map[feature.Identifier]map[string][]*feature.Instance
	isScope   map[feature.Identifier]bool
	enclosing map[feature.Identifier]feature.Identifier
	active    map[string]bool
}

// index assigns every instance to its nearest enclosing scope and
// records the scope nesting. A clone root belongs to the outer scope;
// its descendants to the clone's own.
func (r *renderer) index(i *feature.Instance, scope feature.Identifier) {
	tbl := r.tables[scope]
	if tbl == nil {
		tbl = map[string][]*feature.Instance{}
		r.tables[scope] = tbl
	}
	tbl[i.Name] = append(tbl[i.Name], i)

	next := scope
	if r.isScope[i.ID] && i.ID != scope {
		r.enclosing[i.ID] = scope
		next = i.ID
	}
	for _, c := range i.Children() {
		r.index(c, next)
	}
}

func (r *renderer) render(handler string, scope feature.Identifier) (string, error) {
	vp, ok := r.byHandler[handler]
	if !ok {
		return "", &feature.RenderError{Handler: handler, Message: "unknown variation point"}
	}
	key := string(scope) + "\x00" + handler
	if r.active[key] {
		return "", &feature.RenderError{Handler: handler, Message: fmt.Sprintf("substitutes itself in scope %s", scope)}
	}
	r.active[key] = true
	defer delete(r.active, key)

	for _, v := range vp.Variants {
		inst, err := r.lookup(handler, v.Feature, scope)
		if err != nil {
			return "", err
		}
		if !r.cfg[inst.ID] {
			continue
		}
		next := scope
		if r.isScope[inst.ID] {
			next = inst.ID
		}
		return r.substitute(handler, v.Text, next)
	}
	return "", &feature.RenderError{Handler: handler, Message: fmt.Sprintf("no variant selected in scope %s", scope)}
}

// lookup resolves a variant's feature name scope-locally, climbing
// the enclosing scopes like constraint atoms do.
func (r *renderer) lookup(handler, name string, scope feature.Identifier) (*feature.Instance, error) {
	for s := scope; ; s = r.enclosing[s] {
		candidates := r.tables[s][name]
		switch len(candidates) {
		case 0:
		case 1:
			return candidates[0], nil
		default:
			return nil, &feature.RenderError{
				Handler: handler,
				Message: fmt.Sprintf("ambiguous: %d instances named %q in scope %s", len(candidates), name, s),
			}
		}
		if _, ok := r.enclosing[s]; !ok {
			return nil, &feature.RenderError{Handler: handler, Message: fmt.Sprintf("no feature instance named %q", name)}
		}
	}
}

// substitute expands every {Handler} placeholder of a fragment in the
// given scope.
func (r *renderer) substitute(handler, text string, scope feature.Identifier) (string, error) {
	var out strings.Builder
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			out.WriteString(text)
			return out.String(), nil
		}
		out.WriteString(text[:open])
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			return "", &feature.RenderError{Handler: handler, Message: "unterminated placeholder " + text[open:]}
		}
		sub, err := r.render(text[open+1:open+end], scope)
		if err != nil {
			return "", err
		}
		out.WriteString(sub)
		text = text[open+end+1:]
	}
}
