// Package builder turns a parsed declaration tree into a typed
// feature tree with group semantics.
package builder

import (
	"fmt"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/parser"
)

// Build consumes the declaration tree and produces the feature tree.
// It fails with a *feature.SemanticError when a feature name is
// declared twice in the same scope, a group keyword is applied to
// zero children, or an alternative/or group has fewer than two
// children.
func Build(m *parser.Model) (*feature.Tree, error) {
	if len(m.Features) == 0 {
		return nil, &feature.SemanticError{Feature: m.Namespace, Reason: "model declares no root feature"}
	}
	if len(m.Features) > 1 {
		return nil, &feature.SemanticError{
			Feature: m.Features[1].Name,
			Reason:  fmt.Sprintf("second root feature: the features block must declare exactly one root, found %d", len(m.Features)),
		}
	}

	root, err := buildFeature(m.Features[0])
	if err != nil {
		return nil, err
	}
	return &feature.Tree{
		Namespace:   m.Namespace,
		Root:        root,
		Constraints: m.Constraints,
	}, nil
}

func buildFeature(d *parser.Decl) (*feature.Feature, error) {
	f := &feature.Feature{
		Name:     d.Name,
		Abstract: d.Abstract,
		RecRef:   d.RecRef,
	}

	if d.RecRef != "" && len(d.Blocks) > 0 {
		return nil, &feature.SemanticError{
			Feature: d.Name,
			Reason:  "a recursive feature re-embeds its template's subtree and cannot declare children of its own",
		}
	}

	seen := map[string]struct{}{}
	for _, b := range d.Blocks {
		kind, err := groupKind(d.Name, b)
		if err != nil {
			return nil, err
		}
		g := feature.Group{Kind: kind}
		for _, child := range b.Children {
			if _, dup := seen[child.Name]; dup {
				return nil, &feature.SemanticError{
					Feature: child.Name,
					Reason:  fmt.Sprintf("declared twice under %q", d.Name),
				}
			}
			seen[child.Name] = struct{}{}
			cf, err := buildFeature(child)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, cf)
		}
		f.Groups = append(f.Groups, g)
	}

	return f, nil
}

// groupKind maps a block's keyword to group semantics. A block with
// no keyword (children declared directly under their parent) defaults
// to mandatory-children.
func groupKind(parent string, b *parser.Block) (feature.GroupKind, error) {
	if len(b.Children) == 0 {
		return 0, &feature.SemanticError{
			Feature: parent,
			Reason:  fmt.Sprintf("group %q has no children", b.Keyword),
		}
	}
	switch b.Keyword {
	case "", "mandatory":
		return feature.MandatoryChildren, nil
	case "optional":
		return feature.OptionalChild, nil
	case "alternative", "or":
		if len(b.Children) < 2 {
			return 0, &feature.SemanticError{
				Feature: parent,
				Reason:  fmt.Sprintf("%s group needs at least two children, found %d", b.Keyword, len(b.Children)),
			}
		}
		if b.Keyword == "alternative" {
			return feature.Alternative, nil
		}
		return feature.Or, nil
	}
	// unreachable: the parser rejects unknown keywords
	return 0, &feature.SemanticError{Feature: parent, Reason: fmt.Sprintf("unknown group keyword %q", b.Keyword)}
}
