package parser

import (
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

// Model is the abstract syntax of a parsed model document: the
// declaration tree of the features block plus the flat list of
// constraint lines, untouched beyond trimming.
type Model struct {
	Namespace   string
	Features    []*Decl
	Constraints []feature.ConstraintLine
}

// Decl is a single feature declaration block.
type Decl struct {
	Line     int
	Name     string
	Abstract bool
	RecRef   string
	Blocks   []*Block
}

// Block groups the child declarations introduced by a group keyword.
// Keyword is empty for children declared directly under their parent
// with no keyword line; the builder assigns those mandatory semantics.
type Block struct {
	Line     int
	Keyword  string
	Children []*Decl
}
