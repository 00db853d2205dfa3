package feature

import (
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// LitMapping performs translation between instance identifiers and
// the variables that appear in a SAT formula.
type LitMapping interface {
	LitOf(subject Identifier) z.Lit
	LogicCircuit() *logic.C
}
