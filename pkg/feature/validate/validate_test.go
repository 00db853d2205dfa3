package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/builder"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/constraint"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/parser"
)

const groups = `namespace N

features
	Root
		mandatory
			M
		optional
			O
		alternative
			A
			B
		or
			X
			Y
`

func expandModel(t *testing.T, text string, maxDepth int) *feature.ExpandedTree {
	t.Helper()
	m, err := parser.Parse(text)
	require.NoError(t, err)
	tree, err := builder.Build(m)
	require.NoError(t, err)
	x, err := expand.Expand(tree, maxDepth)
	require.NoError(t, err)
	return x
}

// cfgOf assigns every instance false, then selects the given ids.
func cfgOf(x *feature.ExpandedTree, selected ...feature.Identifier) feature.Configuration {
	cfg := make(feature.Configuration, x.Len())
	for _, inst := range x.Instances() {
		cfg[inst.ID] = false
	}
	for _, id := range selected {
		cfg[id] = true
	}
	return cfg
}

func TestValidateAccepts(t *testing.T) {
	x := expandModel(t, groups, 0)
	cfg := cfgOf(x, "Root", "Root/M", "Root/A", "Root/X")
	assert.Empty(t, Validate(x, nil, cfg))
}

func TestValidateStructural(t *testing.T) {
	type tc struct {
		Name     string
		Selected []feature.Identifier
		Want     []feature.Violation
	}

	for _, tt := range []tc{
		{
			Name:     "root unselected",
			Selected: nil,
			Want: []feature.Violation{
				{Subject: "Root", Rule: "the root feature must be selected"},
			},
		},
		{
			Name:     "child selected without parent",
			Selected: []feature.Identifier{"Root/X"},
			Want: []feature.Violation{
				{Subject: "Root", Rule: "the root feature must be selected"},
				{Subject: "Root/X", Rule: "selected while its parent Root is not"},
			},
		},
		{
			Name:     "mandatory child unselected",
			Selected: []feature.Identifier{"Root", "Root/A", "Root/X"},
			Want: []feature.Violation{
				{Subject: "Root/M", Rule: "mandatory: must be selected exactly when Root is"},
			},
		},
		{
			Name:     "alternative selects none",
			Selected: []feature.Identifier{"Root", "Root/M", "Root/X"},
			Want: []feature.Violation{
				{Subject: "Root", Rule: "alternative group requires exactly one of A, B, found 0"},
			},
		},
		{
			Name:     "alternative selects both",
			Selected: []feature.Identifier{"Root", "Root/M", "Root/A", "Root/B", "Root/X"},
			Want: []feature.Violation{
				{Subject: "Root", Rule: "alternative group requires exactly one of A, B, found 2"},
			},
		},
		{
			Name:     "or selects none",
			Selected: []feature.Identifier{"Root", "Root/M", "Root/A"},
			Want: []feature.Violation{
				{Subject: "Root", Rule: "or group requires at least one of X, Y"},
			},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			x := expandModel(t, groups, 0)
			got := Validate(x, nil, cfgOf(x, tt.Selected...))
			assert.ElementsMatch(t, tt.Want, got)
		})
	}
}

func TestValidateConfigurationShape(t *testing.T) {
	x := expandModel(t, groups, 0)

	cfg := cfgOf(x, "Root", "Root/M", "Root/A", "Root/X")
	delete(cfg, "Root/O")
	got := Validate(x, nil, cfg)
	assert.Equal(t, feature.ViolationList{
		{Subject: "Root/O", Rule: "no entry in configuration"},
	}, got)

	cfg = cfgOf(x, "Root", "Root/M", "Root/A", "Root/X")
	cfg["Root/Z"] = true
	got = Validate(x, nil, cfg)
	assert.Equal(t, feature.ViolationList{
		{Subject: "Root/Z", Rule: "not an instance of the expanded tree"},
	}, got)
}

func TestValidateForbiddenInstance(t *testing.T) {
	x := expandModel(t, `namespace N

features
	Root
		optional
			R {rec Root}
`, 0)
	cfg := cfgOf(x, "Root", "Root/R")
	got := Validate(x, nil, cfg)
	assert.Equal(t, feature.ViolationList{
		{Subject: "Root/R", Rule: "cannot be selected: the recursion depth bound leaves it without an expansion"},
	}, got)
}

func TestValidateCompiledConstraints(t *testing.T) {
	x := expandModel(t, groups, 0)
	set, err := constraint.Compile(x, []feature.ConstraintLine{
		{Line: 9, Text: "M => O"},
		{Line: 10, Text: "A => !X"},
	})
	require.NoError(t, err)

	cfg := cfgOf(x, "Root", "Root/M", "Root/A", "Root/X")
	got := Validate(x, set, cfg)
	assert.ElementsMatch(t, []feature.Violation{
		{Subject: "Root", Rule: "violates constraint M => O (line 9)"},
		{Subject: "Root", Rule: "violates constraint A => !X (line 10)"},
	}, got)

	cfg["Root/O"] = true
	cfg["Root/X"] = false
	cfg["Root/Y"] = true
	assert.Empty(t, Validate(x, set, cfg))
}

func TestValidateCloneScopeConstraint(t *testing.T) {
	x := expandModel(t, `namespace LogicFormula

features
	Expr {abstract}
		optional
			Connectives {abstract}
				alternative
					Not
					Or
					And
					Implies
					BiImplication
		mandatory
			Operands {abstract}
				optional
					LExpr {abstract}
						alternative
							Expr1 {rec Expr}
							Var1
				mandatory
					RExpr {abstract}
						alternative
							Expr2 {rec Expr}
							Var2
`, 1)
	set, err := constraint.Compile(x, []feature.ConstraintLine{
		{Line: 27, Text: "!Connectives => !LExpr & Var2"},
	})
	require.NoError(t, err)

	// An And over a nested connective-free formula: the clone selects
	// no connective, so inside the clone the left operand must stay
	// empty and the right must be a variable.
	cfg := cfgOf(x,
		"Expr",
		"Expr/Connectives",
		"Expr/Connectives/And",
		"Expr/Operands",
		"Expr/Operands/LExpr",
		"Expr/Operands/LExpr/Expr1",
		"Expr/Operands/LExpr/Expr1/Operands",
		"Expr/Operands/LExpr/Expr1/Operands/RExpr",
		"Expr/Operands/LExpr/Expr1/Operands/RExpr/Var2",
		"Expr/Operands/RExpr",
		"Expr/Operands/RExpr/Var2",
	)
	require.Empty(t, Validate(x, set, cfg))

	// Selecting the clone's left operand violates the clone replica
	// without touching the root replica.
	cfg["Expr/Operands/LExpr/Expr1/Operands/LExpr"] = true
	cfg["Expr/Operands/LExpr/Expr1/Operands/LExpr/Var1"] = true
	got := Validate(x, set, cfg)
	assert.Equal(t, feature.ViolationList{
		{Subject: "Expr/Operands/LExpr/Expr1", Rule: "violates constraint !Connectives => !LExpr & Var2 (line 27)"},
	}, got)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	x := expandModel(t, groups, 0)
	set, err := constraint.Compile(x, []feature.ConstraintLine{{Line: 9, Text: "M => O"}})
	require.NoError(t, err)

	// One structural violation per group plus the constraint.
	cfg := cfgOf(x, "Root", "Root/M", "Root/A", "Root/B")
	got := Validate(x, set, cfg)
	assert.Len(t, got, 3)
}
