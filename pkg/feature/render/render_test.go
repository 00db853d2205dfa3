package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/builder"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/parser"
)

const logicFormula = `namespace LogicFormula

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
`

const formulaMapping = `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Not
        text: "!{RExpr}"
      - feature: Or
        text: "({LExpr} | {RExpr})"
      - feature: And
        text: "({LExpr} & {RExpr})"
      - feature: Implies
        text: "({LExpr} => {RExpr})"
      - feature: BiImplication
        text: "({LExpr} <=> {RExpr})"
      - feature: Operands
        text: "{RExpr}"
  - handler: LExpr
    variants:
      - feature: Expr1
        text: "{Expr}"
      - feature: Var1
        text: "x"
  - handler: RExpr
    variants:
      - feature: Expr2
        text: "{Expr}"
      - feature: Var2
        text: "y"
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

func loadMapping(t *testing.T) *Mapping {
	t.Helper()
	m, err := LoadMapping([]byte(formulaMapping))
	require.NoError(t, err)
	return m
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

func TestLoadMapping(t *testing.T) {
	m := loadMapping(t)
	assert.Equal(t, "Expr", m.Root)
	require.Len(t, m.VariationPoints, 3)
	assert.Equal(t, "Not", m.VariationPoints[0].Variants[0].Feature)
	assert.Equal(t, "!{RExpr}", m.VariationPoints[0].Variants[0].Text)
}

func TestLoadMappingErrors(t *testing.T) {
	_, err := LoadMapping([]byte("variation_points:\n  - handler: Expr\n"))
	var rerr *feature.RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "mapping model declares no root handler", rerr.Message)

	_, err = LoadMapping([]byte("root: A\nvariation_points:\n  - handler: A\n  - handler: A\n"))
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "A", rerr.Handler)
	assert.Equal(t, "declared twice", rerr.Message)

	_, err = LoadMapping([]byte("root: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing mapping model")
}

func TestRenderFlatFormula(t *testing.T) {
	type tc struct {
		Name     string
		Selected []feature.Identifier
		Want     string
	}

	for _, tt := range []tc{
		{
			Name:     "variable",
			Selected: []feature.Identifier{"Expr", "Expr/Operands", "Expr/Operands/RExpr", "Expr/Operands/RExpr/Var2"},
			Want:     "y",
		},
		{
			Name: "negation",
			Selected: []feature.Identifier{
				"Expr", "Expr/Connectives", "Expr/Connectives/Not",
				"Expr/Operands", "Expr/Operands/RExpr", "Expr/Operands/RExpr/Var2",
			},
			Want: "!y",
		},
		{
			Name: "implication",
			Selected: []feature.Identifier{
				"Expr", "Expr/Connectives", "Expr/Connectives/Implies",
				"Expr/Operands",
				"Expr/Operands/LExpr", "Expr/Operands/LExpr/Var1",
				"Expr/Operands/RExpr", "Expr/Operands/RExpr/Var2",
			},
			Want: "(x => y)",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			x := expandModel(t, logicFormula, 0)
			got, err := Render(x, loadMapping(t), cfgOf(x, tt.Selected...))
			require.NoError(t, err)
			assert.Equal(t, tt.Want, got)
		})
	}
}

func TestRenderRecursiveFormula(t *testing.T) {
	// The left operand is itself a formula: a negated variable inside
	// the spliced clone.
	x := expandModel(t, logicFormula, 1)
	cfg := cfgOf(x,
		"Expr",
		"Expr/Connectives",
		"Expr/Connectives/And",
		"Expr/Operands",
		"Expr/Operands/LExpr",
		"Expr/Operands/LExpr/Expr1",
		"Expr/Operands/LExpr/Expr1/Connectives",
		"Expr/Operands/LExpr/Expr1/Connectives/Not",
		"Expr/Operands/LExpr/Expr1/Operands",
		"Expr/Operands/LExpr/Expr1/Operands/RExpr",
		"Expr/Operands/LExpr/Expr1/Operands/RExpr/Var2",
		"Expr/Operands/RExpr",
		"Expr/Operands/RExpr/Var2",
	)

	got, err := Render(x, loadMapping(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, "(!y & y)", got)
}

func TestRenderErrors(t *testing.T) {
	x := expandModel(t, logicFormula, 0)
	cfg := cfgOf(x, "Expr", "Expr/Operands", "Expr/Operands/RExpr", "Expr/Operands/RExpr/Var2")

	type tc struct {
		Name    string
		Mapping string
		Handler string
		Message string
	}

	for _, tt := range []tc{
		{
			Name:    "unknown root handler",
			Mapping: "root: Formula\nvariation_points: []\n",
			Handler: "Formula",
			Message: "unknown variation point",
		},
		{
			Name: "unknown placeholder",
			Mapping: `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Operands
        text: "{Ghost}"
`,
			Handler: "Ghost",
			Message: "unknown variation point",
		},
		{
			Name: "unknown feature",
			Mapping: `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Phantom
        text: "p"
`,
			Handler: "Expr",
			Message: `no feature instance named "Phantom"`,
		},
		{
			Name: "no selected variant",
			Mapping: `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Var1
        text: "x"
`,
			Handler: "Expr",
			Message: "no variant selected in scope Expr",
		},
		{
			Name: "substitution cycle",
			Mapping: `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Operands
        text: "{Expr}"
`,
			Handler: "Expr",
			Message: "substitutes itself in scope Expr",
		},
		{
			Name: "unterminated placeholder",
			Mapping: `root: Expr
variation_points:
  - handler: Expr
    variants:
      - feature: Operands
        text: "{RExpr"
`,
			Handler: "Expr",
			Message: "unterminated placeholder {RExpr",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m, err := LoadMapping([]byte(tt.Mapping))
			require.NoError(t, err)

			_, err = Render(x, m, cfg)
			require.Error(t, err)
			var rerr *feature.RenderError
			require.True(t, errors.As(err, &rerr), "expected a RenderError, got %v", err)
			assert.Equal(t, tt.Handler, rerr.Handler)
			assert.Equal(t, tt.Message, rerr.Message)
		})
	}
}
