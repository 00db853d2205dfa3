package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
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

constraints
	!Connectives => !LExpr & Var2
	Not => !LExpr
	(Or | And | Implies | BiImplication) => LExpr
`

func TestParseLogicFormula(t *testing.T) {
	m, err := Parse(logicFormula)
	require.NoError(t, err)

	assert.Equal(t, "LogicFormula", m.Namespace)
	require.Len(t, m.Features, 1)

	expr := m.Features[0]
	assert.Equal(t, "Expr", expr.Name)
	assert.True(t, expr.Abstract)
	assert.Empty(t, expr.RecRef)
	require.Len(t, expr.Blocks, 2)
	assert.Equal(t, "optional", expr.Blocks[0].Keyword)
	assert.Equal(t, "mandatory", expr.Blocks[1].Keyword)

	connectives := expr.Blocks[0].Children[0]
	assert.Equal(t, "Connectives", connectives.Name)
	require.Len(t, connectives.Blocks, 1)
	assert.Equal(t, "alternative", connectives.Blocks[0].Keyword)
	require.Len(t, connectives.Blocks[0].Children, 5)
	assert.Equal(t, "BiImplication", connectives.Blocks[0].Children[4].Name)

	operands := expr.Blocks[1].Children[0]
	lexpr := operands.Blocks[0].Children[0]
	expr1 := lexpr.Blocks[0].Children[0]
	assert.Equal(t, "Expr1", expr1.Name)
	assert.Equal(t, "Expr", expr1.RecRef)
	assert.False(t, expr1.Abstract)

	require.Len(t, m.Constraints, 3)
	assert.Equal(t, "!Connectives => !LExpr & Var2", m.Constraints[0].Text)
	assert.Equal(t, "Not => !LExpr", m.Constraints[1].Text)
	assert.Equal(t, 27, m.Constraints[0].Line)
}

func TestParseDirectChildren(t *testing.T) {
	m, err := Parse("namespace N\n\nfeatures\n\tRoot\n\t\tChild\n\t\tOther\n")
	require.NoError(t, err)
	root := m.Features[0]
	require.Len(t, root.Blocks, 1)
	assert.Empty(t, root.Blocks[0].Keyword)
	require.Len(t, root.Blocks[0].Children, 2)
	assert.Equal(t, "Child", root.Blocks[0].Children[0].Name)
	assert.Equal(t, "Other", root.Blocks[0].Children[1].Name)
}

func TestParseComments(t *testing.T) {
	m, err := Parse("// a model\nnamespace N\n\nfeatures\n\t// the root\n\tRoot\n")
	require.NoError(t, err)
	assert.Equal(t, "Root", m.Features[0].Name)
}

func TestParseErrors(t *testing.T) {
	type tc struct {
		Name    string
		Input   string
		Line    int
		Message string
	}

	for _, tt := range []tc{
		{
			Name:    "empty input",
			Input:   "",
			Line:    1,
			Message: "empty model: expected namespace header",
		},
		{
			Name:    "missing namespace",
			Input:   "features\n\tRoot\n",
			Line:    1,
			Message: "expected namespace header",
		},
		{
			Name:    "missing features block",
			Input:   "namespace N\nconstraints\n",
			Line:    2,
			Message: "expected features block",
		},
		{
			Name:    "unknown group keyword",
			Input:   "namespace N\nfeatures\n\tRoot\n\t\txor\n\t\t\tA\n\t\t\tB\n",
			Line:    4,
			Message: "unknown group keyword \"xor\"",
		},
		{
			Name:    "group keyword without a feature",
			Input:   "namespace N\nfeatures\n\toptional\n\t\tA\n",
			Line:    3,
			Message: "group keyword \"optional\" must appear under a feature",
		},
		{
			Name:    "dedent between sibling levels",
			Input:   "namespace N\nfeatures\n\tRoot\n\t\toptional\n\t\t\t\tA\n\t\t\tB\n",
			Line:    6,
			Message: "indentation does not match any enclosing block",
		},
		{
			Name:    "misaligned sibling feature",
			Input:   "namespace N\nfeatures\n\tRoot\n\t\t\tA\n\t\tB\n",
			Line:    5,
			Message: "indentation does not match any enclosing block",
		},
		{
			Name:    "unknown annotation",
			Input:   "namespace N\nfeatures\n\tRoot {virtual}\n",
			Line:    3,
			Message: "unknown annotation \"virtual\"",
		},
		{
			Name:    "unterminated annotation",
			Input:   "namespace N\nfeatures\n\tRoot {abstract\n",
			Line:    3,
			Message: "unterminated annotation",
		},
		{
			Name:    "rec without a name",
			Input:   "namespace N\nfeatures\n\tRoot\n\t\tA {rec }\n",
			Line:    4,
			Message: "expected feature name after rec",
		},
		{
			Name:    "unbalanced constraint parenthesis",
			Input:   "namespace N\nfeatures\n\tRoot\nconstraints\n\t(A => B\n",
			Line:    5,
			Message: "unterminated constraint expression",
		},
		{
			Name:    "dangling constraint operator",
			Input:   "namespace N\nfeatures\n\tRoot\nconstraints\n\tA =>\n",
			Line:    5,
			Message: "unterminated constraint expression",
		},
		{
			Name:    "stray closing parenthesis",
			Input:   "namespace N\nfeatures\n\tRoot\nconstraints\n\tA) => B\n",
			Line:    5,
			Message: "unbalanced parenthesis in constraint",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := Parse(tt.Input)
			require.Error(t, err)
			var serr *feature.SyntaxError
			require.True(t, errors.As(err, &serr), "expected a SyntaxError, got %v", err)
			assert.Equal(t, tt.Line, serr.Line)
			assert.Equal(t, tt.Message, serr.Message)
		})
	}
}
