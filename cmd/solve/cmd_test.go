package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmhorcas/recursive-configuration/pkg/feature"
)

func TestFormatConfiguration(t *testing.T) {
	cfg := feature.Configuration{
		"Expr/Operands":    true,
		"Expr":             true,
		"Expr/Connectives": false,
	}

	want := []string{
		"Expr = true",
		"Expr/Connectives = false",
		"Expr/Operands = true",
	}
	assert.Equal(t, want, formatConfiguration(cfg))
	// map iteration order must not leak into the output
	assert.Equal(t, want, formatConfiguration(cfg))
}
