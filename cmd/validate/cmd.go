package validate

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/jmhorcas/recursive-configuration/cmd/modelfile"
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/validate"
)

func NewValidateCommand() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "validate <model> <configuration.yaml>",
		Short: "Checks a configuration against a feature model",
		Long: `Checks a configuration against the model's group semantics and
cross-tree constraints. The configuration is a YAML mapping from
instance identifiers to booleans, for instance:

Expr: true
Expr/Connectives: false
Expr/Operands: true
`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file (%s) not found", path)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], maxDepth)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", expand.DefaultMaxDepth, "recursion depth bound")

	return cmd
}

func run(modelPath, cfgPath string, maxDepth int) error {
	eng, err := modelfile.Load(modelPath, maxDepth)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("error reading configuration file (%s): %w", cfgPath, err)
	}
	var raw map[string]bool
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error parsing configuration file (%s): %w", cfgPath, err)
	}
	cfg := make(feature.Configuration, len(raw))
	for id, selected := range raw {
		cfg[feature.Identifier(id)] = selected
	}

	violations := validate.Validate(eng.Expanded(), eng.Constraints(), cfg)
	if len(violations) == 0 {
		color.Green("configuration is valid")
		return nil
	}
	for _, v := range violations {
		color.Red("%s", v)
	}
	return fmt.Errorf("%d violation(s)", len(violations))
}
