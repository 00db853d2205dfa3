package render

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
	"github.com/jmhorcas/recursive-configuration/pkg/feature/render"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/validate"
)

func NewRenderCommand() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "render <model> <mapping.yaml> <configuration.yaml>",
		Short: "Renders a configuration as configured text",
		Long: `Renders a configuration through a mapping model: each variation
point substitutes the text of its first selected variant, recursing
into spliced clones, so a configured recursive model prints as e.g.
its expression string. The mapping model is a YAML document:

root: Expr
variation_points:
  - handler: RExpr
    variants:
      - feature: Expr2
        text: "{Expr}"
      - feature: Var2
        text: "y"

The configuration is validated before rendering.`,
		Args: cobra.ExactArgs(3),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file (%s) not found", path)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2], maxDepth)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", expand.DefaultMaxDepth, "recursion depth bound")

	return cmd
}

func run(modelPath, mappingPath, cfgPath string, maxDepth int) error {
	eng, err := modelfile.Load(modelPath, maxDepth)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(mappingPath)
	if err != nil {
		return fmt.Errorf("error reading mapping model file (%s): %w", mappingPath, err)
	}
	mapping, err := render.LoadMapping(data)
	if err != nil {
		return fmt.Errorf("error loading mapping model (%s): %w", mappingPath, err)
	}

	data, err = os.ReadFile(cfgPath)
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

	if violations := validate.Validate(eng.Expanded(), eng.Constraints(), cfg); len(violations) > 0 {
		for _, v := range violations {
			color.Red("%s", v)
		}
		return fmt.Errorf("cannot render an invalid configuration: %d violation(s)", len(violations))
	}

	text, err := render.Render(eng.Expanded(), mapping, cfg)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
