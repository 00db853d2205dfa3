package products

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmhorcas/recursive-configuration/cmd/modelfile"
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/enumerate"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
)

func NewProductsCommand() *cobra.Command {
	var (
		maxDepth int
		limit    int
		workers  int
		concrete bool
	)

	cmd := &cobra.Command{
		Use:   "products <model>",
		Short: "Enumerates the valid configurations of a feature model",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], maxDepth, limit, workers, concrete)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", expand.DefaultMaxDepth, "recursion depth bound")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many configurations (0 = all)")
	cmd.Flags().IntVar(&workers, "workers", 1, "explore top-level branches on this many goroutines")
	cmd.Flags().BoolVar(&concrete, "concrete", false, "print only concrete (non-abstract) features")

	return cmd
}

func run(cmd *cobra.Command, path string, maxDepth, limit, workers int, concrete bool) error {
	eng, err := modelfile.Load(path, maxDepth)
	if err != nil {
		return err
	}

	opts := []enumerate.Option{enumerate.WithWorkers(workers)}
	if limit > 0 {
		opts = append(opts, enumerate.WithLimit(limit))
	}

	n := 0
	for cfg := range enumerate.Enumerate(cmd.Context(), eng.Expanded(), eng.Constraints(), opts...) {
		fmt.Printf("%d: [%s]\n", n, render(eng.Expanded(), cfg, concrete))
		n++
	}
	fmt.Printf("%d configuration(s)\n", n)
	return nil
}

func render(t *feature.ExpandedTree, cfg feature.Configuration, concrete bool) string {
	var names []string
	for _, id := range cfg.Selected() {
		if concrete {
			if inst, ok := t.Instance(id); ok && inst.Abstract {
				continue
			}
		}
		names = append(names, string(id))
	}
	return strings.Join(names, ", ")
}
