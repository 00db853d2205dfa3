package solve

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jmhorcas/recursive-configuration/cmd/modelfile"
	"github.com/jmhorcas/recursive-configuration/pkg/feature"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/solver"
)

func NewSolveCommand() *cobra.Command {
	var (
		maxDepth int
		trace    bool
	)

	cmd := &cobra.Command{
		Use:   "solve <model>",
		Short: "Finds one valid configuration with the SAT solver",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], maxDepth, trace)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", expand.DefaultMaxDepth, "recursion depth bound")
	cmd.Flags().BoolVar(&trace, "trace", false, "trace solver conflicts to stderr")

	return cmd
}

func run(cmd *cobra.Command, path string, maxDepth int, trace bool) error {
	eng, err := modelfile.Load(path, maxDepth)
	if err != nil {
		return err
	}

	var opts []solver.Option
	if trace {
		opts = append(opts, solver.WithTracer(feature.LoggingTracer{Writer: os.Stderr}))
	}

	solution, err := solver.Solve(cmd.Context(), eng.Expanded(), eng.Constraints(), opts...)
	if err != nil {
		return err
	}
	if err := solution.Error(); err != nil {
		fmt.Printf("no valid configuration: %s\n", err)
		return nil
	}

	for _, line := range formatConfiguration(solution.Configuration()) {
		fmt.Println(line)
	}
	return nil
}

// formatConfiguration renders one "id = bool" line per instance, in
// lexical id order so repeated runs print identically.
func formatConfiguration(cfg feature.Configuration) []string {
	ids := make([]feature.Identifier, 0, len(cfg))
	for id := range cfg {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("%s = %t", id, cfg[id])
	}
	return lines
}
