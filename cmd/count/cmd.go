package count

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmhorcas/recursive-configuration/cmd/modelfile"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/enumerate"
	"github.com/jmhorcas/recursive-configuration/pkg/feature/expand"
)

func NewCountCommand() *cobra.Command {
	var (
		maxDepth int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "count <model>",
		Short: "Counts the valid configurations of a feature model",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := modelfile.Load(args[0], maxDepth)
			if err != nil {
				return err
			}
			n, err := enumerate.Count(cmd.Context(), eng.Expanded(), eng.Constraints(), enumerate.WithWorkers(workers))
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", expand.DefaultMaxDepth, "recursion depth bound")
	cmd.Flags().IntVar(&workers, "workers", 1, "explore top-level branches on this many goroutines")

	return cmd
}
