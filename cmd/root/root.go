package root

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmhorcas/recursive-configuration/cmd/count"
	"github.com/jmhorcas/recursive-configuration/cmd/products"
	"github.com/jmhorcas/recursive-configuration/cmd/render"
	"github.com/jmhorcas/recursive-configuration/cmd/solve"
	"github.com/jmhorcas/recursive-configuration/cmd/validate"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "recconf",
		Short: "recconf analyzes recursive feature models",
		Long: `recconf parses feature models with recursive references, unrolls the
recursion up to a configurable depth, and enumerates, counts, solves
for, validates, or renders configurations against the model's group
semantics and cross-tree constraints.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")

	// add sub-commands
	rootCmd.AddCommand(products.NewProductsCommand())
	rootCmd.AddCommand(count.NewCountCommand())
	rootCmd.AddCommand(solve.NewSolveCommand())
	rootCmd.AddCommand(render.NewRenderCommand())
	rootCmd.AddCommand(validate.NewValidateCommand())

	return rootCmd
}
