// Package modelfile loads model files for the recconf sub-commands.
package modelfile

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmhorcas/recursive-configuration/pkg/feature/engine"
)

// Load reads and loads a model file through the full pipeline.
func Load(path string, maxDepth int) (*engine.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file (%s): %w", path, err)
	}
	slog.Debug("loading model", "path", path, "max-depth", maxDepth)
	eng, err := engine.Load(string(data), engine.WithMaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("error loading model (%s): %w", path, err)
	}
	slog.Debug("model loaded",
		"namespace", eng.Expanded().Namespace,
		"instances", eng.Expanded().Len(),
		"constraints", len(eng.Constraints()))
	return eng, nil
}
