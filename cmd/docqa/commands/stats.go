package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
)

// NewStatsCmd constructs the `docqa stats` command, which prints corpus
// counters and vector cache memory usage.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer stack.close()

			stats, err := stack.engine.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			fmt.Printf("documents:     %d\n", stats.Documents)
			fmt.Printf("chunks:        %d\n", stats.Chunks)
			fmt.Printf("vectors:       %d\n", stats.Vectors)
			fmt.Printf("dimensions:    %d\n", stats.Dimensions)
			fmt.Printf("vector memory: %.1f KiB\n", float64(stats.VectorMemoryBytes)/1024)
			return nil
		},
	}
}
