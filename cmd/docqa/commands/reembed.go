package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
)

// NewReembedCmd constructs the `docqa reembed` command, which embeds any
// chunks that were persisted without vectors (e.g. when the embedding
// backend was down during ingest).
func NewReembedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reembed",
		Short: "Embed chunks that are missing vectors",
		Long: `Scan the corpus for chunks without embeddings and embed them.

Chunks end up without vectors when ingestion succeeds but the embedding
backend is unreachable. This command retries those chunks; chunks that
already have vectors are left untouched.

Examples:
  docqa reembed
  EMBEDDING_PROVIDER=openai docqa reembed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("reembed: %w", err)
			}
			defer stack.close()

			n, err := stack.engine.ReEmbed(ctx)
			if err != nil {
				return fmt.Errorf("reembed: %w", err)
			}
			if n == 0 {
				fmt.Println("all chunks already embedded")
				return nil
			}
			fmt.Printf("embedded %d chunk(s)\n", n)
			return nil
		},
	}
}
