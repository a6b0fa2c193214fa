package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/prompt"
	"github.com/54b3r/docqa-go/internal/rag"
)

// NewSearchCmd constructs the `docqa search` command, which runs retrieval
// without generation and prints the ranked chunks.
func NewSearchCmd() *cobra.Command {
	var topK int
	var minScore float64

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the corpus without generating an answer",
		Long: `Embed the query and rank all corpus chunks by cosine similarity.

Useful for inspecting what context the ask command would retrieve, and for
tuning SEARCH_TOP_K / SEARCH_MIN_SCORE.

Examples:
  docqa search "rollback procedure"
  SEARCH_TOP_K=10 docqa search "error budgets"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer stack.close()

			query := strings.Join(args, " ")
			results, err := stack.engine.Search(ctx, query, rag.SearchOptions{TopK: topK, MinScore: minScore})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%2d. [%.4f] doc=%s chunk=%d\n    %s\n",
					r.Rank, r.Score, r.Chunk.DocumentID, r.Chunk.Index,
					prompt.Snippet(r.Chunk.Content, 120))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of results to return (0 uses the configured default)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum similarity score (0 uses the configured default)")

	return cmd
}
