package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/rag"
)

// NewAskCmd constructs the `docqa ask` command, which answers a single
// natural language question from the ingested corpus and streams the
// response to stdout.
func NewAskCmd() *cobra.Command {
	var complete bool
	var topK int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question answered from your ingested documents",
		Long: `Ask a natural language question against the local corpus.

The engine retrieves the most relevant chunks, builds a grounded prompt,
and streams the model's answer to stdout. Citations referencing the source
documents are printed after the answer text.

Examples:
  docqa ask "what does the deployment runbook say about rollbacks?"
  docqa ask --complete "summarise the incident review"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, true)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer stack.close()

			question := strings.Join(args, " ")
			opts := rag.SearchOptions{TopK: topK}

			if complete {
				answer, err := stack.engine.AskComplete(ctx, question, opts)
				if err != nil {
					return fmt.Errorf("ask: %w", err)
				}
				fmt.Println(answer.Text)
				printCitations(answer.Citations)
				return nil
			}

			var citations []rag.Citation
			for tok := range stack.engine.Ask(ctx, question, opts) {
				switch tok.Type {
				case rag.TokenContent:
					fmt.Print(tok.Content)
				case rag.TokenCitations:
					citations = tok.Citations
				case rag.TokenError:
					fmt.Fprintln(os.Stderr)
					return fmt.Errorf("ask: %s", tok.Err)
				}
			}
			fmt.Println()
			printCitations(citations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&complete, "complete", false, "Wait for the full answer instead of streaming")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of chunks to retrieve (0 uses the configured default)")

	return cmd
}

// printCitations renders the citation list beneath an answer.
func printCitations(citations []rag.Citation) {
	if len(citations) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, c := range citations {
		fmt.Printf("  [%d] %s — %s\n", c.Number, c.DocumentID, c.Snippet)
	}
}
