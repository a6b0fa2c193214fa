package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/prompt"
)

// NewDocsCmd constructs the `docqa docs` command group for corpus
// inspection and management.
func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List, show, and delete ingested documents",
	}

	cmd.AddCommand(
		newDocsListCmd(),
		newDocsShowCmd(),
		newDocsChunksCmd(),
		newDocsDeleteCmd(),
	)

	return cmd
}

func newDocsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents in the corpus, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			defer stack.close()

			docs, err := stack.engine.Documents(ctx)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			if len(docs) == 0 {
				fmt.Println("corpus is empty")
				return nil
			}
			for _, d := range docs {
				fmt.Printf("%s  %s  %s\n", d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.Title)
			}
			return nil
		},
	}
}

func newDocsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a document's metadata and full content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("docs show: %w", err)
			}
			defer stack.close()

			doc, err := stack.engine.Document(ctx, args[0])
			if err != nil {
				return fmt.Errorf("docs show: %w", err)
			}
			fmt.Printf("id:      %s\ntitle:   %s\nsource:  %s\ncreated: %s\n\n%s\n",
				doc.ID, doc.Title, doc.Source, doc.CreatedAt.Format("2006-01-02 15:04:05"), doc.Content)
			return nil
		},
	}
}

func newDocsChunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunks [id]",
		Short: "List a document's chunks in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("docs chunks: %w", err)
			}
			defer stack.close()

			// Resolve the document first so an unknown ID reports not-found
			// rather than an empty chunk list.
			if _, err := stack.engine.Document(ctx, args[0]); err != nil {
				return fmt.Errorf("docs chunks: %w", err)
			}
			chunks, err := stack.engine.Chunks(ctx, args[0])
			if err != nil {
				return fmt.Errorf("docs chunks: %w", err)
			}
			for _, c := range chunks {
				fmt.Printf("%3d  %s  tokens=%d\n     %s\n",
					c.Index, c.ID, c.TokenCount, prompt.Snippet(c.Content, 120))
			}
			return nil
		},
	}
}

func newDocsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a document and all its chunks and vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}
			defer stack.close()

			if err := stack.engine.DeleteDocument(ctx, args[0]); err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
