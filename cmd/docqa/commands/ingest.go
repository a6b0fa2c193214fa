package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
)

// NewIngestCmd constructs the `docqa ingest` command, which adds documents
// to the local corpus from files or stdin.
func NewIngestCmd() *cobra.Command {
	var title string
	var source string

	cmd := &cobra.Command{
		Use:   "ingest [file ...]",
		Short: "Ingest plain-text documents into the local corpus",
		Long: `Read one or more plain-text files (or stdin when no files are given),
chunk their contents, embed each chunk, and persist everything to the local
SQLite corpus.

When the embedding backend is unreachable the document and its chunks are
still persisted; run 'docqa reembed' later to fill in the missing vectors.

Examples:
  docqa ingest notes.txt runbook.txt
  docqa ingest --title "Release notes" --source "wiki" changelog.txt
  cat report.txt | docqa ingest --title "Q3 report"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildStack(ctx, log, false)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer stack.close()

			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("ingest: read stdin: %w", err)
				}
				if title == "" {
					return fmt.Errorf("ingest: --title is required when reading from stdin")
				}
				doc, err := stack.engine.Ingest(ctx, title, string(data), source)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				fmt.Printf("ingested %q (%s)\n", doc.Title, doc.ID)
				return nil
			}

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("ingest: read %s: %w", path, err)
				}

				docTitle := title
				if docTitle == "" || len(args) > 1 {
					docTitle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
				docSource := source
				if docSource == "" {
					docSource = path
				}

				doc, err := stack.engine.Ingest(ctx, docTitle, string(data), docSource)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", path, err)
				}
				fmt.Printf("ingested %q (%s)\n", doc.Title, doc.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Document source label (defaults to the file path)")

	return cmd
}
