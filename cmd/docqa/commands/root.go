// Package commands defines all Cobra CLI commands for the docqa binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/audit"
	"github.com/54b3r/docqa-go/internal/config"
	"github.com/54b3r/docqa-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docqa",
		Short: "docqa — local question answering over your own documents",
		Long: `docqa is a local-first retrieval-augmented Q&A engine.

Ingest plain-text documents into a local SQLite corpus, then ask natural
language questions. Answers are generated by an LLM grounded in the most
relevant document chunks, with numbered citations back to their sources.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.docqa/config.yaml).
See 'docqa --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.docqa/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewSearchCmd(),
		NewIngestCmd(),
		NewDocsCmd(),
		NewReembedCmd(),
		NewStatsCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
