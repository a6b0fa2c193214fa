package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/server"
	"github.com/54b3r/docqa-go/internal/tracing"
)

// NewServeCmd constructs the `docqa serve` command, which starts the HTTP
// server exposing the REST/SSE API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docqa HTTP server",
		Long: `Start the docqa HTTP server on localhost.

The server exposes the full engine over REST: document ingestion and
management, similarity search, blocking Q&A, and streaming Q&A over SSE.
Set DOCQA_API_KEY to require Bearer token authentication.

Examples:
  docqa serve
  docqa serve --port 9090
  MODEL_PROVIDER=openai docqa serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			stack, err := buildStack(ctx, log, true)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer stack.close()

			srv, err := server.New(stack.engine, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: buildPingers(stack),
				APIKey:  os.Getenv("DOCQA_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("DOCQA_HOST", "127.0.0.1"), "Host address to bind to (DOCQA_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("DOCQA_PORT", 8080), "TCP port to listen on (DOCQA_PORT)")

	return cmd
}

// buildPingers assembles the readiness probes for the serve command: the
// SQLite store always, plus the embedding backend when it exposes a
// reachability check (the mock embedder does not).
func buildPingers(stack *appStack) []server.Pinger {
	pingers := []server.Pinger{
		&server.FuncPinger{Label: "sqlite", Probe: stack.store.Ping},
	}

	if p, ok := stack.embedder.(interface {
		Ping(ctx context.Context) error
	}); ok {
		pingers = append(pingers, &server.FuncPinger{Label: "embedder", Probe: p.Ping})
	}

	return pingers
}
