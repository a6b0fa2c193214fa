// Command docqa is the entry point for the local document Q&A engine.
// It provides a CLI interface (via Cobra) and an optional HTTP server with
// a REST/SSE API for interactive use.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/docqa-go/cmd/docqa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
