// Package generator adapts an eino ChatModel to the rag.Generator interface.
// It owns the blocking and streaming call paths so the rest of the engine
// never touches eino types directly.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/docqa-go/internal/rag"
)

// fragmentBuffer bounds the streaming channel so a slow consumer applies
// backpressure to the model stream instead of growing memory unboundedly.
const fragmentBuffer = 8

// ChatModelGenerator implements rag.Generator on top of any eino ChatModel.
type ChatModelGenerator struct {
	model model.ToolCallingChatModel
}

// NewChatModelGenerator wraps an eino ChatModel as a rag.Generator.
func NewChatModelGenerator(m model.ToolCallingChatModel) *ChatModelGenerator {
	return &ChatModelGenerator{model: m}
}

// Generate produces the complete response for prompt in one blocking call.
func (g *ChatModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("generator: generate: %w", err)
	}
	return msg.Content, nil
}

// GenerateStream starts a model stream and returns a channel of fragments.
// The channel is closed after the final fragment; a fragment with Err set is
// always terminal. Cancelling ctx stops the producer goroutine.
func (g *ChatModelGenerator) GenerateStream(ctx context.Context, prompt string) (<-chan rag.Fragment, error) {
	sr, err := g.model.Stream(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("generator: start stream: %w", err)
	}

	out := make(chan rag.Fragment, fragmentBuffer)
	go func() {
		defer close(out)
		defer sr.Close()
		for {
			msg, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				g.emit(ctx, out, rag.Fragment{Err: fmt.Errorf("generator: stream recv: %w", err)})
				return
			}
			if msg.Content == "" {
				continue
			}
			if !g.emit(ctx, out, rag.Fragment{Text: msg.Content}) {
				return
			}
		}
	}()
	return out, nil
}

// emit sends f unless the context is cancelled. Returns false when the
// producer should stop.
func (g *ChatModelGenerator) emit(ctx context.Context, out chan<- rag.Fragment, f rag.Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
