package generator

import (
	"context"

	"github.com/54b3r/docqa-go/internal/rag"
)

// MockGenerator is an offline rag.Generator for tests and demos. It echoes a
// canned response; the streamed fragments concatenate to exactly the text
// Generate returns.
type MockGenerator struct {
	// Response is the full text returned by Generate and streamed by
	// GenerateStream. Empty means a small default.
	Response string
	// Err, when set, is returned by Generate and delivered as the terminal
	// stream fragment.
	Err error
}

// Generate returns the canned response, or Err.
func (g *MockGenerator) Generate(_ context.Context, _ string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return g.response(), nil
}

// GenerateStream streams the canned response as raw substrings, splitting
// after each whitespace run so the original bytes survive unchanged.
func (g *MockGenerator) GenerateStream(ctx context.Context, _ string) (<-chan rag.Fragment, error) {
	out := make(chan rag.Fragment, fragmentBuffer)
	go func() {
		defer close(out)
		if g.Err != nil {
			out <- rag.Fragment{Err: g.Err}
			return
		}
		for _, frag := range splitFragments(g.response()) {
			select {
			case out <- rag.Fragment{Text: frag}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// splitFragments cuts s after each run of whitespace, keeping every byte, so
// that strings.Join(splitFragments(s), "") == s.
func splitFragments(s string) []string {
	var frags []string
	start := 0
	inSpace := false
	for i, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if inSpace && !isSpace {
			frags = append(frags, s[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(s) {
		frags = append(frags, s[start:])
	}
	return frags
}

func (g *MockGenerator) response() string {
	if g.Response == "" {
		return "This is a mock answer."
	}
	return g.Response
}
