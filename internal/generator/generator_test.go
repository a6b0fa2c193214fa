package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func Test_MockGenerator_StreamMatchesBlocking(t *testing.T) {
	t.Parallel()
	g := &MockGenerator{Response: "alpha beta gamma delta"}
	ctx := context.Background()

	blocking, err := g.Generate(ctx, "q")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	ch, err := g.GenerateStream(ctx, "q")
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	var sb strings.Builder
	for f := range ch {
		if f.Err != nil {
			t.Fatalf("unexpected stream error: %v", f.Err)
		}
		sb.WriteString(f.Text)
	}

	if sb.String() != blocking {
		t.Errorf("streamed %q, blocking %q", sb.String(), blocking)
	}
}

func Test_MockGenerator_StreamPreservesWhitespace(t *testing.T) {
	t.Parallel()
	responses := []string{
		"line one\nline two\n",
		"double  spaced  words",
		"tabs\tand\r\nwindows endings",
		"  leading and trailing  ",
	}
	ctx := context.Background()

	for _, resp := range responses {
		g := &MockGenerator{Response: resp}

		ch, err := g.GenerateStream(ctx, "q")
		if err != nil {
			t.Fatalf("GenerateStream error: %v", err)
		}
		var sb strings.Builder
		for f := range ch {
			if f.Err != nil {
				t.Fatalf("unexpected stream error: %v", f.Err)
			}
			sb.WriteString(f.Text)
		}

		if sb.String() != resp {
			t.Errorf("streamed %q, want %q", sb.String(), resp)
		}
	}
}

func Test_MockGenerator_StreamError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("model offline")
	g := &MockGenerator{Err: wantErr}

	ch, err := g.GenerateStream(context.Background(), "q")
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}

	var got error
	var fragments int
	for f := range ch {
		fragments++
		got = f.Err
	}
	if fragments != 1 {
		t.Fatalf("got %d fragments, want 1 terminal error fragment", fragments)
	}
	if !errors.Is(got, wantErr) {
		t.Errorf("stream error = %v, want %v", got, wantErr)
	}
}

func Test_MockGenerator_StreamStopsOnCancel(t *testing.T) {
	t.Parallel()
	g := &MockGenerator{Response: strings.Repeat("word ", 1000)}
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := g.GenerateStream(ctx, "q")
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}

	// Read a couple of fragments, then cancel without draining.
	<-ch
	<-ch
	cancel()

	// The channel must close once the producer notices cancellation.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream channel never closed after cancel")
		}
	}
}
