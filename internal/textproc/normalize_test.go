package textproc

import (
	"strings"
	"testing"
)

func Test_Normalize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"crlf to lf", "a\r\nb", "a\nb"},
		{"bare cr to lf", "a\rb", "a\nb"},
		{"tabs and spaces collapse", "a \t  b", "a b"},
		{"triple newline collapses to two", "a\n\n\n\nb", "a\n\nb"},
		{"trim", "  hello  ", "hello"},
		{"paragraph preserved", "a\n\nb", "a\n\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.input); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func Test_Tokenize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two", 2},
		{"one\ttwo\nthree", 3},
		{"  padded   tokens  ", 2},
	}
	for _, tc := range cases {
		got := Tokenize(tc.input)
		if len(got) != tc.want {
			t.Errorf("Tokenize(%q): want %d tokens, got %d (%v)", tc.input, tc.want, len(got), got)
		}
	}
}

func Test_CountTokens_MatchesTokenize(t *testing.T) {
	t.Parallel()
	input := "the quick brown\nfox  jumps"
	if got, want := CountTokens(input), len(Tokenize(input)); got != want {
		t.Errorf("CountTokens = %d, want %d", got, want)
	}
}

func Test_Tokenize_NoEmptyTokens(t *testing.T) {
	t.Parallel()
	for _, tok := range Tokenize("a  b\t\tc\n\nd") {
		if strings.TrimSpace(tok) == "" {
			t.Fatalf("empty token leaked through: %q", tok)
		}
	}
}
