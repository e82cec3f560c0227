package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ShortUnchanged", "ola", 10, "ola"},
		{"ExactBoundary", "abcde", 5, "abcde"},
		{"ASCIICut", "abcdef", 3, "abc"},
		{"Empty", "", 5, ""},
		{"ZeroMax", "abc", 0, ""},
		{"NegativeMax", "abc", -1, ""},
		{"AccentedCut", "çãoçãoção", 4, "çãoç"},
		{"MultiByteAtBoundary", "ab€cd", 3, "ab€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateText(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateText(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestToMessageTruncation(t *testing.T) {
	t.Run("NeverSplitsARune", func(t *testing.T) {
		// Rune 2000 is multi-byte; a byte-indexed cut would split it.
		text := strings.Repeat("a", MaxMessageLength-1) + "ç" + "resto"

		msg := (&MessageRequest{Sender: "CTT", Text: text}).ToMessage()

		if n := utf8.RuneCountInString(msg.Text); n != MaxMessageLength {
			t.Errorf("truncated to %d characters, want %d", n, MaxMessageLength)
		}
		if !utf8.ValidString(msg.Text) {
			t.Error("truncated text is not valid UTF-8")
		}
		if !strings.HasSuffix(msg.Text, "ç") {
			t.Errorf("last character mangled: %q", msg.Text[len(msg.Text)-4:])
		}
	})

	t.Run("ShortTextUntouched", func(t *testing.T) {
		msg := (&MessageRequest{Sender: "CTT", Text: "  ola  "}).ToMessage()
		if msg.Text != "ola" {
			t.Errorf("text = %q, want trimmed %q", msg.Text, "ola")
		}
	})
}
