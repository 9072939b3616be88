package pipeline

import "testing"

func TestNormalizeLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"unix unchanged", "a\nb", "a\nb"},
		{"windows", "a\r\nb", "a\nb"},
		{"old mac", "a\rb", "a\nb"},
		{"mixed", "a\r\nb\rc\n", "a\nb\nc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeLineEndings(tt.input); got != tt.expected {
				t.Errorf("normalizeLineEndings(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHighlights(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single", "==hot==", "<mark>hot</mark>"},
		{"two on a line", "==a== and ==b==", "<mark>a</mark> and <mark>b</mark>"},
		{"unpaired", "a == b", "a == b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertMarkPlaceholders(convertHighlights(tt.input))
			if got != tt.expected {
				t.Errorf("highlight round trip of %q = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
