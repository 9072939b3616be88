package pipeline

import "testing"

func TestCleanup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "adjacent bullet lists merge",
			input:    "<ul><li>a</li></ul>\n<ul><li>b</li></ul>",
			expected: "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name:     "adjacent ordered lists merge",
			input:    "<ol><li>a</li></ol> <ol><li>b</li></ol>",
			expected: "<ol><li>a</li><li>b</li></ol>",
		},
		{
			name:     "different types stay apart",
			input:    "<ul><li>a</li></ul>\n<ol><li>b</li></ol>",
			expected: "<ul><li>a</li></ul>\n<ol><li>b</li></ol>",
		},
		{
			name:     "open task",
			input:    "[ ] todo",
			expected: "☐ todo",
		},
		{
			name:     "done task",
			input:    "[x] done",
			expected: "☒ done",
		},
		{
			name:     "uppercase x untouched",
			input:    "[X] done",
			expected: "[X] done",
		},
		{
			name:     "level markers stripped",
			input:    "<p>@2@ marker @10@</p>",
			expected: "<p> marker </p>",
		},
		{
			name:     "lone at signs kept",
			input:    "<p>a@b.test @ 2@</p>",
			expected: "<p>a@b.test @ 2@</p>",
		},
		{
			name:     "marker between lists merges them",
			input:    "<ul><li>a</li></ul>@1@<ul><li>b</li></ul>",
			expected: "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name:     "nested merge resolved in one call",
			input:    "</ul></ul><ul><ul>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Cleanup(tt.input); got != tt.expected {
				t.Errorf("Cleanup(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<ul>\n<li>a\n</li></ul>\n\n<ul>\n<li>b\n</li></ul>",
		"</ol>\n<ol></ol>\n<ol>",
		"<p>[ ] a [x] b</p>",
		"</ul></ul>\n<ul><ul>",
		"@@1@1@ x",
		"<ul><li>a</li></ul>@3@<ul><li>b</li></ul>",
	}

	for _, input := range inputs {
		once := Cleanup(input)
		if twice := Cleanup(once); twice != once {
			t.Errorf("Cleanup not idempotent for %q: once %q, twice %q", input, once, twice)
		}
	}
}
