package main

import (
	"fmt"
	"os"
	"strings"

	notemd "github.com/alnah/go-notemd"
	"github.com/alnah/go-notemd/internal/yamlutil"
)

// outlineEntry is the YAML shape of one heading.
type outlineEntry struct {
	Level int    `yaml:"level"`
	Text  string `yaml:"text"`
	Line  int    `yaml:"line"`
}

// runOutlineCmd prints the heading outline of a note.
func runOutlineCmd(args []string, env *Environment) error {
	flags, positional, err := parseOutlineFlags(args)
	if err != nil {
		return flagError(err)
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: outline needs a markdown file", ErrNoInput)
	}

	inputPath := positional[0]
	if err := validateMarkdownExtension(inputPath); err != nil {
		return err
	}
	content, err := os.ReadFile(inputPath) // #nosec G304 -- user-provided note path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}

	headings := notemd.Outline(string(content))

	switch strings.ToLower(flags.format) {
	case "text":
		for _, h := range headings {
			fmt.Fprintf(env.Stdout, "%s%s (line %d)\n", strings.Repeat("  ", h.Level-1), h.Text, h.Line)
		}
		return nil
	case "yaml":
		entries := make([]outlineEntry, len(headings))
		for i, h := range headings {
			entries[i] = outlineEntry(h)
		}
		data, err := yamlutil.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encoding outline: %w", err)
		}
		_, err = env.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unknown outline format %q (expected text or yaml)", ErrUsage, flags.format)
	}
}
