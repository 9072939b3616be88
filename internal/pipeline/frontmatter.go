package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-notemd/internal/yamlutil"
)

// ErrFrontMatter indicates a front matter block that is not valid YAML.
var ErrFrontMatter = errors.New("invalid front matter")

// frontMatterDelim opens and closes a front matter block.
const frontMatterDelim = "---"

// FrontMatter holds the note metadata read from a leading YAML block.
// Unknown keys are ignored.
type FrontMatter struct {
	Title string   `yaml:"title"`
	Theme string   `yaml:"theme"`
	Tags  []string `yaml:"tags"`
}

// frontMatterKeys are the keys that mark a leading block as front matter.
var frontMatterKeys = []string{"title", "theme", "tags"}

// SplitFrontMatter separates a leading "---" YAML block from the note body.
// Without a closed block, or when the block sets none of title, theme or
// tags, the whole input is the body: a note may open with a thematic break.
// A block that does not parse returns ErrFrontMatter along with the
// unmodified input.
func SplitFrontMatter(markdown string) (FrontMatter, string, error) {
	var fm FrontMatter

	text := normalizeLineEndings(markdown)
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return fm, markdown, nil
	}

	rest := text[len(frontMatterDelim)+1:]
	var block, body string
	switch {
	case strings.HasPrefix(rest, frontMatterDelim+"\n"):
		body = rest[len(frontMatterDelim)+1:]
	case rest == frontMatterDelim:
	default:
		end := strings.Index(rest, "\n"+frontMatterDelim+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontMatterDelim) {
				return fm, markdown, nil
			}
			end = len(rest) - len(frontMatterDelim) - 1
			block = rest[:end]
		} else {
			block = rest[:end]
			body = rest[end+len(frontMatterDelim)+2:]
		}
	}

	if strings.TrimSpace(block) == "" {
		return fm, markdown, nil
	}

	var raw any
	if err := yamlutil.Unmarshal([]byte(block), &raw); err != nil {
		return FrontMatter{}, markdown, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	if !hasFrontMatterKey(raw) {
		return fm, markdown, nil
	}
	if err := yamlutil.Unmarshal([]byte(block), &fm); err != nil {
		return FrontMatter{}, markdown, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	return fm, body, nil
}

// hasFrontMatterKey reports whether v is a mapping with a known key.
func hasFrontMatterKey(v any) bool {
	keys, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return slices.ContainsFunc(frontMatterKeys, func(k string) bool {
		_, found := keys[k]
		return found
	})
}
