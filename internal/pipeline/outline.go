package pipeline

import (
	"regexp"
	"strings"
)

// Heading is one entry of a note outline.
type Heading struct {
	Level int    // 1 to 6
	Text  string // heading text without the hash markers
	Line  int    // 1-based source line
}

var (
	atxHeadingPattern = regexp.MustCompile(`^(#{1,6}) (.*)$`)

	// Opening or closing code fence (``` or ~~~)
	fencedCodeBlock = regexp.MustCompile("^(```|~~~)")
)

// Outline lists the headings of a note in source order. Headings inside
// code fences are ignored.
func Outline(markdown string) []Heading {
	var headings []Heading
	var fence string

	for i, line := range strings.Split(normalizeLineEndings(markdown), "\n") {
		if m := fencedCodeBlock.FindStringSubmatch(line); m != nil {
			switch fence {
			case "":
				fence = m[1]
			case m[1]:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		m := atxHeadingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		headings = append(headings, Heading{Level: len(m[1]), Text: text, Line: i + 1})
	}
	return headings
}
