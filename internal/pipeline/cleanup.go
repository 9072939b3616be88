package pipeline

import (
	"regexp"
	"strings"
)

// Task list glyphs.
const (
	TaskOpenGlyph = "☐" // U+2610 BALLOT BOX
	TaskDoneGlyph = "☒" // U+2612 BALLOT BOX WITH X
)

var (
	// Adjacent lists of the same type, optionally separated by whitespace
	adjacentULPattern = regexp.MustCompile(`</ul>\s*<ul>`)
	adjacentOLPattern = regexp.MustCompile(`</ol>\s*<ol>`)

	// Level markers such as @2@, pasted from older exports of this format
	levelMarkerPattern = regexp.MustCompile(`@\d+@`)

	taskReplacer = strings.NewReplacer("[ ]", TaskOpenGlyph, "[x]", TaskDoneGlyph)
)

// Cleanup merges adjacent lists of the same type, strips stray @N@ level
// markers and substitutes task tokens with box glyphs. Merging and
// stripping repeat until nothing changes, so running Cleanup twice is the
// same as running it once.
func Cleanup(html string) string {
	for {
		merged := adjacentULPattern.ReplaceAllString(html, "")
		merged = adjacentOLPattern.ReplaceAllString(merged, "")
		merged = levelMarkerPattern.ReplaceAllString(merged, "")
		if merged == html {
			break
		}
		html = merged
	}
	return taskReplacer.Replace(html)
}
