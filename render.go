package notemd

import "github.com/alnah/go-notemd/internal/pipeline"

// defaultEngine has no render target: diagrams keep their escaped source.
var defaultEngine = pipeline.NewEngine()

// Render converts a note to an HTML fragment with the notes engine.
// It never fails; malformed input yields best-effort markup.
func Render(markdown string) string {
	return defaultEngine.Convert(markdown)
}

// Outline lists the ATX headings of a note, skipping fenced code.
func Outline(markdown string) []Heading {
	return toHeadings(pipeline.Outline(markdown))
}
