package notemd

import "github.com/alnah/go-notemd/internal/pipeline"

// Conversion engines.
const (
	// EngineNotes is the built-in note engine: diagrams, lists, tables,
	// then an ordered chain of inline rules.
	EngineNotes = "notes"

	// EngineGoldmark renders CommonMark plus GFM with syntax highlighting.
	EngineGoldmark = "goldmark"
)

// Diagram modes decide where placeholders are turned into pictures.
const (
	// DiagramsClient leaves placeholders for the mermaid script embedded
	// in the output page.
	DiagramsClient = "client"

	// DiagramsKroki renders each diagram to SVG through a Kroki server.
	DiagramsKroki = "kroki"

	// DiagramsBrowser renders diagrams inside headless Chrome. Required
	// for PDF output.
	DiagramsBrowser = "browser"

	// DiagramsNone keeps the escaped diagram source in the placeholders.
	DiagramsNone = "none"
)

// Built-in themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Input holds one note and its per-conversion settings.
type Input struct {
	Markdown string // note source, required

	// Title overrides the front matter title and the first heading.
	Title string

	// Theme overrides the front matter theme and the converter default.
	Theme string

	// CSS is appended after the theme stylesheet.
	CSS string

	// SourceDir resolves relative image paths to file:// URLs.
	SourceDir string

	// NoteExt rewrites relative links to .md notes to this extension.
	NoteExt string

	// Fragment returns the converted body without the page around it.
	Fragment bool

	// PDF prints the rendered page. Browser diagram mode only.
	PDF bool
}

// ConvertResult holds the output of a conversion.
type ConvertResult struct {
	HTML     []byte
	PDF      []byte // nil unless Input.PDF was set
	Title    string
	Diagrams []Diagram
	Outline  []Heading
	Meta     FrontMatter
}

// Diagram is a diagram block lifted out of a note.
type Diagram struct {
	ID     string // placeholder element id
	Kind   string // fence language, e.g. "mermaid"
	Source string
}

// Heading is an entry of a note outline.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based
}

// FrontMatter is the YAML block at the top of a note.
type FrontMatter struct {
	Title string
	Theme string
	Tags  []string
}

func toDiagrams(in []pipeline.Diagram) []Diagram {
	if len(in) == 0 {
		return nil
	}
	out := make([]Diagram, len(in))
	for i, d := range in {
		out[i] = Diagram(d)
	}
	return out
}

func toHeadings(in []pipeline.Heading) []Heading {
	if len(in) == 0 {
		return nil
	}
	out := make([]Heading, len(in))
	for i, h := range in {
		out[i] = Heading(h)
	}
	return out
}

func toFrontMatter(fm pipeline.FrontMatter) FrontMatter {
	return FrontMatter{Title: fm.Title, Theme: fm.Theme, Tags: fm.Tags}
}
