package pipeline

import (
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// Chroma styles paired with the page themes.
const (
	highlightStyleLight = "github"
	highlightStyleDark  = "monokai"
)

// HighlightCSS returns the stylesheet for the chroma classes emitted by the
// goldmark backend, matched to the page theme.
func HighlightCSS(theme string) string {
	name := highlightStyleLight
	if theme == ThemeDark {
		name = highlightStyleDark
	}

	var b strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&b, styles.Get(name)); err != nil {
		return ""
	}
	return b.String()
}
