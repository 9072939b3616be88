package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrDocumentRender indicates the page template failed to execute.
var ErrDocumentRender = errors.New("document template rendering failed")

// Theme names understood by the document template.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultMermaidURL is the client-side diagram script loaded into pages.
const DefaultMermaidURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// MermaidTheme maps a page theme to the diagram library's theme name.
func MermaidTheme(theme string) string {
	if theme == ThemeDark {
		return "dark"
	}
	return "neutral"
}

// DocumentData holds everything needed to wrap a fragment into a page.
type DocumentData struct {
	Title string
	Theme string // ThemeLight or ThemeDark
	Body  string // converted fragment, trusted

	// MermaidURL loads the diagram script when set. With AutoRun the page
	// renders its own placeholders on load; without it a browser target
	// drives rendering one placeholder at a time.
	MermaidURL string
	AutoRun    bool
}

type documentView struct {
	Title        string
	Theme        string
	Body         template.HTML
	MermaidURL   string
	MermaidTheme string
	AutoRun      bool
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .MermaidURL}}
<script src="{{.MermaidURL}}"></script>
<script>
mermaid.initialize({startOnLoad: false, theme: {{.MermaidTheme}}, securityLevel: "loose", fontFamily: "JetBrains Mono"});
{{- if .AutoRun}}
document.addEventListener("DOMContentLoaded", function () { mermaid.run({querySelector: ".mermaid"}); });
{{- end}}
</script>
{{- end}}
</head>
<body class="theme-{{.Theme}}">
<main class="note">
{{.Body}}
</main>
</body>
</html>
`))

// WrapDocument renders a complete HTML5 page around a fragment.
func WrapDocument(data DocumentData) (string, error) {
	theme := data.Theme
	if theme != ThemeDark {
		theme = ThemeLight
	}
	title := data.Title
	if title == "" {
		title = "Note"
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, documentView{
		Title:        title,
		Theme:        theme,
		Body:         template.HTML(data.Body), // #nosec G203 -- fragment produced by the converter, sanitized on request
		MermaidURL:   data.MermaidURL,
		MermaidTheme: MermaidTheme(theme),
		AutoRun:      data.AutoRun,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}
	return buf.String(), nil
}

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	// Check for cancellation
	if ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	// Try inserting before </head>
	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	// Try inserting after <body>
	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	// Fallback: prepend
	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
