// Package notemd converts markdown notes to HTML, rendering diagram blocks
// in a deferred pass.
//
// # Quick Start
//
// For a fragment with no page around it and no diagram rendering:
//
//	html := notemd.Render("# Hello\n\n- one\n  - nested")
//
// For a complete page, create a converter and close it when done:
//
//	conv, err := notemd.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, notemd.Input{
//	    Markdown: "# Hello\n\n```mermaid\ngraph TD; A-->B\n```",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("note.html", result.HTML, 0644)
//
// # Conversion Pipeline
//
// The notes engine runs a fixed sequence of passes:
//
//  1. Diagram extraction: fenced diagram blocks become placeholder elements
//  2. Line structure: nested lists and pipe tables
//  3. Inline rules: headings, emphasis, code, links, images, quotes, paragraphs
//  4. Cleanup: adjacent list merge, task checkbox glyphs
//
// Each diagram placeholder gets one render call, scheduled after the markup
// exists. Where the call lands depends on the diagram mode:
//
//   - DiagramsClient: the page loads mermaid and renders in the reader's browser
//   - DiagramsKroki: SVG fetched from a Kroki server, inlined in the output
//   - DiagramsBrowser: rendered in headless Chrome, which can also print a PDF
//   - DiagramsNone: placeholders keep the escaped source
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := notemd.NewConverter(
//	    notemd.WithEngine(notemd.EngineGoldmark),
//	    notemd.WithDiagramMode(notemd.DiagramsKroki),
//	    notemd.WithKrokiURL("http://localhost:8000"),
//	    notemd.WithTheme(notemd.ThemeDark),
//	)
//
// Per-conversion settings are passed via Input:
//
//	result, err := conv.Convert(ctx, notemd.Input{
//	    Markdown:  content,
//	    SourceDir: "/path/to/notes", // for relative image paths
//	    NoteExt:   ".html",          // links to other notes
//	    CSS:       "main.note { max-width: 60rem; }",
//	})
//
// A YAML front matter block may set the title and theme of a note.
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool:
//
//	pool := notemd.NewConverterPool(4, notemd.WithDiagramMode(notemd.DiagramsBrowser))
//	defer pool.Close()
//
//	conv := pool.Acquire()
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Custom Themes
//
// Themes are stylesheets named {name}.css. Override or add them with a
// directory holding a themes/ folder:
//
//	conv, err := notemd.NewConverter(notemd.WithAssetPath("/path/to/assets"))
//
// # Browser Requirements
//
// Browser mode requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package notemd
