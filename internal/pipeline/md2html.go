package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// GoldmarkConverter converts notes with goldmark (CommonMark plus GFM).
// Diagram fences become the same placeholders the notes engine emits.
type GoldmarkConverter struct {
	md  goldmark.Markdown
	cfg *Engine
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions and
// syntax highlighting. It accepts the engine options; the id generator,
// diagram kinds, renderer, scheduler and logger apply.
func NewGoldmarkConverter(opts ...EngineOption) *GoldmarkConverter {
	cfg := NewEngine(opts...)
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // CSS classes for smaller HTML and external stylesheet control
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&diagramTransformer{cfg: cfg}, 100),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			renderer.WithNodeRenderers(
				util.Prioritized(&diagramNodeRenderer{}, 100),
			),
		),
	)
	return &GoldmarkConverter{md: md, cfg: cfg}
}

// RenderFragment converts markdown to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) RenderFragment(ctx context.Context, markdown string) (Result, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	type result struct {
		res Result
		err error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		pctx := parser.NewContext()
		source := convertHighlights(normalizeLineEndings(markdown))
		if err := c.md.Convert([]byte(source), &buf, parser.WithContext(pctx)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		diagrams, _ := pctx.Get(diagramsKey).([]Diagram)
		done <- result{res: Result{HTML: ConvertMarkPlaceholders(buf.String()), Diagrams: diagrams}}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-done:
		if r.err == nil {
			ScheduleDiagrams(r.res.Diagrams, c.cfg.renderer, c.cfg.scheduler, c.cfg.logger)
		}
		return r.res, r.err
	}
}

// diagramsKey collects the diagrams found during one conversion.
var diagramsKey = parser.NewContextKey()

// KindDiagramBlock is the node kind of a diagram placeholder.
var KindDiagramBlock = ast.NewNodeKind("DiagramBlock")

// diagramBlock holds the finished placeholder markup.
type diagramBlock struct {
	ast.BaseBlock
	markup string
}

func (n *diagramBlock) Kind() ast.NodeKind { return KindDiagramBlock }

func (n *diagramBlock) IsRaw() bool { return true }

func (n *diagramBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Markup": n.markup}, nil)
}

// highlightRestorer undoes ==text== placeholders inside diagram sources.
var highlightRestorer = strings.NewReplacer(MarkStartPlaceholder, "==", MarkEndPlaceholder, "==")

// diagramTransformer swaps diagram fences for placeholder nodes.
type diagramTransformer struct {
	cfg *Engine
}

func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fence, ok := n.(*ast.FencedCodeBlock); ok && t.isDiagram(fence, source) {
			fences = append(fences, fence)
		}
		return ast.WalkContinue, nil
	})

	var diagrams []Diagram
	for _, fence := range fences {
		kind := string(fence.Language(source))

		var body strings.Builder
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(source))
		}

		block := &diagramBlock{}
		id, err := t.cfg.newID()
		if err != nil {
			t.cfg.logger.Warn("diagram placeholder skipped", "kind", kind, "error", err)
			block.markup = DiagramErrorMarker(fmt.Errorf("%w: %v", ErrDiagramID, err).Error())
		} else {
			d := Diagram{
				ID:     kind + "-" + id,
				Kind:   kind,
				Source: strings.TrimSpace(highlightRestorer.Replace(body.String())),
			}
			diagrams = append(diagrams, d)
			block.markup = placeholderOpen(d) + html.EscapeString(d.Source) + "</div>"
		}

		parent := fence.Parent()
		parent.ReplaceChild(parent, fence, block)
	}
	pc.Set(diagramsKey, diagrams)
}

func (t *diagramTransformer) isDiagram(fence *ast.FencedCodeBlock, source []byte) bool {
	lang := string(fence.Language(source))
	for _, k := range t.cfg.kinds {
		if lang == k {
			return true
		}
	}
	return false
}

// diagramNodeRenderer writes placeholder markup verbatim.
type diagramNodeRenderer struct{}

func (r *diagramNodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagramBlock, r.render)
}

func (r *diagramNodeRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(n.(*diagramBlock).markup + "\n")
	}
	return ast.WalkSkipChildren, nil
}
