package notemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/alnah/go-notemd/internal/pipeline"
	"github.com/alnah/go-notemd/internal/render"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.CSSInjector      = (*pipeline.CSSInjection)(nil)
	_ pipeline.DiagramRenderer  = (*boundRenderer)(nil)
	_ pipeline.MarkupSetter     = (*boundRenderer)(nil)
	_ pipeline.Scheduler        = (*render.Deferred)(nil)
	_ diagramTarget             = (*render.KrokiRenderer)(nil)
	_ diagramTarget             = (*render.Page)(nil)
	_ pageOpener                = (*rodOpener)(nil)
	_ browserPage               = (*render.Page)(nil)
)

// noteSelector addresses the converted body inside a wrapped page.
const noteSelector = "main.note"

// Converter orchestrates a note conversion: front matter, the engine,
// link rewriting, diagram rendering and page assembly.
// Create with NewConverter, use Convert, and Close when done.
type Converter struct {
	cfg         converterConfig
	themes      ThemeLoader
	logger      *slog.Logger
	sanitizer   *pipeline.Sanitizer
	cssInjector pipeline.CSSInjector
	browser     pageOpener // nil unless diagram mode is browser
}

// NewConverter creates a Converter. Defaults: notes engine, client diagram
// mode, light theme, 30s timeout.
// Returns an error for an unknown engine or diagram mode, or an unusable
// asset path.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			engine:      EngineNotes,
			diagramMode: DiagramsClient,
			theme:       DefaultTheme,
			mermaidURL:  pipeline.DefaultMermaidURL,
			concurrency: defaultDiagramConcurrency,
		},
		logger:      slog.New(slog.DiscardHandler),
		cssInjector: &pipeline.CSSInjection{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cfg.engine = strings.ToLower(c.cfg.engine)
	c.cfg.diagramMode = strings.ToLower(c.cfg.diagramMode)
	if !slices.Contains([]string{EngineNotes, EngineGoldmark}, c.cfg.engine) {
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidEngine, c.cfg.engine, EngineNotes, EngineGoldmark)
	}
	if !slices.Contains([]string{DiagramsClient, DiagramsKroki, DiagramsBrowser, DiagramsNone}, c.cfg.diagramMode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDiagramMode, c.cfg.diagramMode)
	}

	// Handle WithAssetPath unless a loader was injected
	if c.themes == nil {
		loader, err := NewThemeLoader(c.cfg.assetPath)
		if err != nil {
			return nil, err
		}
		c.themes = loader
	}

	if c.cfg.sanitize {
		c.sanitizer = pipeline.NewSanitizer()
	}

	// Create browser if not injected (e.g., by tests). It launches on first use.
	if c.cfg.diagramMode == DiagramsBrowser && c.browser == nil {
		c.browser = &rodOpener{browser: render.NewBrowser(c.cfg.timeout)}
	}

	return c, nil
}

// Convert runs the full pipeline and returns the converted note.
// The context is used for cancellation and timeout.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	meta, body, err := pipeline.SplitFrontMatter(input.Markdown)
	if err != nil {
		c.logger.Warn("front matter ignored", "error", err)
	}

	theme := firstNonEmpty(input.Theme, meta.Theme, c.cfg.theme)
	themeCSS, err := c.themes.LoadTheme(theme)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTheme, theme, err)
	}

	bound := &boundRenderer{}
	deferred := render.NewDeferred(c.cfg.concurrency)

	res, err := c.fragmentRenderer(bound, deferred).RenderFragment(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}

	fragment := res.HTML
	if c.sanitizer != nil {
		fragment = c.sanitizer.Sanitize(fragment)
	}

	// Rewrite relative paths after sanitizing, which drops file:// URLs
	fragment, err = pipeline.RewriteLinks(fragment, pipeline.LinkRewrite{
		SourceDir: input.SourceDir,
		NoteExt:   input.NoteExt,
	})
	if err != nil {
		return nil, fmt.Errorf("rewriting links: %w", err)
	}

	outline := pipeline.Outline(body)
	out := &ConvertResult{
		Title:    firstNonEmpty(input.Title, meta.Title, firstHeading(outline)),
		Diagrams: toDiagrams(res.Diagrams),
		Outline:  toHeadings(outline),
		Meta:     toFrontMatter(meta),
	}
	spec := pageSpec{
		title: out.Title,
		theme: theme,
		css:   c.buildCSS(themeCSS, theme, input.CSS),
	}

	switch c.cfg.diagramMode {
	case DiagramsKroki:
		fragment, err = c.renderKroki(ctx, fragment, bound, deferred)
		if err != nil {
			return nil, err
		}
	case DiagramsBrowser:
		if err := c.renderBrowser(ctx, fragment, spec, input, bound, deferred, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	if input.Fragment {
		out.HTML = []byte(fragment)
		return out, nil
	}

	document, err := c.assemble(ctx, fragment, spec, c.cfg.diagramMode == DiagramsClient)
	if err != nil {
		return nil, err
	}
	out.HTML = []byte(document)
	return out, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}

// validateInput checks that required fields are present and consistent.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their settings validated earlier by Config.Validate().
func (c *Converter) validateInput(input Input) error {
	if strings.TrimSpace(input.Markdown) == "" {
		return ErrEmptyMarkdown
	}
	if input.PDF && c.cfg.diagramMode != DiagramsBrowser {
		return ErrPDFRequiresBrowser
	}
	if input.NoteExt != "" && !strings.HasPrefix(input.NoteExt, ".") {
		return fmt.Errorf("%w: %q must start with a dot", ErrInvalidNoteExt, input.NoteExt)
	}
	return nil
}

// fragmentRenderer builds the engine for one conversion. Modes that render
// on the server bind their target to r after the fragment exists.
func (c *Converter) fragmentRenderer(r *boundRenderer, s *render.Deferred) pipeline.FragmentRenderer {
	opts := []pipeline.EngineOption{
		pipeline.WithLogger(c.logger),
		pipeline.WithIDGenerator(c.cfg.newID),
		pipeline.WithDiagramKinds(c.cfg.diagramKinds...),
	}
	if c.cfg.diagramMode == DiagramsKroki || c.cfg.diagramMode == DiagramsBrowser {
		opts = append(opts, pipeline.WithDiagramRenderer(r), pipeline.WithScheduler(s))
	}

	if c.cfg.engine == EngineGoldmark {
		return pipeline.NewGoldmarkConverter(opts...)
	}
	return pipeline.NewEngine(opts...)
}

// buildCSS orders theme, code highlighting, then user CSS so the user wins.
func (c *Converter) buildCSS(themeCSS, theme, userCSS string) string {
	parts := []string{themeCSS}
	if c.cfg.engine == EngineGoldmark {
		parts = append(parts, pipeline.HighlightCSS(theme))
	}
	if userCSS != "" {
		parts = append(parts, userCSS)
	}
	return strings.Join(parts, "\n")
}

// pageSpec carries the page-level settings of one conversion.
type pageSpec struct {
	title string
	theme string
	css   string
}

// assemble wraps a fragment into a page and injects its stylesheet.
// The diagram script is embedded in client and browser modes.
func (c *Converter) assemble(ctx context.Context, fragment string, spec pageSpec, autoRun bool) (string, error) {
	data := pipeline.DocumentData{
		Title:   spec.title,
		Theme:   spec.theme,
		Body:    fragment,
		AutoRun: autoRun,
	}
	if c.cfg.diagramMode == DiagramsClient || c.cfg.diagramMode == DiagramsBrowser {
		data.MermaidURL = c.cfg.mermaidURL
	}

	document, err := pipeline.WrapDocument(data)
	if err != nil {
		return "", err
	}
	document = c.cssInjector.InjectCSS(ctx, document, spec.css)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return document, nil
}

// renderKroki renders the scheduled diagrams into an in-memory document.
func (c *Converter) renderKroki(ctx context.Context, fragment string, bound *boundRenderer, deferred *render.Deferred) (string, error) {
	if deferred.Len() == 0 {
		return fragment, nil
	}

	doc, err := render.NewDocument(fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	bound.bind(render.NewKrokiRenderer(c.cfg.krokiURL, c.cfg.httpClient, doc).WithContext(ctx))

	if err := deferred.Flush(ctx); err != nil {
		return "", err
	}
	return doc.InnerHTML()
}

// renderBrowser loads the page in headless Chrome, renders the scheduled
// diagrams in it and exports the live DOM.
func (c *Converter) renderBrowser(ctx context.Context, fragment string, spec pageSpec, input Input, bound *boundRenderer, deferred *render.Deferred, out *ConvertResult) error {
	document, err := c.assemble(ctx, fragment, spec, false)
	if err != nil {
		return err
	}

	page, err := c.browser.Open(ctx, document)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			c.logger.Debug("page close failed", "error", err)
		}
	}()

	bound.bind(page)
	if err := deferred.Flush(ctx); err != nil {
		return err
	}

	var html string
	if input.Fragment {
		html, err = page.InnerHTML(noteSelector)
	} else {
		html, err = page.HTML()
	}
	if err != nil {
		return fmt.Errorf("exporting page: %w", err)
	}
	out.HTML = []byte(html)

	if input.PDF {
		pdf, err := page.PDF()
		if err != nil {
			return err
		}
		out.PDF = pdf
	}
	return nil
}

// errTargetUnbound is returned by a render call that runs before its target
// was bound.
var errTargetUnbound = errors.New("render target not bound")

// diagramTarget is where diagrams land: an in-memory document or a page.
type diagramTarget interface {
	RenderInto(id, source string) error
	SetInnerHTML(id, markup string) error
}

// boundRenderer lets the engine schedule renders before the target that
// holds its markup exists. Tasks run on Flush, after bind.
type boundRenderer struct {
	mu     sync.RWMutex
	target diagramTarget
}

func (b *boundRenderer) bind(t diagramTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = t
}

func (b *boundRenderer) current() (diagramTarget, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.target == nil {
		return nil, errTargetUnbound
	}
	return b.target, nil
}

func (b *boundRenderer) RenderInto(id, source string) error {
	t, err := b.current()
	if err != nil {
		return err
	}
	return t.RenderInto(id, source)
}

func (b *boundRenderer) SetInnerHTML(id, markup string) error {
	t, err := b.current()
	if err != nil {
		return err
	}
	return t.SetInnerHTML(id, markup)
}

// browserPage is the browser page surface Convert uses.
type browserPage interface {
	diagramTarget
	HTML() (string, error)
	InnerHTML(selector string) (string, error)
	PDF() ([]byte, error)
	Close() error
}

// pageOpener opens pages; implemented by the rod browser and test fakes.
type pageOpener interface {
	Open(ctx context.Context, document string) (browserPage, error)
	Close() error
}

// rodOpener adapts render.Browser to pageOpener.
type rodOpener struct {
	browser *render.Browser
}

func (o *rodOpener) Open(ctx context.Context, document string) (browserPage, error) {
	p, err := o.browser.Open(ctx, document)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (o *rodOpener) Close() error {
	return o.browser.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstHeading(outline []pipeline.Heading) string {
	for _, h := range outline {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
