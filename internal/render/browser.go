package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-notemd/internal/fileutil"
	"github.com/alnah/go-notemd/internal/process"
)

// PDF page dimensions in inches (US Letter format).
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

// DefaultPageTimeout bounds page loads and script evaluation.
const DefaultPageTimeout = 30 * time.Second

// Browser owns a headless Chrome process. Rod downloads Chromium on first
// use if none is installed.
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewBrowser creates a Browser. The process starts on the first Open.
func NewBrowser(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &Browser{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
// Callers hold b.mu.
func (b *Browser) ensureBrowser() error {
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.browser = browser
	b.launcher = l
	return nil
}

// Open loads a complete HTML document into a new page and waits for it.
func (b *Browser) Open(ctx context.Context, document string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	err := b.ensureBrowser()
	browser := b.browser
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			_ = page.Close()
			cleanup()
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		_ = page.Close()
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	return &Page{page: page, timeout: timeout, cleanup: cleanup}, nil
}

// Close stops the browser and kills its process group.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil

	if b.launcher != nil {
		if pid := b.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// renderIntoJS renders one placeholder with the page's diagram library.
const renderIntoJS = `async (id, source) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("element not found: #" + id);
	if (typeof mermaid === "undefined") throw new Error("diagram library not loaded");
	const { svg } = await mermaid.render(id + "-svg", source);
	el.innerHTML = svg;
	el.dataset.rendered = "true";
}`

// setInnerHTMLJS replaces an element's content.
const setInnerHTMLJS = `(id, markup) => {
	const el = document.getElementById(id);
	if (!el) throw new Error("element not found: #" + id);
	el.innerHTML = markup;
}`

// innerHTMLJS reads the content of the first element matching a selector.
const innerHTMLJS = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) throw new Error("element not found: " + selector);
	return el.innerHTML;
}`

// Page is a loaded document in the browser. It is a rendering target for
// diagram placeholders and the source of the final HTML and PDF.
type Page struct {
	mu      sync.Mutex
	page    *rod.Page
	timeout time.Duration
	cleanup func()
}

// Has reports whether an element with the id exists on the page.
func (p *Page) Has(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	has, _, err := p.page.Has("#" + id)
	return has, err
}

// RenderInto renders a diagram into the element with the id. Calls are
// serialized because the diagram library keeps global state.
func (p *Page) RenderInto(id, source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.page.Timeout(p.timeout).Eval(renderIntoJS, id, source); err != nil {
		return fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	return nil
}

// SetInnerHTML replaces the content of the element with the id.
func (p *Page) SetInnerHTML(id, markup string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.page.Timeout(p.timeout).Eval(setInnerHTMLJS, id, markup); err != nil {
		return fmt.Errorf("%w: #%s: %v", ErrElementNotFound, id, err)
	}
	return nil
}

// HTML returns the current serialized document.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page.HTML()
}

// InnerHTML returns the content of the first element matching selector.
func (p *Page) InnerHTML(selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.page.Timeout(p.timeout).Eval(innerHTMLJS, selector)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	return res.Value.Str(), nil
}

// PDF prints the page on US Letter with 0.5 inch margins.
func (p *Page) PDF() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reader, err := p.page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// Close closes the page and removes its backing file.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.page.Close()
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return err
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
