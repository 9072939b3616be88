package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultKrokiURL is the public Kroki endpoint.
const DefaultKrokiURL = "https://kroki.io"

const (
	defaultKrokiTimeout = 30 * time.Second
	maxSVGBytes         = 10 << 20 // 10 MiB
	maxErrorBodyBytes   = 512
)

// KrokiRenderer renders diagrams by posting their source to a Kroki
// server and writing the returned SVG into a Document. The diagram type
// is read from the placeholder's class.
type KrokiRenderer struct {
	endpoint string
	client   *http.Client
	doc      *Document
	ctx      context.Context
}

// NewKrokiRenderer creates a KrokiRenderer targeting doc. An empty
// endpoint uses DefaultKrokiURL; a nil client gets a 30s timeout.
func NewKrokiRenderer(endpoint string, client *http.Client, doc *Document) *KrokiRenderer {
	if endpoint == "" {
		endpoint = DefaultKrokiURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultKrokiTimeout}
	}
	return &KrokiRenderer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		doc:      doc,
	}
}

// WithContext returns a copy of k whose requests are bound to ctx.
// Render calls made after ctx is done fail without reaching the server.
func (k *KrokiRenderer) WithContext(ctx context.Context) *KrokiRenderer {
	k2 := *k
	k2.ctx = ctx
	return &k2
}

// RenderInto fetches the SVG for source and places it inside the element
// with the id.
func (k *KrokiRenderer) RenderInto(id, source string) error {
	kind, ok := k.doc.Attr(id, "class")
	if !ok || kind == "" {
		return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}

	ctx := k.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	svg, err := k.fetch(ctx, strings.Fields(kind)[0], source)
	if err != nil {
		return err
	}
	return k.doc.SetInnerHTML(id, svg)
}

// SetInnerHTML writes markup into the target document.
func (k *KrokiRenderer) SetInnerHTML(id, markup string) error {
	return k.doc.SetInnerHTML(id, markup)
}

func (k *KrokiRenderer) fetch(ctx context.Context, kind, source string) (string, error) {
	endpoint := k.endpoint + "/" + url.PathEscape(kind) + "/svg"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("%w: %s: %s", ErrDiagramRender, resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSVGBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrDiagramRender, err)
	}
	if len(body) > maxSVGBytes {
		return "", fmt.Errorf("%w: svg exceeds %d bytes", ErrDiagramRender, maxSVGBytes)
	}
	return string(body), nil
}
