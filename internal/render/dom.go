package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an in-memory rendering target: a parsed fragment whose
// elements can be looked up by id and patched. It is safe for concurrent
// use, so deferred diagram renders may patch it in parallel.
type Document struct {
	mu   sync.Mutex
	body *html.Node
}

// NewDocument parses fragment into a Document.
func NewDocument(fragment string) (*Document, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return &Document{body: body}, nil
}

// Has reports whether an element with the id exists.
func (d *Document) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(id) != nil
}

// Attr returns an attribute of the element with the id.
func (d *Document) Attr(id, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.lookup(id)
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent returns the concatenated text of the element with the id.
func (d *Document) TextContent(id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.lookup(id)
	if n == nil {
		return "", fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	var b strings.Builder
	collectText(n, &b)
	return b.String(), nil
}

// SetInnerHTML replaces the children of the element with the id.
func (d *Document) SetInnerHTML(id, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.lookup(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	children, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parsing markup for #%s: %w", id, err)
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return nil
}

// InnerHTML renders the document back to a fragment.
func (d *Document) InnerHTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// lookup finds the first element with the id. Callers hold d.mu.
func (d *Document) lookup(id string) *html.Node {
	if sel, err := cascadia.Compile("#" + id); err == nil {
		return sel.MatchFirst(d.body)
	}
	// Ids that are not valid CSS identifiers fall back to a walk.
	return findByID(d.body, id)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
