package render

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

const placeholderFragment = `<h1>Flow</h1>
<div class="mermaid" id="mermaid-1">graph TD; A--&gt;B</div>
<p>between</p>
<div class="mermaid" id="mermaid-2">sequenceDiagram</div>`

func TestDocument_Lookup(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(placeholderFragment)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}

	if !doc.Has("mermaid-1") {
		t.Error("Has(mermaid-1) = false, want true")
	}
	if doc.Has("mermaid-9") {
		t.Error("Has(mermaid-9) = true, want false")
	}

	class, ok := doc.Attr("mermaid-2", "class")
	if !ok || class != "mermaid" {
		t.Errorf("Attr(class) = (%q, %v), want (mermaid, true)", class, ok)
	}

	text, err := doc.TextContent("mermaid-1")
	if err != nil {
		t.Fatalf("TextContent() error = %v", err)
	}
	if text != "graph TD; A-->B" {
		t.Errorf("TextContent() = %q, want unescaped source", text)
	}
}

func TestDocument_SetInnerHTML(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(placeholderFragment)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}

	svg := `<svg><text>A</text></svg>`
	if err := doc.SetInnerHTML("mermaid-1", svg); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}

	got, err := doc.InnerHTML()
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	if !strings.Contains(got, `<div class="mermaid" id="mermaid-1"><svg><text>A</text></svg></div>`) {
		t.Errorf("InnerHTML() = %q", got)
	}
	if strings.Contains(got, "A--&gt;B") {
		t.Error("old content not replaced")
	}
	if !strings.Contains(got, "sequenceDiagram") {
		t.Error("other placeholder changed")
	}
}

func TestDocument_SetInnerHTML_MissingElement(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument("<p>x</p>")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}

	if err := doc.SetInnerHTML("nope", "<b>x</b>"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("SetInnerHTML() error = %v, want ErrElementNotFound", err)
	}
	if _, err := doc.TextContent("nope"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("TextContent() error = %v, want ErrElementNotFound", err)
	}
}

func TestDocument_DigitLeadingID(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(`<div id="1st">x</div>`)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	if !doc.Has("1st") {
		t.Error("Has(1st) = false, want true")
	}
}

func TestDocument_ConcurrentPatches(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(placeholderFragment)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}

	var wg sync.WaitGroup
	for _, id := range []string{"mermaid-1", "mermaid-2"} {
		wg.Go(func() {
			if err := doc.SetInnerHTML(id, "<svg></svg>"); err != nil {
				t.Errorf("SetInnerHTML(%s) error = %v", id, err)
			}
		})
	}
	wg.Wait()

	got, err := doc.InnerHTML()
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	if n := strings.Count(got, "<svg></svg>"); n != 2 {
		t.Errorf("found %d svgs, want 2: %q", n, got)
	}
}
