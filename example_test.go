package notemd_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-notemd"
)

// Example converts a note to a standalone page. Diagrams stay as
// placeholders for the mermaid script in the page.
func Example() {
	conv, err := notemd.NewConverter()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer conv.Close()

	result, err := conv.Convert(context.Background(), notemd.Input{
		Markdown: "# Standup\n\n- shipped\n  - parser\n\n```mermaid\ngraph LR; A-->B\n```\n",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(result.Title)
	fmt.Println(len(result.Diagrams), result.Diagrams[0].Kind)
	fmt.Println(strings.Contains(string(result.HTML), `<main class="note"`))
	// Output:
	// Standup
	// 1 mermaid
	// true
}

// ExampleRender renders a fragment without a converter.
func ExampleRender() {
	html := notemd.Render("## Notes")
	fmt.Println(strings.TrimSpace(html))
	// Output: <h2>Notes</h2>
}

// ExampleOutline lists the headings of a note.
func ExampleOutline() {
	for _, h := range notemd.Outline("# Plan\n\n## Risks\n") {
		fmt.Printf("%d %s (line %d)\n", h.Level, h.Text, h.Line)
	}
	// Output:
	// 1 Plan (line 1)
	// 2 Risks (line 3)
}
