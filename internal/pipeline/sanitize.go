package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Element ids as emitted for diagram placeholders and heading anchors
	elementIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

	blankTargetPattern = regexp.MustCompile(`^_blank$`)
)

// Sanitizer strips scripts, event handlers and unsafe URLs from converted
// fragments. Diagram placeholders, link targets, highlights and table
// markup survive.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer built on the user-generated-content
// policy.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div", "span", "code", "pre")
	p.AllowAttrs("id").Matching(elementIDPattern).OnElements("div", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("target").Matching(blankTargetPattern).OnElements("a")
	return &Sanitizer{policy: p}
}

// Sanitize returns the safe subset of fragment.
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}
