package pipeline

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// DefaultDiagramKind is the fenced block language extracted when no kinds
// are configured.
const DefaultDiagramKind = "mermaid"

// ErrDiagramID indicates a placeholder id could not be generated.
var ErrDiagramID = errors.New("diagram id generation failed")

// Diagram is a fenced diagram block lifted out of the note.
type Diagram struct {
	ID     string // placeholder element id, unique per conversion
	Kind   string // fence language, also the placeholder class
	Source string // trimmed block content
}

// DiagramRenderer renders a diagram's source into the element with the
// given id on some rendering target.
type DiagramRenderer interface {
	RenderInto(id, source string) error
}

// MarkupSetter is implemented by renderers that can replace an element's
// content on their target. ScheduleDiagrams uses it to put an error
// marker in place of a diagram that failed to render.
type MarkupSetter interface {
	SetInnerHTML(id, markup string) error
}

// Scheduler runs a task after the converted markup has been placed on
// the rendering target.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func())

// Schedule calls f(task).
func (f SchedulerFunc) Schedule(task func()) { f(task) }

// diagramFencePattern builds the extraction pattern for the given kinds.
// Blocks open with three backticks and the kind, close at the first
// following triple backtick, and may span lines.
func diagramFencePattern(kinds []string) *regexp.Regexp {
	quoted := make([]string, len(kinds))
	for i, k := range kinds {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile("(?s)```[ \\t]*(" + strings.Join(quoted, "|") + ")[ \\t]*\\n(.*?)```")
}

// Diagram tokens wrap the diagram index in Private Use Area characters,
// like the highlight placeholders. Kinds and ids chosen by the caller may
// hold rule syntax such as "_", so they stay out of the text until
// fillPlaceholders.
const (
	diagramTokenStart = "\uE002"
	diagramTokenEnd   = "\uE003"
)

// placeholderOpen returns the opening tag of a diagram placeholder.
func placeholderOpen(d Diagram) string {
	return fmt.Sprintf(`<div class="%s" id="%s">`, html.EscapeString(d.Kind), html.EscapeString(d.ID))
}

// placeholderShell is the single-line block element left in the text
// while the other passes run.
func placeholderShell(index int) string {
	return "<div>" + diagramTokenStart + strconv.Itoa(index) + diagramTokenEnd + "</div>"
}

// DiagramErrorMarker renders the visible marker shown in place of a
// diagram that could not be prepared or rendered.
func DiagramErrorMarker(reason string) string {
	return `<div class="diagram-error">Diagram error: ` + html.EscapeString(reason) + `</div>`
}

// extractDiagrams replaces every diagram block with an empty placeholder
// element and returns the blocks in source order.
func (e *Engine) extractDiagrams(text string) (string, []Diagram) {
	var diagrams []Diagram
	text = e.fence.ReplaceAllStringFunc(text, func(block string) string {
		m := e.fence.FindStringSubmatch(block)
		kind := m[1]

		id, err := e.newID()
		if err != nil {
			e.logger.Warn("diagram placeholder skipped", "kind", kind, "error", err)
			return DiagramErrorMarker(fmt.Errorf("%w: %v", ErrDiagramID, err).Error())
		}

		d := Diagram{ID: kind + "-" + id, Kind: kind, Source: strings.TrimSpace(m[2])}
		diagrams = append(diagrams, d)
		return placeholderShell(len(diagrams) - 1)
	})
	return text, diagrams
}

// fillPlaceholders writes the escaped source into each placeholder once
// the other passes are done, so rule patterns never see diagram text.
func fillPlaceholders(text string, diagrams []Diagram) string {
	for i, d := range diagrams {
		filled := placeholderOpen(d) + html.EscapeString(d.Source) + "</div>"
		text = strings.Replace(text, placeholderShell(i), filled, 1)
	}
	return text
}

// ScheduleDiagrams queues one render task per diagram, in order. A failed
// render is replaced by an error marker when the renderer is a
// MarkupSetter; otherwise the placeholder keeps its escaped source.
// A nil renderer or scheduler schedules nothing.
func ScheduleDiagrams(diagrams []Diagram, renderer DiagramRenderer, scheduler Scheduler, logger *slog.Logger) {
	if renderer == nil || scheduler == nil {
		return
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, d := range diagrams {
		scheduler.Schedule(func() {
			if err := renderer.RenderInto(d.ID, d.Source); err != nil {
				logger.Warn("diagram render failed", "id", d.ID, "kind", d.Kind, "error", err)
				if setter, ok := renderer.(MarkupSetter); ok {
					if err := setter.SetInnerHTML(d.ID, DiagramErrorMarker(err.Error())); err != nil {
						logger.Warn("diagram error marker not written", "id", d.ID, "error", err)
					}
				}
				return
			}
			logger.Debug("diagram rendered", "id", d.ID, "kind", d.Kind)
		})
	}
}
