package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Result is a converted fragment and the diagrams lifted out of it.
type Result struct {
	HTML     string
	Diagrams []Diagram
}

// FragmentRenderer turns a note into an HTML fragment. Diagram rendering
// is scheduled, never awaited.
type FragmentRenderer interface {
	RenderFragment(ctx context.Context, markdown string) (Result, error)
}

// Compile-time interface checks.
var (
	_ FragmentRenderer = (*Engine)(nil)
	_ FragmentRenderer = (*GoldmarkConverter)(nil)
)

// Engine converts notes to HTML with a fixed sequence of passes. It holds
// no mutable state, so one Engine may serve concurrent conversions.
type Engine struct {
	newID     func() (string, error)
	renderer  DiagramRenderer
	scheduler Scheduler
	logger    *slog.Logger
	kinds     []string
	fence     *regexp.Regexp
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithIDGenerator sets the placeholder id source. Ids must be unique
// within one conversion.
func WithIDGenerator(fn func() (string, error)) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithDiagramRenderer sets the collaborator invoked for each diagram.
func WithDiagramRenderer(r DiagramRenderer) EngineOption {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithScheduler sets how diagram render calls are deferred.
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDiagramKinds sets the fence languages treated as diagrams.
func WithDiagramKinds(kinds ...string) EngineOption {
	return func(e *Engine) {
		var clean []string
		for _, k := range kinds {
			if k = strings.TrimSpace(k); k != "" {
				clean = append(clean, k)
			}
		}
		if len(clean) > 0 {
			e.kinds = clean
		}
	}
}

// NewEngine creates an Engine. Without a renderer and scheduler, diagrams
// are extracted but never rendered.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		newID:  newUUID,
		logger: slog.New(slog.DiscardHandler),
		kinds:  []string{DefaultDiagramKind},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.fence = diagramFencePattern(e.kinds)
	return e
}

// Convert returns the HTML for a note.
func (e *Engine) Convert(markdown string) string {
	return e.Render(markdown).HTML
}

// Render runs every pass and schedules one render call per diagram.
// It never fails; adversarial input yields best-effort markup.
func (e *Engine) Render(markdown string) Result {
	text := normalizeLineEndings(markdown)
	text, diagrams := e.extractDiagrams(text)
	text = convertHighlights(text)

	text = JoinLines(StructureLines(strings.Split(text, "\n")))
	text = ApplyRules(text)
	text = Cleanup(text)
	text = ConvertMarkPlaceholders(text)
	text = fillPlaceholders(text, diagrams)

	e.logger.Debug("note converted", "bytes", len(text), "diagrams", len(diagrams))
	ScheduleDiagrams(diagrams, e.renderer, e.scheduler, e.logger)
	return Result{HTML: text, Diagrams: diagrams}
}

// RenderFragment implements FragmentRenderer.
func (e *Engine) RenderFragment(ctx context.Context, markdown string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return e.Render(markdown), nil
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
