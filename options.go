package notemd

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout      time.Duration
	engine       string
	diagramMode  string
	diagramKinds []string
	krokiURL     string
	mermaidURL   string
	theme        string
	assetPath    string
	sanitize     bool
	concurrency  int
	httpClient   *http.Client
	newID        func() (string, error)
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// defaultDiagramConcurrency bounds parallel diagram renders per conversion.
const defaultDiagramConcurrency = 4

// WithTimeout sets the conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("notemd: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithEngine selects the conversion engine: EngineNotes or EngineGoldmark.
func WithEngine(name string) Option {
	return func(c *Converter) {
		c.cfg.engine = name
	}
}

// WithDiagramMode selects where diagrams are rendered.
func WithDiagramMode(mode string) Option {
	return func(c *Converter) {
		c.cfg.diagramMode = mode
	}
}

// WithDiagramKinds sets the fence languages treated as diagrams.
// Defaults to mermaid. Kroki mode accepts any kind the server knows.
func WithDiagramKinds(kinds ...string) Option {
	return func(c *Converter) {
		c.cfg.diagramKinds = kinds
	}
}

// WithKrokiURL sets the Kroki server used in DiagramsKroki mode.
func WithKrokiURL(url string) Option {
	return func(c *Converter) {
		c.cfg.krokiURL = url
	}
}

// WithMermaidURL sets the script URL embedded in client and browser modes.
func WithMermaidURL(url string) Option {
	return func(c *Converter) {
		c.cfg.mermaidURL = url
	}
}

// WithHTTPClient sets the client used to reach the Kroki server.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Converter) {
		c.cfg.httpClient = client
	}
}

// WithTheme sets the default theme name.
func WithTheme(name string) Option {
	return func(c *Converter) {
		c.cfg.theme = name
	}
}

// WithAssetPath sets a directory holding themes/{name}.css files.
// Custom themes shadow the built-in ones of the same name.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithThemeLoader sets a custom ThemeLoader. It takes precedence over
// WithAssetPath.
func WithThemeLoader(loader ThemeLoader) Option {
	return func(c *Converter) {
		c.themes = loader
	}
}

// WithSanitize enables sanitizing the converted body. Scripts, event
// handlers and unsafe URLs are removed.
func WithSanitize(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.sanitize = enabled
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator sets the source of diagram placeholder ids.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(c *Converter) {
		c.cfg.newID = fn
	}
}

// WithDiagramConcurrency bounds parallel diagram renders per conversion.
// Values below 1 remove the bound.
func WithDiagramConcurrency(n int) Option {
	return func(c *Converter) {
		c.cfg.concurrency = n
	}
}
