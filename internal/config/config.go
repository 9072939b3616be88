// Package config loads the YAML configuration consumed by the notemd CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-notemd/internal/fileutil"
	"github.com/alnah/go-notemd/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxURLLength       = 2048 // Browser limit
	MaxThemeNameLength = 64
	MaxExtLength       = 16 // ".html", ".markdown"
	MaxDiagramKinds    = 16
	MaxTimeoutLength   = 20 // "90s", "2m30s"
)

// Accepted enum values.
var (
	Engines      = []string{"notes", "goldmark"}
	DiagramModes = []string{"client", "kroki", "browser", "none"}
	Formats      = []string{"html", "fragment", "pdf"}
)

// diagramKindPattern restricts fence tags to identifier-like names.
var diagramKindPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Config holds all configuration for note rendering.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Render   RenderConfig   `yaml:"render"`
	Diagrams DiagramsConfig `yaml:"diagrams"`
	Theme    ThemeConfig    `yaml:"theme"`
	Links    LinksConfig    `yaml:"links"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Format     string `yaml:"format"`     // "html", "fragment", "pdf" (default: "html")
}

// RenderConfig defines the conversion engine options.
type RenderConfig struct {
	Engine   string `yaml:"engine"`   // "notes" or "goldmark" (default: "notes")
	Sanitize bool   `yaml:"sanitize"` // Run the HTML sanitizer over rendered fragments
	Timeout  string `yaml:"timeout"`  // Go duration, e.g. "30s"
}

// DiagramsConfig defines how fenced diagram blocks are rendered.
type DiagramsConfig struct {
	Mode       string   `yaml:"mode"`       // "client", "kroki", "browser", "none" (default: "client")
	Kinds      []string `yaml:"kinds"`      // Fence tags treated as diagrams (default: mermaid)
	KrokiURL   string   `yaml:"krokiURL"`   // Kroki server for kroki mode
	MermaidURL string   `yaml:"mermaidURL"` // Script URL for client and browser modes
}

// ThemeConfig defines page styling options.
type ThemeConfig struct {
	Name string `yaml:"name"` // Built-in or custom theme name (default: "light")
	CSS  string `yaml:"css"`  // Path to an extra stylesheet appended after the theme
}

// LinksConfig defines link rewriting options.
type LinksConfig struct {
	NoteExt string `yaml:"noteExt"` // Extension swapped in for relative .md links (e.g. ".html")
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded themes only
}

// Validate checks enum values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateEnum("output.format", c.Output.Format, Formats); err != nil {
		return err
	}

	if err := validateEnum("render.engine", c.Render.Engine, Engines); err != nil {
		return err
	}
	if c.Render.Timeout != "" {
		if err := validateFieldLength("render.timeout", c.Render.Timeout, MaxTimeoutLength); err != nil {
			return err
		}
		d, err := time.ParseDuration(c.Render.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: render.timeout: %q is not a positive duration", ErrInvalidValue, c.Render.Timeout)
		}
	}

	if err := validateEnum("diagrams.mode", c.Diagrams.Mode, DiagramModes); err != nil {
		return err
	}
	if len(c.Diagrams.Kinds) > MaxDiagramKinds {
		return fmt.Errorf("%w: diagrams.kinds (%d entries, max %d)", ErrFieldTooLong, len(c.Diagrams.Kinds), MaxDiagramKinds)
	}
	for i, kind := range c.Diagrams.Kinds {
		if !diagramKindPattern.MatchString(kind) {
			return fmt.Errorf("%w: diagrams.kinds[%d]: %q", ErrInvalidValue, i, kind)
		}
	}
	if err := validateURL("diagrams.krokiURL", c.Diagrams.KrokiURL); err != nil {
		return err
	}
	if err := validateURL("diagrams.mermaidURL", c.Diagrams.MermaidURL); err != nil {
		return err
	}

	if err := validateFieldLength("theme.name", c.Theme.Name, MaxThemeNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("theme.css", c.Theme.CSS, MaxPathLength); err != nil {
		return err
	}

	if c.Links.NoteExt != "" {
		if err := validateFieldLength("links.noteExt", c.Links.NoteExt, MaxExtLength); err != nil {
			return err
		}
		if !strings.HasPrefix(c.Links.NoteExt, ".") || strings.ContainsAny(c.Links.NoteExt, "/\\") {
			return fmt.Errorf("%w: links.noteExt: %q must look like \".html\"", ErrInvalidValue, c.Links.NoteExt)
		}
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration returns the parsed render timeout, or zero when unset.
// Validate must have succeeded first.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Render.Timeout)
	return d
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(fieldName, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

func validateURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxURLLength); err != nil {
		return err
	}
	if !fileutil.IsURL(value) {
		return fmt.Errorf("%w: %s: %q is not an http(s) URL", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Output:   OutputConfig{Format: "html"},
		Render:   RenderConfig{Engine: "notes"},
		Diagrams: DiagramsConfig{Mode: "client"},
		Theme:    ThemeConfig{Name: "light"},
	}
}

// applyDefaults fills enum fields a file left empty.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Render.Engine == "" {
		c.Render.Engine = d.Render.Engine
	}
	if c.Diagrams.Mode == "" {
		c.Diagrams.Mode = d.Diagrams.Mode
	}
	if c.Theme.Name == "" {
		c.Theme.Name = d.Theme.Name
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-notemd", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
