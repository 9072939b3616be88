package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	notemd "github.com/alnah/go-notemd"
	"github.com/alnah/go-notemd/internal/config"
	"github.com/alnah/go-notemd/internal/fileutil"
	"github.com/alnah/go-notemd/internal/hints"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for command setup.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrConversionFailed = errors.New("conversion failed")
)

// Output formats.
const (
	formatHTML     = "html"
	formatFragment = "fragment"
	formatPDF      = "pdf"
)

// reportedError marks an error whose details were already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	css     string
	noteExt string
	format  string
}

// runConvertCmd parses flags and runs the convert command.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		return flagError(err)
	}
	return runConvert(ctx, positional, flags, env)
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, timeout, err := resolveConfig(flags.common.config, &flags.render, &flags.style, &flags.output, envCfg, env)
	if err != nil {
		return err
	}

	css, err := readCSS(cfg.Theme.CSS)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	files, err := discoverFiles(inputPath, cfg.Output.DefaultDir, outputExt(cfg.Output.Format))
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}

	setMaxProcs(env, flags.common.verbose)
	poolSize := notemd.ResolvePoolSize(workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	pool := notemd.NewConverterPool(poolSize, converterOptions(cfg, timeout, logger)...)
	defer pool.Close()

	params := &conversionParams{
		css:     css,
		noteExt: cfg.Links.NoteExt,
		format:  cfg.Output.Format,
	}
	results := convertBatch(ctx, &poolAdapter{pool: pool}, files, params)
	failed := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if failed == 0 {
		return nil
	}

	if initErr := pool.InitError(); initErr != nil {
		return fmt.Errorf("%w: %w", ErrServiceInit, initErr)
	}
	return &reportedError{err: fmt.Errorf("%w: %d of %d files: %w", ErrConversionFailed, failed, len(results), firstError(results))}
}

// resolveConfig loads the config file and layers env vars and flags on it.
// Precedence: CLI flags > env vars > config file > defaults.
func resolveConfig(name string, rf *renderFlags, sf *styleFlags, of *outputFlags, envCfg *envConfig, env *Environment) (*config.Config, time.Duration, error) {
	cfg, err := loadConfig(name, envCfg, env)
	if err != nil {
		return nil, 0, err
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(rf, sf, of, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	cfg.Diagrams.Mode = strings.ToLower(cfg.Diagrams.Mode)
	if cfg.Output.Format == formatPDF && cfg.Diagrams.Mode != notemd.DiagramsBrowser {
		return nil, 0, fmt.Errorf("%w: format %q with diagram mode %q", notemd.ErrPDFRequiresBrowser, cfg.Output.Format, cfg.Diagrams.Mode)
	}

	timeout, err := resolveTimeoutWithEnv(rf.timeout, envCfg.Timeout, cfg.Render.Timeout)
	if err != nil {
		return nil, 0, err
	}
	return cfg, timeout, nil
}

// loadConfig loads the named config, falling back to NOTEMD_CONFIG and
// then to the environment's base config.
func loadConfig(name string, envCfg *envConfig, env *Environment) (*config.Config, error) {
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		if env.Config == nil {
			return config.DefaultConfig(), nil
		}
		cfg := *env.Config
		return &cfg, nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags overrides config values with explicitly set flags (CLI wins).
func mergeFlags(rf *renderFlags, sf *styleFlags, of *outputFlags, cfg *config.Config) {
	if rf.engine != "" {
		cfg.Render.Engine = rf.engine
	}
	if rf.diagrams != "" {
		cfg.Diagrams.Mode = rf.diagrams
	}
	if len(rf.kinds) > 0 {
		cfg.Diagrams.Kinds = rf.kinds
	}
	if rf.krokiURL != "" {
		cfg.Diagrams.KrokiURL = rf.krokiURL
	}
	if rf.mermaidURL != "" {
		cfg.Diagrams.MermaidURL = rf.mermaidURL
	}
	if rf.sanitize {
		cfg.Render.Sanitize = true
	}

	if sf.theme != "" {
		cfg.Theme.Name = sf.theme
	}
	if sf.css != "" {
		cfg.Theme.CSS = sf.css
	}
	if sf.assetPath != "" {
		cfg.Assets.BasePath = sf.assetPath
	}

	if of.output != "" {
		cfg.Output.DefaultDir = of.output
	}
	if of.format != "" {
		cfg.Output.Format = of.format
	}
	if of.noteExt != "" {
		cfg.Links.NoteExt = of.noteExt
	}
}

// converterOptions maps the resolved config to converter options.
func converterOptions(cfg *config.Config, timeout time.Duration, logger *slog.Logger) []notemd.Option {
	opts := []notemd.Option{
		notemd.WithEngine(cfg.Render.Engine),
		notemd.WithDiagramMode(cfg.Diagrams.Mode),
		notemd.WithTheme(cfg.Theme.Name),
		notemd.WithAssetPath(cfg.Assets.BasePath),
		notemd.WithSanitize(cfg.Render.Sanitize),
		notemd.WithLogger(logger),
	}
	if timeout > 0 {
		opts = append(opts, notemd.WithTimeout(timeout))
	}
	if len(cfg.Diagrams.Kinds) > 0 {
		opts = append(opts, notemd.WithDiagramKinds(cfg.Diagrams.Kinds...))
	}
	if cfg.Diagrams.KrokiURL != "" {
		opts = append(opts, notemd.WithKrokiURL(cfg.Diagrams.KrokiURL))
	}
	if cfg.Diagrams.MermaidURL != "" {
		opts = append(opts, notemd.WithMermaidURL(cfg.Diagrams.MermaidURL))
	}
	return opts
}

// resolveTimeoutWithEnv picks the timeout: flag > env > config.
// Zero means the converter default.
func resolveTimeoutWithEnv(flagValue string, envValue time.Duration, configValue string) (time.Duration, error) {
	if flagValue != "" {
		return parseTimeout(flagValue)
	}
	if envValue > 0 {
		return envValue, nil
	}
	if configValue != "" {
		return parseTimeout(configValue)
	}
	return 0, nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q: must be positive", ErrInvalidTimeout, s)
	}
	return d, nil
}

// resolveInputPath returns the positional input or the configured default.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// readCSS reads the extra stylesheet, if any.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided CSS path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
	}
	return string(data), nil
}

// outputExt returns the file extension for an output format.
func outputExt(format string) string {
	if format == formatPDF {
		return ".pdf"
	}
	return ".html"
}

// sourceDir returns the absolute directory of a note, for image paths.
func sourceDir(inputPath string) string {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return filepath.Dir(inputPath)
	}
	return filepath.Dir(abs)
}

// newLogger builds the CLI's diagnostic logger on w.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// flagError classifies a flag parsing error as a usage error.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// firstError returns the first failed result's error.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, notemd.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, notemd.ErrThemeNotFound):
		return hints.ForThemeNotFound(notemd.Themes())
	case errors.Is(err, notemd.ErrPDFRequiresBrowser):
		return hints.ForPDFMode()
	case errors.Is(err, notemd.ErrDiagramRender):
		return hints.ForKroki()
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
