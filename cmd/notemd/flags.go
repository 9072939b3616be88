package main

import (
	"os"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds engine and diagram flags.
type renderFlags struct {
	engine     string
	diagrams   string
	kinds      []string
	krokiURL   string
	mermaidURL string
	sanitize   bool
	timeout    string
}

// styleFlags holds page styling flags.
type styleFlags struct {
	theme     string
	css       string // Path to an extra stylesheet
	assetPath string // Directory holding themes/{name}.css
}

// outputFlags holds output destination flags.
type outputFlags struct {
	output  string
	format  string
	noteExt string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	render  renderFlags
	style   styleFlags
	output  outputFlags
	workers int
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common   commonFlags
	render   renderFlags
	style    styleFlags
	output   outputFlags
	debounce time.Duration
}

// outlineFlags holds flags for the outline command.
type outlineFlags struct {
	format string // "text" or "yaml"
}

// defaultDebounce coalesces the burst of events editors emit on save.
const defaultDebounce = 100 * time.Millisecond

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addRenderFlags adds engine and diagram flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.engine, "engine", "e", "", "conversion engine: notes, goldmark")
	fs.StringVarP(&f.diagrams, "diagrams", "d", "", "diagram mode: client, kroki, browser, none")
	fs.StringSliceVar(&f.kinds, "kinds", nil, "fence languages rendered as diagrams")
	fs.StringVar(&f.krokiURL, "kroki-url", "", "Kroki server for kroki mode")
	fs.StringVar(&f.mermaidURL, "mermaid-url", "", "mermaid script URL")
	fs.BoolVar(&f.sanitize, "sanitize", false, "strip scripts and unsafe URLs from the body")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "conversion timeout (e.g., 30s, 2m)")
}

// addStyleFlags adds styling flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.theme, "theme", "", "theme name")
	fs.StringVar(&f.css, "css", "", "extra CSS file")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: html, fragment, pdf")
	fs.StringVar(&f.noteExt, "note-ext", "", "extension for rewritten note links (e.g., .html)")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addStyleFlags(fs, &f.style)
	addOutputFlags(fs, &f.output)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string) (*watchFlags, []string, error) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	f := &watchFlags{}

	fs.DurationVar(&f.debounce, "debounce", defaultDebounce, "delay before re-rendering after a change")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addStyleFlags(fs, &f.style)
	addOutputFlags(fs, &f.output)

	fs.Usage = func() { printWatchUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parseOutlineFlags parses outline command flags and returns positional args.
func parseOutlineFlags(args []string) (*outlineFlags, []string, error) {
	fs := flag.NewFlagSet("outline", flag.ContinueOnError)
	f := &outlineFlags{}

	fs.StringVarP(&f.format, "format", "f", "text", "output format: text, yaml")

	fs.Usage = func() { printOutlineUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
