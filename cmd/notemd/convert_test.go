package main

// Notes:
// - parseConvertFlags/mergeFlags: we test flag parsing and CLI-over-config
//   precedence field by field.
// - discoverFiles/resolveOutputPath: we test single files, trees and
//   explicit output files.
// - convertBatch/convertFile: we test with a mock pool and converter; the
//   real converter is exercised end to end in main_test.go.
// - printResultsWithWriter: we test each output mode.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	notemd "github.com/alnah/go-notemd"
	"github.com/alnah/go-notemd/internal/config"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockConverter records inputs and returns a fixed result.
type mockConverter struct {
	mu     sync.Mutex
	inputs []notemd.Input
	result *notemd.ConvertResult
	err    error
}

func (m *mockConverter) Convert(_ context.Context, input notemd.Input) (*notemd.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockPool hands out one converter, or nil when conv is nil.
type mockPool struct {
	conv CLIConverter
	size int
}

func (p *mockPool) Acquire() CLIConverter {
	if p.conv == nil {
		return nil
	}
	return p.conv
}
func (p *mockPool) Release(CLIConverter) {}
func (p *mockPool) Size() int            { return p.size }

// ---------------------------------------------------------------------------
// TestParseConvertFlags - Flag parsing
// ---------------------------------------------------------------------------

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	flags, positional, err := parseConvertFlags([]string{
		"-e", "goldmark",
		"-d", "kroki",
		"--kinds", "mermaid,plantuml",
		"--kroki-url", "http://kroki.local",
		"--sanitize",
		"-t", "45s",
		"--theme", "dark",
		"--css", "extra.css",
		"-o", "site",
		"-f", "fragment",
		"--note-ext", ".html",
		"-w", "2",
		"-q",
		"notes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(positional, []string{"notes"}) {
		t.Errorf("positional = %v, want [notes]", positional)
	}
	if flags.render.engine != "goldmark" || flags.render.diagrams != "kroki" {
		t.Errorf("render flags = %+v", flags.render)
	}
	if !slices.Equal(flags.render.kinds, []string{"mermaid", "plantuml"}) {
		t.Errorf("kinds = %v", flags.render.kinds)
	}
	if !flags.render.sanitize || flags.render.timeout != "45s" || flags.render.krokiURL != "http://kroki.local" {
		t.Errorf("render flags = %+v", flags.render)
	}
	if flags.style.theme != "dark" || flags.style.css != "extra.css" {
		t.Errorf("style flags = %+v", flags.style)
	}
	if flags.output.output != "site" || flags.output.format != "fragment" || flags.output.noteExt != ".html" {
		t.Errorf("output flags = %+v", flags.output)
	}
	if flags.workers != 2 || !flags.common.quiet {
		t.Errorf("workers = %d, quiet = %v", flags.workers, flags.common.quiet)
	}
}

func TestParseConvertFlags_Unknown(t *testing.T) {
	t.Parallel()

	_, _, err := parseConvertFlags([]string{"--page-size", "a4"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !errors.Is(flagError(err), ErrUsage) {
		t.Errorf("flagError(%v) should wrap ErrUsage", err)
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI over config
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("set flags win", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Theme.Name = "custom"
		cfg.Diagrams.Kinds = []string{"graphviz"}

		mergeFlags(
			&renderFlags{engine: "goldmark", diagrams: "none", kinds: []string{"mermaid"}, mermaidURL: "https://cdn.local/m.js", sanitize: true},
			&styleFlags{theme: "dark", css: "x.css", assetPath: "/assets"},
			&outputFlags{output: "site", format: "fragment", noteExt: ".html"},
			cfg,
		)

		if cfg.Render.Engine != "goldmark" || cfg.Diagrams.Mode != "none" || !cfg.Render.Sanitize {
			t.Errorf("render config = %+v, diagrams = %+v", cfg.Render, cfg.Diagrams)
		}
		if !slices.Equal(cfg.Diagrams.Kinds, []string{"mermaid"}) {
			t.Errorf("Diagrams.Kinds = %v, want [mermaid]", cfg.Diagrams.Kinds)
		}
		if cfg.Diagrams.MermaidURL != "https://cdn.local/m.js" {
			t.Errorf("Diagrams.MermaidURL = %q", cfg.Diagrams.MermaidURL)
		}
		if cfg.Theme.Name != "dark" || cfg.Theme.CSS != "x.css" || cfg.Assets.BasePath != "/assets" {
			t.Errorf("theme = %+v, assets = %+v", cfg.Theme, cfg.Assets)
		}
		if cfg.Output.DefaultDir != "site" || cfg.Output.Format != "fragment" || cfg.Links.NoteExt != ".html" {
			t.Errorf("output = %+v, links = %+v", cfg.Output, cfg.Links)
		}
	})

	t.Run("empty flags keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Render.Sanitize = true
		cfg.Theme.Name = "custom"

		mergeFlags(&renderFlags{}, &styleFlags{}, &outputFlags{}, cfg)

		if !cfg.Render.Sanitize {
			t.Error("an unset --sanitize should not clear the config value")
		}
		if cfg.Theme.Name != "custom" {
			t.Errorf("Theme.Name = %q, want custom", cfg.Theme.Name)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveConfig - Config file, env and flags together
// ---------------------------------------------------------------------------

func TestResolveConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "notemd.yaml")
	content := "render:\n  engine: goldmark\n  timeout: 20s\ntheme:\n  name: dark\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env, _, _ := newTestEnv()
	cfg, timeout, err := resolveConfig(cfgPath,
		&renderFlags{diagrams: "NONE"},
		&styleFlags{},
		&outputFlags{},
		&envConfig{Theme: "light"},
		env,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Render.Engine != "goldmark" {
		t.Errorf("Render.Engine = %q, want goldmark from file", cfg.Render.Engine)
	}
	if cfg.Theme.Name != "light" {
		t.Errorf("Theme.Name = %q, want light from env", cfg.Theme.Name)
	}
	if cfg.Diagrams.Mode != "none" {
		t.Errorf("Diagrams.Mode = %q, want none from flag, lowercased", cfg.Diagrams.Mode)
	}
	if timeout != 20*time.Second {
		t.Errorf("timeout = %v, want 20s from file", timeout)
	}
}

func TestResolveConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfgName string
		render  renderFlags
		output  outputFlags
		wantErr error
	}{
		{"missing named config", "no-such-notemd-config", renderFlags{}, outputFlags{}, config.ErrConfigNotFound},
		{"invalid mode", "", renderFlags{diagrams: "ascii"}, outputFlags{}, config.ErrInvalidValue},
		{"pdf in client mode", "", renderFlags{}, outputFlags{format: "pdf"}, notemd.ErrPDFRequiresBrowser},
		{"bad timeout", "", renderFlags{timeout: "soon"}, outputFlags{}, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := newTestEnv()
			_, _, err := resolveConfig(tt.cfgName, &tt.render, &styleFlags{}, &tt.output, &envConfig{}, env)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("resolveConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConverterOptions - Options build a working converter
// ---------------------------------------------------------------------------

func TestConverterOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Diagrams.Mode = "none"
	cfg.Diagrams.Kinds = []string{"mermaid", "graphviz"}

	conv, err := notemd.NewConverter(converterOptions(cfg, 5*time.Second, newLogger(&bytes.Buffer{}, false, false))...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	defer conv.Close()

	result, err := conv.Convert(context.Background(), notemd.Input{
		Markdown: "```graphviz\ndigraph { a -> b }\n```\n",
		Fragment: true,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(result.Diagrams) != 1 || result.Diagrams[0].Kind != "graphviz" {
		t.Errorf("Diagrams = %+v, want one graphviz diagram", result.Diagrams)
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - File discovery
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "notes/a.md", "# A")
	writeNote(t, dir, "notes/deep/b.MD", "# B")
	writeNote(t, dir, "notes/c.txt", "skip")

	t.Run("tree mirrored under output dir", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles(filepath.Join(dir, "notes"), filepath.Join(dir, "out"), ".html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := make([]string, len(files))
		for i, f := range files {
			got[i] = f.OutputPath
		}
		slices.Sort(got)
		want := []string{
			filepath.Join(dir, "out", "a.html"),
			filepath.Join(dir, "out", "deep", "b.html"),
		}
		if !slices.Equal(got, want) {
			t.Errorf("outputs = %v, want %v", got, want)
		}
	})

	t.Run("single file next to source", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles(filepath.Join(dir, "notes", "a.md"), "", ".pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 1 || files[0].OutputPath != filepath.Join(dir, "notes", "a.pdf") {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles(filepath.Join(dir, "notes", "c.txt"), "", ".html")
		if !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error = %v, want ErrInvalidExtension", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles(filepath.Join(dir, "missing"), "", ".html")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		ext       string
		want      string
	}{
		{"next to source", "notes/a.md", "", "", ".html", filepath.Join("notes", "a.html")},
		{"into directory", "notes/a.md", "site", "", ".html", filepath.Join("site", "a.html")},
		{"explicit file", "notes/a.md", "site/index.html", "", ".html", "site/index.html"},
		{"explicit file ignored for trees", "notes/a.md", "site/index.html", "notes", ".html", filepath.Join("site/index.html", "a.html")},
		{"nested tree", "notes/x/y/a.markdown", "site", "notes", ".pdf", filepath.Join("site", "x", "y", "a.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir, tt.ext)
			if got != tt.want {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n       int
		wantErr bool
	}{
		{-1, true},
		{0, false},
		{1, false},
		{notemd.MaxPoolSize, false},
		{notemd.MaxPoolSize + 1, true},
	}

	for _, tt := range tests {
		err := validateWorkers(tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateWorkers(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error should wrap ErrInvalidWorkerCount", tt.n)
		}
	}
}

func TestResolveInputPath(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Input: config.InputConfig{DefaultDir: "./default/"}}

	if got, _ := resolveInputPath([]string{"note.md"}, cfg); got != "note.md" {
		t.Errorf("args should take precedence, got %q", got)
	}
	if got, _ := resolveInputPath(nil, cfg); got != "./default/" {
		t.Errorf("config fallback = %q, want ./default/", got)
	}
	if _, err := resolveInputPath(nil, &config.Config{}); !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}
}

func TestReadCSS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "extra.css")
	if err := os.WriteFile(path, []byte("p { color: red; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	if css, err := readCSS(""); css != "" || err != nil {
		t.Errorf("readCSS(\"\") = %q, %v", css, err)
	}
	if css, err := readCSS(path); css != "p { color: red; }" || err != nil {
		t.Errorf("readCSS() = %q, %v", css, err)
	}
	if _, err := readCSS(filepath.Join(dir, "missing.css")); !errors.Is(err, ErrReadCSS) {
		t.Errorf("error = %v, want ErrReadCSS", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvertBatch - Worker fan-out
// ---------------------------------------------------------------------------

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	t.Run("converts every file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var files []FileToConvert
		for _, name := range []string{"a.md", "b.md", "c.md"} {
			in := writeNote(t, dir, name, "# "+name)
			files = append(files, FileToConvert{InputPath: in, OutputPath: filepath.Join(dir, "out", name+".html")})
		}

		conv := &mockConverter{result: &notemd.ConvertResult{HTML: []byte("<p>ok</p>")}}
		results := convertBatch(context.Background(), &mockPool{conv: conv, size: 2}, files, &conversionParams{format: formatHTML, css: "p{}"})

		for i, r := range results {
			if r.Err != nil {
				t.Errorf("results[%d].Err = %v", i, r.Err)
			}
			data, err := os.ReadFile(files[i].OutputPath)
			if err != nil || string(data) != "<p>ok</p>" {
				t.Errorf("output %s = %q, %v", files[i].OutputPath, data, err)
			}
		}
		if len(conv.inputs) != 3 {
			t.Fatalf("Convert called %d times, want 3", len(conv.inputs))
		}
		for _, in := range conv.inputs {
			if in.CSS != "p{}" || in.Fragment || in.PDF {
				t.Errorf("input = %+v", in)
			}
			if !filepath.IsAbs(in.SourceDir) {
				t.Errorf("SourceDir = %q, want absolute", in.SourceDir)
			}
		}
	})

	t.Run("pdf format writes pdf bytes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeNote(t, dir, "a.md", "# A")
		files := []FileToConvert{{InputPath: in, OutputPath: filepath.Join(dir, "a.pdf")}}

		conv := &mockConverter{result: &notemd.ConvertResult{HTML: []byte("<p/>"), PDF: []byte("%PDF-1.7")}}
		results := convertBatch(context.Background(), &mockPool{conv: conv, size: 1}, files, &conversionParams{format: formatPDF})

		if results[0].Err != nil {
			t.Fatalf("unexpected error: %v", results[0].Err)
		}
		data, _ := os.ReadFile(files[0].OutputPath)
		if string(data) != "%PDF-1.7" {
			t.Errorf("output = %q, want PDF bytes", data)
		}
		if !conv.inputs[0].PDF {
			t.Error("Input.PDF should be set for pdf format")
		}
	})

	t.Run("nil converter fails all jobs", func(t *testing.T) {
		t.Parallel()

		files := []FileToConvert{{InputPath: "a.md"}, {InputPath: "b.md"}}
		results := convertBatch(context.Background(), &mockPool{size: 2}, files, &conversionParams{})

		for i, r := range results {
			if !errors.Is(r.Err, ErrServiceInit) {
				t.Errorf("results[%d].Err = %v, want ErrServiceInit", i, r.Err)
			}
		}
	})

	t.Run("canceled context skips work", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		conv := &mockConverter{result: &notemd.ConvertResult{}}
		files := []FileToConvert{{InputPath: "a.md"}}
		results := convertBatch(ctx, &mockPool{conv: conv, size: 1}, files, &conversionParams{})

		if !errors.Is(results[0].Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", results[0].Err)
		}
		if len(conv.inputs) != 0 {
			t.Error("converter should not run after cancellation")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		if results := convertBatch(context.Background(), &mockPool{size: 1}, nil, &conversionParams{}); results != nil {
			t.Errorf("results = %v, want nil", results)
		}
	})
}

func TestConvertFile_ErrorPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	note := writeNote(t, dir, "a.md", "# A")
	blocker := writeNote(t, dir, "blocker", "file, not a directory")

	tests := []struct {
		name    string
		file    FileToConvert
		conv    *mockConverter
		wantErr error
	}{
		{
			name:    "missing input",
			file:    FileToConvert{InputPath: filepath.Join(dir, "missing.md"), OutputPath: filepath.Join(dir, "x.html")},
			conv:    &mockConverter{result: &notemd.ConvertResult{}},
			wantErr: ErrReadMarkdown,
		},
		{
			name:    "output dir blocked",
			file:    FileToConvert{InputPath: note, OutputPath: filepath.Join(blocker, "a.html")},
			conv:    &mockConverter{result: &notemd.ConvertResult{}},
			wantErr: ErrCreateOutputDir,
		},
		{
			name:    "converter error",
			file:    FileToConvert{InputPath: note, OutputPath: filepath.Join(dir, "a.html")},
			conv:    &mockConverter{err: notemd.ErrEmptyMarkdown},
			wantErr: notemd.ErrEmptyMarkdown,
		},
		{
			name:    "output is a directory",
			file:    FileToConvert{InputPath: note, OutputPath: dir},
			conv:    &mockConverter{result: &notemd.ConvertResult{HTML: []byte("x")}},
			wantErr: ErrWriteOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := convertFile(context.Background(), tt.conv, tt.file, &conversionParams{format: formatHTML})
			if !errors.Is(r.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", r.Err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Result reporting
// ---------------------------------------------------------------------------

func TestPrintResultsWithWriter(t *testing.T) {
	t.Parallel()

	results := []ConversionResult{
		{InputPath: "a.md", OutputPath: "a.html", Duration: 12 * time.Millisecond, Diagrams: 2},
		{InputPath: "b.md", Err: ErrReadMarkdown},
	}

	tests := []struct {
		name       string
		quiet      bool
		verbose    bool
		wantStdout []string
		notStdout  []string
	}{
		{"default", false, false, []string{"Created a.html", "1 succeeded, 1 failed"}, nil},
		{"verbose", false, true, []string{"a.md -> a.html (12ms, 2 diagrams)"}, []string{"Created"}},
		{"quiet", true, false, nil, []string{"Created", "succeeded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv()
			failed := printResultsWithWriter(results, tt.quiet, tt.verbose, env)

			if failed != 1 {
				t.Errorf("failed = %d, want 1", failed)
			}
			if !strings.Contains(stderr.String(), "FAILED b.md: ") {
				t.Errorf("stderr = %q, want FAILED line", stderr.String())
			}
			for _, want := range tt.wantStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout should contain %q, got %q", want, stdout.String())
				}
			}
			for _, not := range tt.notStdout {
				if strings.Contains(stdout.String(), not) {
					t.Errorf("stdout should not contain %q, got %q", not, stdout.String())
				}
			}
		})
	}
}
