package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	notemd "github.com/alnah/go-notemd"
)

// runWatchCmd parses flags and runs the watch command.
func runWatchCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseWatchFlags(args)
	if err != nil {
		return flagError(err)
	}
	return runWatch(ctx, positional, flags, env)
}

// runWatch converts a note, then converts it again after every save until
// the context is canceled.
func runWatch(ctx context.Context, positionalArgs []string, flags *watchFlags, env *Environment) error {
	if len(positionalArgs) == 0 {
		return fmt.Errorf("%w: watch needs a markdown file", ErrNoInput)
	}
	if flags.debounce <= 0 {
		return fmt.Errorf("%w: --debounce must be positive, got %v", ErrUsage, flags.debounce)
	}

	inputPath := positionalArgs[0]
	if err := validateMarkdownExtension(inputPath); err != nil {
		return err
	}
	if _, err := os.Stat(inputPath); err != nil {
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

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	conv, err := notemd.NewConverter(converterOptions(cfg, timeout, logger)...)
	if err != nil {
		return err
	}
	defer conv.Close()

	file := FileToConvert{
		InputPath:  inputPath,
		OutputPath: resolveOutputPath(inputPath, cfg.Output.DefaultDir, "", outputExt(cfg.Output.Format)),
	}
	params := &conversionParams{
		css:     css,
		noteExt: cfg.Links.NoteExt,
		format:  cfg.Output.Format,
	}
	rerender := func() {
		printWatchResult(convertFile(ctx, conv, file, params), flags.common.quiet, env)
	}

	rerender()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}
	// Editors often save by rename, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (Ctrl+C to stop)\n", inputPath)
	}
	return watchLoop(ctx, watcher.Events, watcher.Errors, target, flags.debounce, rerender, logger)
}

// watchLoop calls onChange once per burst of writes to target. Bursts end
// after debounce of quiet. Returns nil when ctx is canceled or the event
// channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, target string, debounce time.Duration, onChange func(), logger *slog.Logger) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !samePath(ev.Name, target) {
				continue
			}
			logger.Debug("note changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

func samePath(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	return absA == filepath.Clean(b)
}

// printWatchResult reports one re-render with a timestamp.
func printWatchResult(r ConversionResult, quiet bool, env *Environment) {
	if r.Err != nil {
		fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
		return
	}
	if quiet {
		return
	}
	fmt.Fprintf(env.Stdout, "[%s] Updated %s (%v)\n", env.Now().Format(time.TimeOnly), r.OutputPath, r.Duration.Round(time.Millisecond))
}
