package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: notemd <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown notes to HTML or PDF")
	fmt.Fprintln(w, "  watch      Re-convert a note every time it is saved")
	fmt.Fprintln(w, "  outline    Print the heading outline of a note")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'notemd help <command>' for details on a specific command.")
}

// printRenderFlags prints the flags shared by convert and watch.
func printRenderFlags(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -e, --engine <s>          Engine: notes, goldmark")
	fmt.Fprintln(w, "  -d, --diagrams <s>        Diagram mode: client, kroki, browser, none")
	fmt.Fprintln(w, "      --kinds <list>        Fence languages rendered as diagrams (default: mermaid)")
	fmt.Fprintln(w, "      --kroki-url <url>     Kroki server for kroki mode")
	fmt.Fprintln(w, "      --mermaid-url <url>   Mermaid script URL")
	fmt.Fprintln(w, "      --sanitize            Strip scripts and unsafe URLs from the body")
	fmt.Fprintln(w, "  -t, --timeout <d>         Conversion timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --theme <name>        Theme: light, dark, or a custom theme")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory holding themes/<name>.css")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <s>          Format: html, fragment, pdf (pdf needs --diagrams browser)")
	fmt.Fprintln(w, "      --note-ext <ext>      Rewrite links to .md notes to this extension")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: notemd convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown notes to HTML or PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	printRenderFlags(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: notemd watch <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a note, then convert it again every time it is saved.")
	fmt.Fprintln(w, "Stop with Ctrl+C.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch:")
	fmt.Fprintln(w, "      --debounce <d>        Delay before re-rendering (default: 100ms)")
	fmt.Fprintln(w)
	printRenderFlags(w)
}

// printOutlineUsage prints usage for the outline command.
func printOutlineUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: notemd outline <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the headings of a note with their line numbers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -f, --format <s>          Format: text, yaml (default: text)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "outline":
		printOutlineUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: notemd version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: notemd help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
