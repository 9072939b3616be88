package main

import (
	"errors"
	"os"

	notemd "github.com/alnah/go-notemd"
	"github.com/alnah/go-notemd/internal/config"
)

// Exit codes for the notemd CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser or diagram renderer errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser and renderer errors (exit 4)
	if errors.Is(err, notemd.ErrBrowserConnect) ||
		errors.Is(err, notemd.ErrPageCreate) ||
		errors.Is(err, notemd.ErrPageLoad) ||
		errors.Is(err, notemd.ErrPDFGeneration) ||
		errors.Is(err, notemd.ErrDiagramRender) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, notemd.ErrEmptyMarkdown) ||
		errors.Is(err, notemd.ErrInvalidEngine) ||
		errors.Is(err, notemd.ErrInvalidDiagramMode) ||
		errors.Is(err, notemd.ErrPDFRequiresBrowser) ||
		errors.Is(err, notemd.ErrInvalidNoteExt) ||
		errors.Is(err, notemd.ErrInvalidTheme) ||
		errors.Is(err, notemd.ErrThemeNotFound) ||
		errors.Is(err, notemd.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
