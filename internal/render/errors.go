package render

import "errors"

// Sentinel errors for rendering targets.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrDiagramRender   = errors.New("diagram rendering failed")
	ErrBrowserConnect  = errors.New("failed to connect to browser")
	ErrPageCreate      = errors.New("failed to create browser page")
	ErrPageLoad        = errors.New("failed to load page")
	ErrPDFGeneration   = errors.New("PDF generation failed")
)
