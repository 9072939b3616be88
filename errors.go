package notemd

import (
	"errors"

	"github.com/alnah/go-notemd/internal/assets"
	"github.com/alnah/go-notemd/internal/pipeline"
	"github.com/alnah/go-notemd/internal/render"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown      = errors.New("markdown content cannot be empty")
	ErrInvalidEngine      = errors.New("invalid engine")
	ErrInvalidDiagramMode = errors.New("invalid diagram mode")
	ErrPDFRequiresBrowser = errors.New("PDF output requires the browser diagram mode")
	ErrInvalidNoteExt     = errors.New("invalid note extension")

	// Asset loading errors.
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// Errors raised by internal stages, re-exported for errors.Is matching.
var (
	ErrThemeNotFound  = assets.ErrThemeNotFound
	ErrHTMLConversion = pipeline.ErrHTMLConversion
	ErrFrontMatter    = pipeline.ErrFrontMatter
	ErrDocumentRender = pipeline.ErrDocumentRender
	ErrDiagramRender  = render.ErrDiagramRender
	ErrBrowserConnect = render.ErrBrowserConnect
	ErrPageCreate     = render.ErrPageCreate
	ErrPageLoad       = render.ErrPageLoad
	ErrPDFGeneration  = render.ErrPDFGeneration
)
