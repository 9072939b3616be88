package notemd

import (
	"errors"
	"fmt"

	"github.com/alnah/go-notemd/internal/assets"
)

// DefaultTheme is the theme used when none is configured.
const DefaultTheme = assets.DefaultThemeName

// ThemeLoader defines the contract for loading page themes.
// Implementations may load from the filesystem, embedded assets, a
// database, etc.
type ThemeLoader interface {
	// LoadTheme loads a theme stylesheet by name (without .css extension).
	// Returns ErrThemeNotFound if the theme doesn't exist.
	LoadTheme(name string) (string, error)
}

// NewThemeLoader creates a ThemeLoader for the given base path.
// If basePath is empty, returns a loader using only the built-in themes.
// If basePath is set, basePath/themes/{name}.css takes precedence with
// fallback to the built-in themes.
//
// Returns ErrInvalidAssetPath if basePath is set but not a readable directory.
func NewThemeLoader(basePath string) (ThemeLoader, error) {
	resolver, err := assets.NewThemeResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &themeLoaderAdapter{resolver: resolver}, nil
}

// Themes lists the built-in theme names.
func Themes() []string {
	return assets.Themes()
}

// themeLoaderAdapter maps internal asset errors to public sentinels.
type themeLoaderAdapter struct {
	resolver *assets.ThemeResolver
}

func (a *themeLoaderAdapter) LoadTheme(name string) (string, error) {
	css, err := a.resolver.LoadTheme(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return css, nil
}

// convertAssetError maps internal asset errors to public errors.
// The original message is kept; errors.Is matches the public sentinel.
func convertAssetError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assets.ErrThemeNotFound):
		return err // re-exported as ErrThemeNotFound
	case errors.Is(err, assets.ErrInvalidAssetName):
		return fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	default:
		return err
	}
}
