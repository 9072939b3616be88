package assets

import "errors"

// ThemeResolver combines a custom and the embedded loader. A custom theme
// shadows a built-in one of the same name; names missing from the custom
// directory fall back to the built-in set.
type ThemeResolver struct {
	custom   ThemeLoader // nil if no custom path configured
	embedded ThemeLoader
}

// NewThemeResolver creates a ThemeResolver.
// If customBasePath is empty, only embedded themes are used.
// Returns error if customBasePath is set but invalid.
func NewThemeResolver(customBasePath string) (*ThemeResolver, error) {
	resolver := &ThemeResolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadTheme loads a theme, trying the custom loader first if available.
func (r *ThemeResolver) LoadTheme(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadTheme(name)
	}

	content, err := r.custom.LoadTheme(name)
	if err == nil {
		return content, nil
	}

	// Only fall back for "not found" errors, not validation or I/O errors
	if !errors.Is(err, ErrThemeNotFound) {
		return "", err
	}

	return r.embedded.LoadTheme(name)
}

// HasCustomLoader returns true if a custom theme directory is configured.
func (r *ThemeResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ ThemeLoader = (*ThemeResolver)(nil)
