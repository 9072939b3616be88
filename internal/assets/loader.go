package assets

// Built-in theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultThemeName is the theme used when none is configured.
const DefaultThemeName = ThemeLight

// ThemeLoader defines the contract for loading page themes.
type ThemeLoader interface {
	// LoadTheme loads a theme stylesheet by name (without .css extension).
	// Returns ErrThemeNotFound if the theme doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTheme(name string) (string, error)
}
