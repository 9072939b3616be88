package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadTheme loads a built-in theme by name.
func LoadTheme(name string) (string, error) {
	return defaultLoader.LoadTheme(name)
}

// Themes lists the built-in theme names in sorted order.
func Themes() []string {
	return defaultLoader.Names()
}
