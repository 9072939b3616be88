// Package assets provides the page themes notes are rendered with.
//
// # Loader Architecture
//
//	ThemeLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in light and dark themes
//	    ├── FilesystemLoader  - themes from a directory on disk
//	    └── ThemeResolver     - both, custom first with embedded fallback
//
// A custom directory holds {basePath}/themes/{name}.css. Overriding
// "light" or "dark" there replaces the built-in theme of that name.
//
// # Security
//
// Theme names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
