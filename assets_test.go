package notemd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestThemes(t *testing.T) {
	t.Parallel()

	got := Themes()
	for _, want := range []string{ThemeLight, ThemeDark} {
		if !slices.Contains(got, want) {
			t.Errorf("Themes() = %v, missing %q", got, want)
		}
	}
}

func TestNewThemeLoader(t *testing.T) {
	t.Parallel()

	custom := t.TempDir()
	if err := os.MkdirAll(filepath.Join(custom, "themes"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(custom, "themes", "dark.css"), []byte("/* custom dark */"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		basePath    string
		theme       string
		wantContain string
		wantErr     error
		wantNewErr  error
	}{
		{
			name:        "embedded only",
			theme:       ThemeLight,
			wantContain: "main.note",
		},
		{
			name:        "custom shadows built-in",
			basePath:    custom,
			theme:       ThemeDark,
			wantContain: "custom dark",
		},
		{
			name:        "custom falls back to built-in",
			basePath:    custom,
			theme:       ThemeLight,
			wantContain: "main.note",
		},
		{
			name:    "unknown theme",
			theme:   "sepia",
			wantErr: ErrThemeNotFound,
		},
		{
			name:    "traversal in name",
			theme:   "../../etc/passwd",
			wantErr: ErrInvalidTheme,
		},
		{
			name:       "missing base path",
			basePath:   filepath.Join(custom, "missing"),
			wantNewErr: ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader, err := NewThemeLoader(tt.basePath)
			if tt.wantNewErr != nil {
				if !errors.Is(err, tt.wantNewErr) {
					t.Errorf("NewThemeLoader() error = %v, want %v", err, tt.wantNewErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewThemeLoader() error = %v", err)
			}

			css, err := loader.LoadTheme(tt.theme)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadTheme(%q) error = %v, want %v", tt.theme, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTheme(%q) error = %v", tt.theme, err)
			}
			if !strings.Contains(css, tt.wantContain) {
				t.Errorf("LoadTheme(%q) missing %q", tt.theme, tt.wantContain)
			}
		})
	}
}
