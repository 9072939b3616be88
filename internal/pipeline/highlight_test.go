package pipeline

import (
	"strings"
	"testing"
)

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	light := HighlightCSS(ThemeLight)
	dark := HighlightCSS(ThemeDark)

	for name, css := range map[string]string{"light": light, "dark": dark} {
		if !strings.Contains(css, ".chroma") {
			t.Errorf("%s stylesheet missing .chroma rules", name)
		}
	}
	if light == dark {
		t.Error("light and dark stylesheets should differ")
	}
	if got := HighlightCSS("sepia"); got != light {
		t.Error("unknown themes should use the light style")
	}
}
