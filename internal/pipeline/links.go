package pipeline

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkRewrite selects the rewrites applied by RewriteLinks.
type LinkRewrite struct {
	// SourceDir resolves relative image sources to file:// URLs under it.
	// Empty skips image rewriting.
	SourceDir string

	// NoteExt replaces the extension of relative links to other notes
	// (.md, .markdown), e.g. ".html" for a converted folder. Empty skips
	// link rewriting.
	NoteExt string
}

func (r LinkRewrite) empty() bool {
	return r.SourceDir == "" && r.NoteExt == ""
}

// RewriteLinks rewrites relative image sources and note links in an HTML
// fragment. With an empty LinkRewrite the fragment is returned unchanged.
//
// Does NOT rewrite:
//   - srcset attributes
//   - CSS url() references
//   - Absolute paths or URLs (already resolved)
//   - Paths escaping SourceDir
func RewriteLinks(fragment string, opts LinkRewrite) (string, error) {
	if opts.empty() {
		return fragment, nil
	}

	var absSourceDir string
	if opts.SourceDir != "" {
		dir, err := filepath.Abs(opts.SourceDir)
		if err != nil {
			return "", err
		}
		absSourceDir = dir
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		rewriteNode(n, absSourceDir, opts.NoteExt)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteNode traverses the tree and rewrites matching attributes.
func rewriteNode(n *html.Node, sourceDir, noteExt string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			if sourceDir != "" {
				rewriteAttr(n, "src", func(v string) (string, bool) {
					return resolveUnder(v, sourceDir)
				})
			}
		case atom.A:
			if noteExt != "" {
				rewriteAttr(n, "href", func(v string) (string, bool) {
					return swapNoteExt(v, noteExt)
				})
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir, noteExt)
	}
}

// rewriteAttr replaces an attribute value when fn accepts it.
func rewriteAttr(n *html.Node, key string, fn func(string) (string, bool)) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}
		if v, ok := fn(attr.Val); ok {
			n.Attr[i].Val = v
		}
	}
}

// resolveUnder joins a relative path onto dir and returns its file:// URL.
// Paths escaping dir are left alone.
func resolveUnder(rel, dir string) (string, bool) {
	absPath := filepath.Join(dir, rel)
	if !isPathUnderDir(absPath, dir) {
		return "", false
	}
	return pathToFileURL(absPath), true
}

// swapNoteExt replaces a note extension in a relative link, keeping any
// fragment or query.
func swapNoteExt(href, ext string) (string, bool) {
	target, suffix := href, ""
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		target, suffix = href[:i], href[i:]
	}
	switch strings.ToLower(path.Ext(target)) {
	case ".md", ".markdown":
		return strings.TrimSuffix(target, path.Ext(target)) + ext + suffix, true
	}
	return "", false
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(p string) bool {
	if p == "" {
		return false
	}

	// Skip URLs (http, https, file, data, mailto, protocol-relative)
	if strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://") ||
		strings.HasPrefix(p, "file://") ||
		strings.HasPrefix(p, "data:") ||
		strings.HasPrefix(p, "mailto:") ||
		strings.HasPrefix(p, "//") {
		return false
	}

	// Skip anchors
	if strings.HasPrefix(p, "#") {
		return false
	}

	return !filepath.IsAbs(p)
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
