package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitle names documents that have no heading.
const DefaultTitle = "Document"

// FirstHeading returns the text of the first h1 to h6 element in sel,
// whitespace-collapsed, or DefaultTitle when there is none or it is blank.
func FirstHeading(sel *goquery.Selection) string {
	title := strings.Join(strings.Fields(sel.Find("h1, h2, h3, h4, h5, h6").First().Text()), " ")
	if title == "" {
		return DefaultTitle
	}
	return title
}

// ResolveRelativePaths rewrites relative img[src] and a[href] values in sel
// to file:// URLs under sourceDir, so a document printed from a temporary
// location still finds the files next to its Markdown source. Paths that
// would leave sourceDir, URLs, anchors and absolute paths are left alone.
// An empty sourceDir does nothing.
func ResolveRelativePaths(sel *goquery.Selection, sourceDir string) error {
	if sourceDir == "" {
		return nil
	}
	dir, err := filepath.Abs(sourceDir)
	if err != nil {
		return err
	}

	rewrite := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			val, ok := s.Attr(attr)
			if !ok || !isRelativePath(val) {
				return
			}
			abs := filepath.Join(dir, filepath.FromSlash(val))
			if !isPathUnderDir(abs, dir) {
				return
			}
			s.SetAttr(attr, pathToFileURL(abs))
		}
	}
	sel.Find("img[src]").Each(rewrite("src"))
	sel.Find("a[href]").Each(rewrite("href"))
	return nil
}

func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "//") {
		return false
	}
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		// Covers http, https, file, data and mailto. A one-letter scheme
		// is a Windows drive.
		if len(u.Scheme) > 1 {
			return false
		}
	}
	return !filepath.IsAbs(p)
}

func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(absPath))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
