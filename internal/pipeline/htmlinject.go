package pipeline

import (
	"context"
	"strings"
)

// CSSInjector adds a stylesheet to an HTML document.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

var _ CSSInjector = (*CSSInjection)(nil)

// CSSInjection appends a <style> block to the document head, after the
// styles already there, so its rules win on equal specificity.
type CSSInjection struct{}

// InjectCSS places cssContent before </head>, or right after the opening
// <body> tag when there is no head, or at the very start otherwise. Empty
// CSS or a done context leaves the document unchanged.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if strings.TrimSpace(cssContent) == "" || ctx.Err() != nil {
		return htmlContent
	}

	block := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lower := strings.ToLower(htmlContent)

	if idx := strings.Index(lower, "</head>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}
	if idx := strings.Index(lower, "<body"); idx != -1 {
		if end := strings.IndexByte(htmlContent[idx:], '>'); end != -1 {
			pos := idx + end + 1
			return htmlContent[:pos] + block + htmlContent[pos:]
		}
	}
	return block + htmlContent
}

// sanitizeCSS escapes "</" so the stylesheet cannot close its <style>
// element.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
