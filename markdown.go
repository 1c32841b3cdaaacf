package pdftoolkit

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/techVasanthsmart/pdf-toolkit/internal/assets"
	"github.com/techVasanthsmart/pdf-toolkit/internal/pipeline"
)

// documentData fills the document template.
type documentData struct {
	Title string
	Style template.CSS
	Body  template.HTML
}

// DocumentOptions adjusts a printable document.
type DocumentOptions struct {
	// BaseDir resolves relative image and link paths. Empty leaves them
	// as written.
	BaseDir string
	// CSS is appended after the print stylesheet.
	CSS string
}

// MarkdownRenderer turns Markdown into HTML for preview and printing.
type MarkdownRenderer struct {
	converter pipeline.HTMLConverter
	injector  pipeline.CSSInjector
	assets    assets.AssetLoader
}

// NewMarkdownRenderer creates a renderer loading its stylesheet and
// template from loader (nil selects the embedded assets).
func NewMarkdownRenderer(loader assets.AssetLoader) *MarkdownRenderer {
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	return &MarkdownRenderer{
		converter: pipeline.NewGoldmarkConverter(),
		injector:  &pipeline.CSSInjection{},
		assets:    loader,
	}
}

// ToHTML validates md and renders it as a <div class="md-body"> fragment.
func (r *MarkdownRenderer) ToHTML(ctx context.Context, md string) (string, error) {
	if err := ValidateMarkdown(md); err != nil {
		return "", err
	}
	fragment, err := r.converter.ToHTML(ctx, md)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", newError(ErrParse, msgPrintFailed, err)
	}
	return fragment, nil
}

// Document renders md as a complete HTML5 page styled for print. The
// title is the text of the first heading, or "Document".
func (r *MarkdownRenderer) Document(ctx context.Context, md string, opts DocumentOptions) (string, error) {
	fragment, err := r.ToHTML(ctx, md)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrHTMLConversion, err)
	}
	title := pipeline.FirstHeading(doc.Selection)
	if err := pipeline.ResolveRelativePaths(doc.Selection, opts.BaseDir); err != nil {
		return "", fmt.Errorf("resolving relative paths: %w", err)
	}
	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrHTMLConversion, err)
	}

	style, err := r.assets.LoadStyle(assets.PrintStyleName)
	if err != nil {
		return "", fmt.Errorf("loading print style: %w", err)
	}
	tmplText, err := r.assets.LoadTemplate(assets.DocumentTemplateName)
	if err != nil {
		return "", fmt.Errorf("loading document template: %w", err)
	}
	tmpl, err := template.New(assets.DocumentTemplateName).Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("parsing document template: %w", err)
	}

	var buf bytes.Buffer
	// #nosec G203 -- body is goldmark output with raw HTML disabled; style is a trusted asset
	data := documentData{Title: title, Style: template.CSS(style), Body: template.HTML(body)}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering document template: %w", err)
	}

	return r.injector.InjectCSS(ctx, buf.String(), opts.CSS), nil
}
