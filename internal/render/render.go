// internal/render/render.go
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options controls how a Markdown snippet is rendered.
type Options struct {
	SiteURL      string
	RelativeURLs bool
	// Unsafe skips HTML sanitization and keeps raw HTML from the source.
	Unsafe bool
}

// OptionsFor derives rendering options from the loaded settings.
func OptionsFor(cfg config.SiteConfig) Options {
	return Options{SiteURL: cfg.SiteURL, RelativeURLs: cfg.RelativeURLs}
}

var htmlSanitizer = bluemonday.UGCPolicy()

// Markdown renders a short Markdown value, such as AUTHOR_BIO, to HTML.
func Markdown(src string, opts Options) (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(newLinkTransformer(opts), 100),
			),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}
	if opts.Unsafe {
		return template.HTML(buf.String()), nil
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil
}

// AuthorBio renders the AUTHOR_BIO setting.
func AuthorBio(cfg config.SiteConfig) (template.HTML, error) {
	if cfg.AuthorBio == "" {
		return "", nil
	}
	return Markdown(cfg.AuthorBio, OptionsFor(cfg))
}
