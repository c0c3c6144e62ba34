// internal/render/links.go
package render

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// linkTransformer rewrites link and image destinations so they resolve on
// the generated site: links to .md sources point at the .html output, and
// root-relative destinations get the site URL in front.
type linkTransformer struct {
	siteURL []byte
}

func newLinkTransformer(opts Options) parser.ASTTransformer {
	t := &linkTransformer{}
	if opts.SiteURL != "" && !opts.RelativeURLs {
		t.siteURL = bytes.TrimSuffix([]byte(opts.SiteURL), []byte("/"))
	}
	return t
}

func (t *linkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			v.Destination = t.rewrite(v.Destination, true)
		case *ast.Image:
			v.Destination = t.rewrite(v.Destination, false)
		}
		return ast.WalkContinue, nil
	})
}

func (t *linkTransformer) rewrite(dest []byte, page bool) []byte {
	if page && bytes.HasSuffix(dest, []byte(".md")) && !bytes.Contains(dest, []byte("://")) {
		base := bytes.TrimSuffix(dest, []byte(".md"))
		out := make([]byte, 0, len(base)+len(".html"))
		dest = append(append(out, base...), ".html"...)
	}
	if t.siteURL != nil && bytes.HasPrefix(dest, []byte("/")) && !bytes.HasPrefix(dest, []byte("//")) {
		out := make([]byte, 0, len(t.siteURL)+len(dest))
		out = append(out, t.siteURL...)
		dest = append(out, dest...)
	}
	return dest
}
