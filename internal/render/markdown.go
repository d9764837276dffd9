package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/mithrel/inkpad/pkg/api"
)

// Renderer converts editor markdown into sanitized HTML for the preview pane.
// Rendering is deterministic: the same source always yields the same HTML and
// the same content hash.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New builds a Renderer with GFM enabled (tables, strikethrough, autolinks,
// task lists). Raw HTML in the source is dropped by goldmark's default
// renderer and the bluemonday UGC policy catches whatever survives.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Renderer{md: md, policy: bluemonday.UGCPolicy()}
}

// Render converts source markdown to sanitized HTML.
// Empty source renders to empty HTML with the hash of the empty string, so
// the preview stays an exact pure function of the content.
func (r *Renderer) Render(source string) (api.RenderResult, error) {
	start := time.Now()
	res := api.RenderResult{
		Hash:  api.HashContent(source),
		Bytes: len(source),
	}
	if source == "" {
		res.Duration = time.Since(start)
		return res, nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return api.RenderResult{}, fmt.Errorf("convert markdown: %w", err)
	}
	res.HTML = r.policy.Sanitize(buf.String())
	res.Duration = time.Since(start)
	return res, nil
}

// HTML renders source and returns it typed for direct template injection.
// Use only for server-composed pages; API responses carry the string form.
func (r *Renderer) HTML(source string) (template.HTML, error) {
	res, err := r.Render(source)
	if err != nil {
		return "", err
	}
	return template.HTML(res.HTML), nil
}
