// Package markdown renders content bodies to HTML.
//
// Fenced code blocks are highlighted with chroma using inline styles, so the
// exported pages need no extra stylesheet.
package markdown

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options configures a Renderer.
type Options struct {
	// CodeStyle is a chroma style name. Unknown names fall back to chroma's default.
	CodeStyle string
	// Unsafe allows raw HTML in markdown sources.
	Unsafe bool
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
	hl *Highlighter
}

// New builds a Renderer with GFM, footnotes and automatic heading IDs.
func New(opts Options) *Renderer {
	hl := NewHighlighter(opts.CodeStyle)
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{hl: hl}, 100)),
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Renderer{md: md, hl: hl}
}

// Render converts a markdown body (frontmatter already removed) to HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Highlighter returns the code highlighter shared with fenced code blocks.
func (r *Renderer) Highlighter() *Highlighter {
	return r.hl
}

// Highlighter formats source code as HTML with chroma.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter creates a Highlighter for the named chroma style.
func NewHighlighter(style string) *Highlighter {
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &Highlighter{
		style:     s,
		formatter: chromahtml.New(chromahtml.TabWidth(4)),
	}
}

// Highlight writes code highlighted for lang to w. Unknown or empty languages
// are rendered as plain text inside the same wrapper.
func (h *Highlighter) Highlight(w io.Writer, code, lang string) error {
	lexer := lexers.Get(strings.ToLower(strings.TrimSpace(lang)))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return h.formatter.Format(w, h.style, it)
}

// HighlightString is Highlight into a string.
func (h *Highlighter) HighlightString(code, lang string) (string, error) {
	var buf bytes.Buffer
	if err := h.Highlight(&buf, code, lang); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type codeBlockRenderer struct {
	hl *Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *codeBlockRenderer) renderFencedCode(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*gmast.FencedCodeBlock)
	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	if err := r.hl.Highlight(w, code.String(), string(n.Language(source))); err != nil {
		return gmast.WalkStop, err
	}
	return gmast.WalkSkipChildren, nil
}
