package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_HeadingsGetIDs(t *testing.T) {
	r := New(Options{})

	html, err := r.Render([]byte("# Hello World\n\nSome *text*.\n"))
	require.NoError(t, err)
	require.Contains(t, html, `<h1 id="hello-world">Hello World</h1>`)
	require.Contains(t, html, "<em>text</em>")
}

func TestRender_GFMTable(t *testing.T) {
	r := New(Options{})

	html, err := r.Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, html, "<table>")
}

func TestRender_FencedCodeIsHighlighted(t *testing.T) {
	r := New(Options{CodeStyle: "monokai"})

	html, err := r.Render([]byte("```go\nfunc main() {}\n```\n"))
	require.NoError(t, err)
	require.Contains(t, html, "<pre")
	require.Contains(t, html, "style=")
	require.Contains(t, html, "main")
	require.NotContains(t, html, `<code class="language-go">`)
}

func TestRender_RawHTMLOmittedUnlessUnsafe(t *testing.T) {
	src := []byte("<div class=\"x\">raw</div>\n")

	safe, err := New(Options{}).Render(src)
	require.NoError(t, err)
	require.NotContains(t, safe, `<div class="x">`)

	unsafe, err := New(Options{Unsafe: true}).Render(src)
	require.NoError(t, err)
	require.Contains(t, unsafe, `<div class="x">raw</div>`)
}

func TestHighlighter_UnknownLanguageFallsBack(t *testing.T) {
	h := NewHighlighter("no-such-style")

	out, err := h.HighlightString("plain words", "klingon")
	require.NoError(t, err)
	require.Contains(t, out, "plain words")
}
