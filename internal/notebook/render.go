package notebook

import (
	"html"
	"sort"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/markdown"
)

// Renderer converts notebooks to HTML.
type Renderer struct {
	Markdown *markdown.Renderer
	// TrustHTML passes text/html outputs through unchanged.
	TrustHTML bool
}

// Render produces the notebook body. Cells are wrapped in divs carrying the
// cell type so the site stylesheet can tell them apart.
func (r *Renderer) Render(nb *Notebook) (string, error) {
	var b strings.Builder
	b.WriteString(`<div class="notebook-content">`)
	lang := nb.Language()
	for _, c := range nb.Cells {
		switch c.Type {
		case "markdown":
			out, err := r.Markdown.Render([]byte(c.Source))
			if err != nil {
				return "", err
			}
			b.WriteString(`<div class="cell markdown-cell">`)
			b.WriteString(out)
			b.WriteString(`</div>`)
		case "code":
			if strings.TrimSpace(string(c.Source)) == "" {
				continue
			}
			code, err := r.Markdown.Highlighter().HighlightString(string(c.Source), lang)
			if err != nil {
				return "", err
			}
			b.WriteString(`<div class="cell code-cell"><div class="input">`)
			b.WriteString(code)
			b.WriteString(`</div>`)
			r.renderOutputs(&b, c.Outputs)
			b.WriteString(`</div>`)
		case "raw":
			b.WriteString(`<div class="cell raw-cell"><pre>`)
			b.WriteString(html.EscapeString(string(c.Source)))
			b.WriteString(`</pre></div>`)
		}
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

func (r *Renderer) renderOutputs(b *strings.Builder, outputs []Output) {
	if len(outputs) == 0 {
		return
	}
	b.WriteString(`<div class="output">`)
	for _, o := range outputs {
		switch o.Type {
		case "stream":
			b.WriteString(`<pre class="output-text">`)
			b.WriteString(html.EscapeString(string(o.Text)))
			b.WriteString(`</pre>`)
		case "execute_result", "display_data":
			r.renderData(b, o.Data)
		case "error":
			b.WriteString(`<pre class="output-error">`)
			b.WriteString(html.EscapeString(o.EName + ": " + o.Value))
			b.WriteString(`</pre>`)
		}
	}
	b.WriteString(`</div>`)
}

// renderData picks the richest representation the site can show.
func (r *Renderer) renderData(b *strings.Builder, data map[string]Text) {
	if v, ok := data["text/html"]; ok && r.TrustHTML {
		b.WriteString(`<div class="output-html">`)
		b.WriteString(string(v))
		b.WriteString(`</div>`)
		return
	}
	images := make([]string, 0, 2)
	for mime := range data {
		if mime == "image/png" || mime == "image/jpeg" {
			images = append(images, mime)
		}
	}
	if len(images) > 0 {
		sort.Strings(images)
		mime := images[0]
		b.WriteString(`<img class="output-image" alt="" src="data:` + mime + `;base64,`)
		b.WriteString(html.EscapeString(strings.TrimSpace(string(data[mime]))))
		b.WriteString(`">`)
		return
	}
	if v, ok := data["text/plain"]; ok {
		b.WriteString(`<pre class="output-result">`)
		b.WriteString(html.EscapeString(string(v)))
		b.WriteString(`</pre>`)
	}
}
