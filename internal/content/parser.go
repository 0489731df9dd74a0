package content

import (
	"html/template"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/scholarsite/internal/frontmatter"
)

// Parsed is the format-specific part of an Item.
type Parsed struct {
	Metadata    map[string]any
	RawBody     string
	Rendered    template.HTML
	Fingerprint string
}

// Parser turns one file into its metadata and rendered body.
type Parser interface {
	Parse(path string, data []byte) (Parsed, error)
}

// BodyRenderer renders a markdown body to HTML.
type BodyRenderer interface {
	Render(body []byte) (string, error)
}

// MarkdownParser reads markdown files with optional YAML frontmatter.
type MarkdownParser struct {
	Renderer BodyRenderer
}

// Parse implements Parser. The body is trimmed of surrounding whitespace
// before it feeds excerpts and reading time.
func (p MarkdownParser) Parse(_ string, data []byte) (Parsed, error) {
	fm, _, _, splitErr := frontmatter.Split(data)
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return Parsed{}, err
	}
	if splitErr != nil {
		fm = nil
	}
	body := strings.TrimSpace(string(doc.Body))
	html, err := p.Renderer.Render([]byte(body))
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{
		Metadata:    doc.Metadata,
		RawBody:     body,
		Rendered:    template.HTML(html), //nolint:gosec // produced by the markdown renderer
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSpace(string(fm)), body),
	}, nil
}
