package notebook

import (
	"html/template"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/scholarsite/internal/content"
)

// Parser adapts notebooks to content collections. Metadata comes from the
// notebook's metadata.custom object.
type Parser struct {
	Renderer *Renderer
}

// Parse implements content.Parser.
func (p Parser) Parse(path string, data []byte) (content.Parsed, error) {
	nb, err := Decode(data)
	if err != nil {
		return content.Parsed{}, err
	}
	meta := make(map[string]any, len(nb.Metadata.Custom)+1)
	for k, v := range nb.Metadata.Custom {
		meta[k] = v
	}
	if t, _ := meta["title"].(string); strings.TrimSpace(t) == "" {
		meta["title"] = Title(nb, path)
	}
	body, err := p.Renderer.Render(nb)
	if err != nil {
		return content.Parsed{}, err
	}
	return content.Parsed{
		Metadata:    meta,
		RawBody:     nb.MarkdownText(),
		Rendered:    template.HTML(body), //nolint:gosec // cell output is escaped by Render
		Fingerprint: mdfp.CalculateFingerprintFromParts("", string(data)),
	}, nil
}

// Title derives a notebook title: the first "# " heading, else the filename
// with dashes and underscores turned into spaces, title-cased.
func Title(nb *Notebook, path string) string {
	if h := nb.FirstHeading(); h != "" {
		return h
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
}
