package content

import (
	"html/template"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/scholarsite/internal/frontmatter"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// StaticPage is a top-level page such as about or cv.
type StaticPage struct {
	Name     string
	Path     string
	Title    string
	Metadata map[string]any
	Body     template.HTML
}

// LoadStaticPage reads dir/{name}.{lang}.md, falling back to dir/{name}.md.
func LoadStaticPage(dir, name, lang string, r BodyRenderer) (*StaticPage, error) {
	candidates := []string{
		filepath.Join(dir, name+"."+lang+".md"),
		filepath.Join(dir, name+".md"),
	}
	for _, path := range candidates {
		// #nosec G304 -- page names come from configuration
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read page").
				WithContext("path", path).Build()
		}
		doc, err := frontmatter.Parse(data)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryContent, "parse page").
				WithContext("path", path).Build()
		}
		html, err := r.Render(doc.Body)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "render page").
				WithContext("path", path).Build()
		}
		return &StaticPage{
			Name:     name,
			Path:     path,
			Title:    metaString(doc.Metadata, "title"),
			Metadata: doc.Metadata,
			Body:     template.HTML(html), //nolint:gosec // produced by the markdown renderer
		}, nil
	}
	return nil, ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, "page not found").
		WithContext("page", name).
		WithContext("lang", lang).Build()
}
