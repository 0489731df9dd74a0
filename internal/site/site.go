// Package site renders the HTML pages of the academic site.
//
// Templates are embedded and parsed once per page kind. A templates
// directory can override any embedded file by name; files it does not
// provide fall back to the embedded copies.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
)

//go:embed templates/*.html
var embedded embed.FS

// Page kinds, one template set each.
const (
	KindHome     = "home"
	KindList     = "list"
	KindDetail   = "detail"
	KindPage     = "page"
	KindNotFound = "404"
)

var kinds = []string{KindHome, KindList, KindDetail, KindPage, KindNotFound}

// Options configures a Renderer.
type Options struct {
	Title           string
	Author          string
	Languages       []string
	DefaultLanguage string
	// Nav lists the top-level navigation entries: sections and static pages.
	Nav          []string
	TemplatesDir string
	Catalog      *i18n.Catalog
}

// Renderer executes the site templates.
type Renderer struct {
	opts      Options
	templates map[string]*template.Template
}

// New parses all templates. Parse errors are reported here rather than on
// the first request.
func New(opts Options) (*Renderer, error) {
	if opts.Catalog == nil {
		opts.Catalog = i18n.NewCatalog(opts.DefaultLanguage, opts.Languages, nil)
	}
	var fsys fs.FS
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	fsys = sub
	if opts.TemplatesDir != "" {
		fsys = overlayFS{upper: os.DirFS(opts.TemplatesDir), lower: sub}
	}

	r := &Renderer{opts: opts, templates: make(map[string]*template.Template, len(kinds))}
	for _, kind := range kinds {
		tmpl, err := template.New(kind).Funcs(funcs()).ParseFS(fsys, "layout.html", "partials.html", kind+".html")
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse templates").
				WithContext("kind", kind).
				WithContext("templates_dir", opts.TemplatesDir).Fatal().Build()
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"itemURL":    ItemURL,
		"sectionURL": SectionURL,
		"tagURL":     TagURL,
		"citation":   content.Citation,
		"join":       strings.Join,
	}
}

// ItemURL is the detail page of it in lang.
func ItemURL(lang string, it *content.Item) string {
	return "/" + lang + "/" + it.Section + "/" + url.PathEscape(it.Slug())
}

// SectionURL is the listing page of section in lang.
func SectionURL(lang, section string) string {
	return "/" + lang + "/" + section
}

// TagURL is the listing of section filtered by tag.
func TagURL(lang, section, tag string) string {
	return SectionURL(lang, section) + "?tag=" + url.QueryEscape(tag)
}

// Render executes the template set for kind into w. Output is buffered so a
// failing template never produces a partial page.
func (r *Renderer) Render(w io.Writer, kind string, p *Page) error {
	tmpl, ok := r.templates[kind]
	if !ok {
		return ferrors.InternalError(fmt.Sprintf("unknown page kind %q", kind)).Build()
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "failed to render page").
			WithContext("kind", kind).
			WithContext("path", p.Path).Build()
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderNotFound writes the 404 page in the default language. It needs no
// request, so the exporter can write 404.html directly.
func (r *Renderer) RenderNotFound(w io.Writer) error {
	return r.Render(w, KindNotFound, r.NewPage(r.opts.DefaultLanguage, "/"))
}

// Languages returns the supported languages.
func (r *Renderer) Languages() []string { return r.opts.Languages }

// DefaultLanguage returns the default language.
func (r *Renderer) DefaultLanguage() string { return r.opts.DefaultLanguage }

type overlayFS struct {
	upper fs.FS
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if err == nil {
		return f, nil
	}
	return o.lower.Open(name)
}
