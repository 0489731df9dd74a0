// Package handlers provides the HTTP handlers of the site: home, section
// listings, item details, static pages, 404s and health.
package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
	"git.home.luguber.info/inful/scholarsite/internal/site"
)

// Collections resolves a section name to its collection.
type Collections interface {
	Collection(section string) (*content.Collection, bool)
}

// listPolicy captures per-section listing behaviour.
type listPolicy struct {
	limit       int
	groupByYear bool
	categories  bool
}

var listPolicies = map[string]listPolicy{
	content.SectionBlog:         {limit: 10},
	content.SectionNews:         {limit: 20, categories: true},
	content.SectionPublications: {groupByYear: true},
}

// SiteHandlers renders the HTML pages.
type SiteHandlers struct {
	collections  Collections
	renderer     *site.Renderer
	pagesDir     string
	markdown     content.BodyRenderer
	errorAdapter *ferrors.HTTPErrorAdapter
	logger       *slog.Logger
}

// NewSiteHandlers wires the page handlers.
func NewSiteHandlers(collections Collections, renderer *site.Renderer, pagesDir string, md content.BodyRenderer, logger *slog.Logger) *SiteHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteHandlers{
		collections:  collections,
		renderer:     renderer,
		pagesDir:     pagesDir,
		markdown:     md,
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
		logger:       logger,
	}
}

// Home serves the landing page in lang.
func (h *SiteHandlers) Home(lang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.renderer.NewPage(lang, r.URL.Path)
		var err error
		if p.Posts, err = h.list(r.Context(), content.SectionBlog, lang, 3); err != nil {
			h.writeError(w, r, err)
			return
		}
		if p.News, err = h.list(r.Context(), content.SectionNews, lang, 3); err != nil {
			h.writeError(w, r, err)
			return
		}
		if p.Notebooks, err = h.list(r.Context(), content.SectionNotebooks, lang, 2); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, site.KindHome, p)
	}
}

func (h *SiteHandlers) list(ctx context.Context, section, lang string, limit int) ([]*content.Item, error) {
	coll, ok := h.collections.Collection(section)
	if !ok {
		return nil, nil
	}
	return coll.List(ctx, lang, limit)
}

// Section serves the listing of section in lang, optionally filtered by
// ?tag= (and ?category= for news).
func (h *SiteHandlers) Section(lang, section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coll, ok := h.collections.Collection(section)
		if !ok {
			h.NotFound(w, r)
			return
		}
		ctx := r.Context()
		policy := listPolicies[section]
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))

		var items []*content.Item
		var err error
		if tag != "" {
			items, err = coll.ListByTag(ctx, tag, lang)
		} else {
			items, err = coll.List(ctx, lang, policy.limit)
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		p := h.renderer.NewPage(lang, r.URL.Path)
		p.Section = section
		p.Tag = tag
		if p.Tags, err = coll.Tags(ctx, lang); err != nil {
			h.writeError(w, r, err)
			return
		}
		if policy.categories {
			if p.Categories, err = coll.Categories(ctx, lang); err != nil {
				h.writeError(w, r, err)
				return
			}
			if cat := r.URL.Query().Get("category"); cat != "" {
				items = content.FilterField(items, "category", cat)
			}
		}
		p.Items = items
		if policy.groupByYear {
			p.Groups = content.GroupByYear(items, p.T("list.undated"))
		}
		h.render(w, r, http.StatusOK, site.KindList, p)
	}
}

// Detail serves one item. The ETag derives from the item fingerprint and
// the language, so unchanged content answers conditional requests with 304.
func (h *SiteHandlers) Detail(lang, section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coll, ok := h.collections.Collection(section)
		if !ok {
			h.NotFound(w, r)
			return
		}
		it, err := coll.Get(r.Context(), r.PathValue("slug"), lang)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		if it.Fingerprint != "" {
			etag := `"` + it.Fingerprint + "-" + lang + `"`
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", "no-cache")
			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		p := h.renderer.NewPage(lang, r.URL.Path)
		p.Section = section
		p.Item = it
		if p.Related, err = coll.Related(r.Context(), it, lang, 3); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, site.KindDetail, p)
	}
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// StaticPage serves pages/{name}.{lang}.md or pages/{name}.md.
func (h *SiteHandlers) StaticPage(lang, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, err := content.LoadStaticPage(h.pagesDir, name, lang, h.markdown)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p := h.renderer.NewPage(lang, r.URL.Path)
		p.Title = sp.Title
		if p.Title == "" {
			p.Title = p.T("nav." + name)
		}
		p.Body = sp.Body
		h.render(w, r, http.StatusOK, site.KindPage, p)
	}
}

// NotFound answers with the 404 template, or JSON for clients that ask for it.
func (h *SiteHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, ferrors.NotFoundError("page not found").
		WithContext("path", r.URL.Path).Build())
}

func (h *SiteHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := h.errorAdapter.StatusCodeFor(err)
	if status != http.StatusNotFound || wantsJSON(r) {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.errorAdapter.Log(r, err)
	lang := i18n.LanguageOf(r.URL.Path, h.renderer.Languages())
	if lang == "" {
		lang = h.renderer.DefaultLanguage()
	}
	h.render(w, r, http.StatusNotFound, site.KindNotFound, h.renderer.NewPage(lang, "/"))
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func (h *SiteHandlers) render(w http.ResponseWriter, r *http.Request, status int, kind string, p *site.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, kind, p); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("Failed writing response", "error", err)
	}
}
