package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
	"git.home.luguber.info/inful/scholarsite/internal/site"
)

type plainRenderer struct{}

func (plainRenderer) Render(body []byte) (string, error) { return "<p>" + string(body) + "</p>", nil }

type testCollections map[string]*content.Collection

func (c testCollections) Collection(section string) (*content.Collection, bool) {
	coll, ok := c[section]
	return coll, ok
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func newTestHandlers(t *testing.T) *SiteHandlers {
	t.Helper()
	root := t.TempDir()
	langs := []string{"en", "fr"}

	writeFiles(t, filepath.Join(root, "blog"), map[string]string{
		"first.md":  "---\ntitle: First Post\ndate: 2024-01-10\ntags: [neuro, vision]\nlang: [en, fr]\n---\nHello brains.\n",
		"second.md": "---\ntitle: Second Post\ndate: 2024-02-10\ntags: [vision]\n---\nMore.\n",
		"third.md":  "---\ntitle: Third Post\ndate: 2024-03-10\ntags: [cooking]\n---\nSoup.\n",
	})
	writeFiles(t, filepath.Join(root, "news"), map[string]string{
		"award.md": "---\ntitle: Award\ndate: 2024-04-01\ncategory: award\n---\nWon.\n",
		"talk.md":  "---\ntitle: Invited\ndate: 2024-04-02\ncategory: talk\n---\nSpoke.\n",
	})
	writeFiles(t, filepath.Join(root, "pages"), map[string]string{
		"about.md":    "---\ntitle: About me\n---\nI study brains.\n",
		"about.fr.md": "---\ntitle: À propos\n---\nJ'étudie.\n",
		"contact.md":  "Mail me.\n",
	})

	opts := content.WithDefaultLanguage("en")
	colls := testCollections{
		content.SectionBlog: content.NewCollection(content.BlogSchema("Ada"), filepath.Join(root, "blog"), content.MarkdownParser{Renderer: plainRenderer{}}, opts),
		content.SectionNews: content.NewCollection(content.NewsSchema(), filepath.Join(root, "news"), content.MarkdownParser{Renderer: plainRenderer{}}, opts),
	}

	cat, err := i18n.Load("", "en", langs)
	require.NoError(t, err)
	r, err := site.New(site.Options{
		Title:           "Test Site",
		Author:          "Ada",
		Languages:       langs,
		DefaultLanguage: "en",
		Nav:             []string{"blog", "news", "about"},
		Catalog:         cat,
	})
	require.NoError(t, err)
	return NewSiteHandlers(colls, r, filepath.Join(root, "pages"), plainRenderer{}, nil)
}

func serve(h http.HandlerFunc, method, target string, pattern string, header http.Header) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Home("en"), http.MethodGet, "/en/", "GET /en/{$}", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.Contains(t, body, "Third Post")
	require.Contains(t, body, "Award")
	require.Less(t, strings.Index(body, "Third Post"), strings.Index(body, "First Post"))
}

func TestHome_OtherLanguageOnlyShowsTranslatedItems(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Home("fr"), http.MethodGet, "/fr/", "GET /fr/{$}", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "First Post")
	require.NotContains(t, body, "Second Post")
}

func TestSection_TagFilter(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Section("en", content.SectionBlog), http.MethodGet, "/en/blog?tag=vision", "GET /en/blog", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "First Post")
	require.Contains(t, body, "Second Post")
	require.NotContains(t, body, "Third Post")
}

func TestSection_NewsCategory(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Section("en", content.SectionNews), http.MethodGet, "/en/news?category=award", "GET /en/news", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Award")
	require.NotContains(t, rec.Body.String(), "Invited")
}

func TestSection_UnknownCollection(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Section("en", "podcasts"), http.MethodGet, "/en/podcasts", "GET /en/podcasts", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetail_ETag(t *testing.T) {
	h := newTestHandlers(t)
	handler := h.Detail("en", content.SectionBlog)
	pattern := "GET /en/blog/{slug}"

	rec := serve(handler, http.MethodGet, "/en/blog/first", pattern, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Hello brains.")
	require.Contains(t, rec.Body.String(), "Second Post", "related by shared tag")

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.True(t, strings.HasSuffix(etag, `-en"`))

	rec = serve(handler, http.MethodGet, "/en/blog/first", pattern, http.Header{"If-None-Match": {etag}})
	require.Equal(t, http.StatusNotModified, rec.Code)
	require.Empty(t, rec.Body.String())

	fr := serve(h.Detail("fr", content.SectionBlog), http.MethodGet, "/fr/blog/first", "GET /fr/blog/{slug}", nil)
	require.Equal(t, http.StatusOK, fr.Code)
	require.NotEqual(t, etag, fr.Header().Get("ETag"))
}

func TestDetail_MissingAndUntranslated(t *testing.T) {
	h := newTestHandlers(t)

	rec := serve(h.Detail("en", content.SectionBlog), http.MethodGet, "/en/blog/nope", "GET /en/blog/{slug}", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")

	rec = serve(h.Detail("fr", content.SectionBlog), http.MethodGet, "/fr/blog/second", "GET /fr/blog/{slug}", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFound_JSON(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.NotFound, http.MethodGet, "/nowhere", "/", http.Header{"Accept": {"application/json"}})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
}

func TestNotFound_UsesPathLanguage(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.NotFound, http.MethodGet, "/fr/nowhere", "/", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `href="/fr/"`)
}

func TestStaticPage(t *testing.T) {
	h := newTestHandlers(t)

	rec := serve(h.StaticPage("fr", "about"), http.MethodGet, "/fr/about", "GET /fr/about", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "J'étudie.")

	rec = serve(h.StaticPage("fr", "contact"), http.MethodGet, "/fr/contact", "GET /fr/contact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Mail me.")
	require.Contains(t, rec.Body.String(), "<h1>Contact</h1>")

	rec = serve(h.StaticPage("en", "cv"), http.MethodGet, "/en/cv", "GET /en/cv", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRender_HeadHasNoBody(t *testing.T) {
	h := newTestHandlers(t)
	rec := serve(h.Home("en"), http.MethodHead, "/en/", "/en/{$}", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	m := NewMonitoringHandlers(nil)
	rec := httptest.NewRecorder()
	m.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["version"])
}
