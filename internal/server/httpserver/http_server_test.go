package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/scholarsite/internal/catalog"
	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
	"git.home.luguber.info/inful/scholarsite/internal/server/handlers"
	"git.home.luguber.info/inful/scholarsite/internal/site"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func newTestServer(t *testing.T, rec metrics.Recorder) (*Server, *config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Content.Root = filepath.Join(root, "content")
	cfg.Content.PagesDir = filepath.Join(root, "content", "pages")
	cfg.Content.StaticDir = filepath.Join(root, "static")
	cfg.Content.FilesDir = filepath.Join(root, "files")

	write(t, filepath.Join(cfg.Content.Root, "blog", "hello.md"), "---\ntitle: Hello\ndate: 2024-01-01\nlang: [en, fr]\n---\nHi.\n")
	write(t, filepath.Join(cfg.Content.Root, "notebooks", "nb.ipynb"), `{"cells":[],"metadata":{"custom":{"title":"Lab Notebook","date":"2024-02-01"}},"nbformat":4,"nbformat_minor":5}`)
	write(t, filepath.Join(cfg.Content.PagesDir, "about.md"), "---\ntitle: About\n---\nAbout me.\n")
	write(t, filepath.Join(cfg.Content.StaticDir, "css", "site.css"), "body{}")
	write(t, filepath.Join(cfg.Content.FilesDir, "cv.pdf"), "%PDF")

	cat := catalog.New(cfg, nil)
	msgs, err := i18n.Load("", cfg.Site.DefaultLanguage, cfg.Site.Languages)
	require.NoError(t, err)
	r, err := site.New(site.Options{
		Title:           cfg.Site.Title,
		Languages:       cfg.Site.Languages,
		DefaultLanguage: cfg.Site.DefaultLanguage,
		Nav:             append(cat.Sections(), cfg.Site.Pages...),
		Catalog:         msgs,
	})
	require.NoError(t, err)

	srv := New(cfg, Options{
		Sections: cat.Sections(),
		Site:     handlers.NewSiteHandlers(cat, r, cfg.Content.PagesDir, cat.Markdown(), nil),
		Recorder: rec,
	})
	return srv, cfg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	cases := []struct {
		target string
		status int
		want   string
	}{
		{"/", http.StatusOK, "Hello"},
		{"/en/", http.StatusOK, "Hello"},
		{"/en", http.StatusOK, "Hello"},
		{"/fr/", http.StatusOK, "Hello"},
		{"/en/blog", http.StatusOK, "Hello"},
		{"/blog", http.StatusOK, "Hello"},
		{"/en/blog/hello", http.StatusOK, "Hi."},
		{"/fr/blog/hello", http.StatusOK, "Hi."},
		{"/bn/blog/hello", http.StatusNotFound, ""},
		{"/en/notebooks", http.StatusOK, "Lab Notebook"},
		{"/en/about", http.StatusOK, "About me."},
		{"/en/cv", http.StatusNotFound, ""},
		{"/de/", http.StatusNotFound, ""},
		{"/en/blog/hello/extra", http.StatusNotFound, ""},
		{"/static/css/site.css", http.StatusOK, "body{}"},
		{"/static/css/", http.StatusNotFound, ""},
		{"/static/notebooks/nb.ipynb", http.StatusOK, "nbformat"},
		{"/files/cv.pdf", http.StatusOK, "%PDF"},
		{"/healthz", http.StatusOK, `"status"`},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(t, h, tc.target)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.want != "" {
				require.Contains(t, rec.Body.String(), tc.want)
			}
		})
	}
}

func TestRoutes_MetricsOnlyWhenMounted(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/metrics").Code)
}

func TestRoutes_RecordsPattern(t *testing.T) {
	rec := &recordingRecorder{}
	srv, _ := newTestServer(t, rec)
	get(t, srv.Handler(), "/en/blog/hello")
	get(t, srv.Handler(), "/nope")
	require.Equal(t, []string{"GET /en/blog/{slug} 200", "/ 404"}, rec.requests)
}

func TestStartStop(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	require.NoError(t, srv.Start(t.Context()))
	require.Error(t, srv.Start(t.Context()))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "ok"))

	require.NoError(t, srv.Stop(t.Context()))
}

func TestStart_AddressInUse(t *testing.T) {
	first, _ := newTestServer(t, nil)
	require.NoError(t, first.Start(t.Context()))
	defer func() { require.NoError(t, first.Stop(t.Context())) }()

	second, _ := newTestServer(t, nil)
	second.cfg.Server.Addr = first.Addr().String()
	require.Error(t, second.Start(t.Context()))
}

type recordingRecorder struct {
	metrics.NoopRecorder
	requests []string
}

func (r *recordingRecorder) ObserveRequest(route string, status int, _ time.Duration) {
	r.requests = append(r.requests, route+" "+strconv.Itoa(status))
}
