package commands

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/history"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Content.Root = filepath.Join(root, "content")
	cfg.Content.PagesDir = filepath.Join(root, "content", "pages")
	cfg.Content.StaticDir = filepath.Join(root, "static")
	cfg.Content.FilesDir = filepath.Join(root, "files")
	cfg.Site.LocalesDir = filepath.Join(root, "locales")
	cfg.Export.OutputDir = filepath.Join(root, "dist")
	cfg.Export.Delay = time.Millisecond
	cfg.History.Path = filepath.Join(root, "state", "history.db")

	write(t, filepath.Join(cfg.Content.Root, "blog", "hello.md"), "---\ntitle: Hello\ndate: 2024-01-01\ntags: [vision]\n---\nHi.\n")
	write(t, filepath.Join(cfg.Content.Root, "talks", "keynote.md"), "---\ntitle: Keynote\ndate: 2023-05-01\nlang: fr\n---\nBonjour.\n")
	write(t, filepath.Join(cfg.Content.Root, "notebooks", "nb.ipynb"), `{"cells":[],"metadata":{"custom":{"title":"Lab"}},"nbformat":4,"nbformat_minor":5}`)
	for _, p := range cfg.Site.Pages {
		write(t, filepath.Join(cfg.Content.PagesDir, p+".md"), "---\ntitle: "+p+"\n---\nText.\n")
	}
	write(t, filepath.Join(cfg.Content.StaticDir, "css", "site.css"), "body{}")
	write(t, filepath.Join(cfg.Content.FilesDir, "cv.pdf"), "%PDF")
	return cfg
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestListenAddr(t *testing.T) {
	require.Equal(t, ":8000", listenAddr("http://localhost:8000"))
	require.Equal(t, ":80", listenAddr("http://example.org"))
	require.Equal(t, ":443", listenAddr("https://example.org/"))
}

func TestServerCommand(t *testing.T) {
	cfg := config.Default()
	cmd := serverCommand(cfg, "/etc/site.yaml")
	require.Equal(t, []string{"--config", "/etc/site.yaml", "serve", "--addr", ":8000"}, cmd[1:])

	cfg.Export.ServerCommand = []string{"python", "app.py"}
	require.Equal(t, []string{"python", "app.py"}, serverCommand(cfg, "x"))
}

func TestCLIParses(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	_, err = parser.Parse([]string{"export", "--no-server", "--every", "1h", "--watch", "-o", "out"})
	require.NoError(t, err)
	require.True(t, cli.Export.NoServer)
	require.Equal(t, time.Hour, cli.Export.Every)
	require.Equal(t, "out", cli.Export.Output)

	_, err = parser.Parse([]string{"list", "blog", "-l", "fr", "-n", "3"})
	require.NoError(t, err)
	require.Equal(t, "blog", cli.List.Section)
	require.Equal(t, 3, cli.List.Limit)

	_, err = parser.Parse([]string{"history"})
	require.NoError(t, err)
	require.Equal(t, 10, cli.History.Limit)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	(&ExportCmd{Output: "public", BaseURL: "http://127.0.0.1:9000", FollowLinks: true}).applyOverrides(cfg)
	require.Equal(t, "public", cfg.Export.OutputDir)
	require.Equal(t, "http://127.0.0.1:9000", cfg.Export.BaseURL)
	require.True(t, cfg.Export.FollowLinks)
}

func TestExportRunner_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	logger := discard()

	srv, err := newHTTPServer(cfg, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	cfg.Export.BaseURL = ts.URL

	runner, err := newExportRunner(cfg, &ExportCmd{NoServer: true}, logger)
	require.NoError(t, err)
	defer runner.Close()

	sum, err := runner.Run(t.Context())
	require.NoError(t, err)
	require.Zero(t, sum.Failed, "%v", sum.Failures())
	require.Equal(t, "success", sum.Outcome())

	out := cfg.Export.OutputDir
	for _, rel := range []string{
		"index.html",
		"en/index.html",
		"fr/about/index.html",
		"en/blog/hello/index.html",
		"fr/talks/keynote/index.html",
		"en/notebooks/nb/index.html",
		"static/css/site.css",
		"static/notebooks/nb.ipynb",
		"files/cv.pdf",
		"404.html",
		".nojekyll",
		"blog/index.html",
	} {
		require.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)))
	}
	require.NoFileExists(t, filepath.Join(out, "en", "talks", "keynote", "index.html"))

	redirect, err := os.ReadFile(filepath.Join(out, "blog", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(redirect), "/en/blog")

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	runs, err := store.List(t.Context(), 0)
	require.NoError(t, store.Close())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, sum.RunID, runs[0].ID)
}

func TestExportRunner_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Path = ""
	logger := discard()

	srv, err := newHTTPServer(cfg, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	cfg.Export.BaseURL = ts.URL

	runner, err := newExportRunner(cfg, &ExportCmd{NoServer: true}, logger)
	require.NoError(t, err)
	defer runner.Close()

	snapshot := func() map[string]string {
		files := map[string]string{}
		require.NoError(t, filepath.Walk(cfg.Export.OutputDir, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			b, err := os.ReadFile(p)
			files[p] = string(b)
			return err
		}))
		return files
	}

	_, err = runner.Run(t.Context())
	require.NoError(t, err)
	first := snapshot()
	_, err = runner.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, first, snapshot())
}

func TestPrintPages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPages(&buf, []string{"/", "/en/blog", "/static/app.js"}))
	out := buf.String()
	require.Contains(t, out, "en/blog/index.html")
	require.Contains(t, out, "static/app.js")
	require.Contains(t, out, "3 pages")
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, printRun(&buf, history.Run{
		ID: "r1", StartedAt: start, FinishedAt: start.Add(2 * time.Second), Outcome: "partial",
		Succeeded: 3, Failed: 1, Failures: []history.Failure{{URLPath: "/en/cv", Status: 404, Error: "not found"}},
	}))
	require.Contains(t, buf.String(), "2024-05-01T12:00:00Z")
	require.Contains(t, buf.String(), "/en/cv")
	require.Contains(t, buf.String(), "partial")
}

func TestExportRunner_CheckLinks(t *testing.T) {
	cfg := testConfig(t)
	out := cfg.Export.OutputDir
	require.NoError(t, os.MkdirAll(filepath.Join(out, "en"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte(`<a href="/en/">en</a><a href="/en/gone">x</a>`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "en", "index.html"), []byte(`<a href="/">home</a>`), 0o600))

	r := &exportRunner{cfg: cfg, opts: &ExportCmd{}, logger: discard()}
	n, err := r.checkLinks(t.Context())
	require.NoError(t, err)
	require.Zero(t, n, "disabled by default")

	r.opts.CheckLinks = true
	n, err = r.checkLinks(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestPrintGroups(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.SectionDir("publications")
	write(t, filepath.Join(dir, "a.md"), "---\ntitle: Paper\ndate: 2022-01-01\n---\nAbstract.\n")
	write(t, filepath.Join(dir, "b.md"), "---\ntitle: Monograph\ndate: 2021-01-01\ntype: book\n---\nAbstract.\n")

	app, err := newSiteApp(cfg, discard())
	require.NoError(t, err)
	coll, ok := app.catalog.Collection("publications")
	require.True(t, ok)
	items, err := coll.List(t.Context(), "en", 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printGroups(&buf, content.GroupBy(items, "type")))
	out := buf.String()
	require.Contains(t, out, "== article (1)")
	require.Contains(t, out, "== book (1)")
	require.Less(t, strings.Index(out, "Paper"), strings.Index(out, "== book"))
}
