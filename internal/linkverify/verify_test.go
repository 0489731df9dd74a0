package linkverify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func TestCheckTree_AllResolve(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":               `<a href="/en/">en</a><link href="/static/site.css">`,
		"en/index.html":            `<a href="/en/blog">Blog</a><a href="https://example.org">out</a>`,
		"en/blog/index.html":       `<a href="/en/blog/hello">Hello</a><a href="/en/blog?tag=go">go</a>`,
		"en/blog/hello/index.html": `<a href="/en/blog">back</a><img src="/files/fig.png">`,
		"static/site.css":          `body{}`,
		"files/fig.png":            `png`,
	})

	broken, err := CheckTree(t.Context(), dir)
	require.NoError(t, err)
	require.Empty(t, broken)
}

func TestCheckTree_ReportsMissingTargets(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":         `<a href="/en/cv">CV</a><a href="/en/blog">Blog</a>`,
		"en/blog/index.html": `<script src="/static/missing.js"></script><a href="../../files/cv.pdf">cv</a>`,
	})

	broken, err := CheckTree(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, broken, 3)

	require.Equal(t, "/", broken[0].Page)
	require.Equal(t, "/en/cv", broken[0].Target)

	require.Equal(t, "/en/blog/", broken[1].Page)
	require.Equal(t, "/files/cv.pdf", broken[1].Target)
	require.Equal(t, "/en/blog/", broken[2].Page)
	require.Equal(t, "/static/missing.js", broken[2].Target)
	require.Equal(t, "script", broken[2].Link.Tag)
}

func TestCheckTree_MissingDir(t *testing.T) {
	_, err := CheckTree(t.Context(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
