package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scholarsite/internal/config"
)

func TestNew_AllSectionsWired(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Content.Root = root

	c := New(cfg, nil)
	require.Equal(t, []string{"blog", "notebooks", "publications", "talks", "teaching", "news"}, c.Sections())

	blog, ok := c.Collection("blog")
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "blog"), blog.Dir())

	_, ok = c.Collection("gallery")
	require.False(t, ok)
}

func TestNew_ReadsNotebooksAndMarkdown(t *testing.T) {
	root := t.TempDir()
	for dir, file := range map[string]string{"blog": "hello.md", "notebooks": "nb.ipynb"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o750))
		body := "---\ntitle: Hello\n---\nhi\n"
		if dir == "notebooks" {
			body = `{"cells":[{"cell_type":"markdown","source":"# NB"}],"metadata":{}}`
		}
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, file), []byte(body), 0o600))
	}
	cfg := config.Default()
	cfg.Content.Root = root
	c := New(cfg, nil)

	for section, title := range map[string]string{"blog": "Hello", "notebooks": "NB"} {
		coll, _ := c.Collection(section)
		items, err := coll.List(t.Context(), "en", 0)
		require.NoError(t, err)
		require.Len(t, items, 1, section)
		require.Equal(t, title, items[0].Title())
	}
}
