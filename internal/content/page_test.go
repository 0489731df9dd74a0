package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/markdown"
)

func TestLoadStaticPage_LanguageFallback(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"about.md":    "---\ntitle: About\n---\nI study *brains*.\n",
		"about.fr.md": "---\ntitle: À propos\n---\nJ'étudie le cerveau.\n",
		"cv.md":       "No frontmatter here.\n",
	})
	md := markdown.New(markdown.Options{})

	fr, err := LoadStaticPage(dir, "about", "fr", md)
	require.NoError(t, err)
	require.Equal(t, "À propos", fr.Title)
	require.Contains(t, string(fr.Body), "J'étudie")

	bn, err := LoadStaticPage(dir, "about", "bn", md)
	require.NoError(t, err)
	require.Equal(t, "About", bn.Title)
	require.Contains(t, string(bn.Body), "<em>brains</em>")

	cv, err := LoadStaticPage(dir, "cv", "en", md)
	require.NoError(t, err)
	require.Empty(t, cv.Title)
	require.Contains(t, string(cv.Body), "No frontmatter here.")
}

func TestLoadStaticPage_Missing(t *testing.T) {
	_, err := LoadStaticPage(t.TempDir(), "contact", "en", markdown.New(markdown.Options{}))
	require.True(t, errors.Is(err, ErrNotFound))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}
