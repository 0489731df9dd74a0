package linkverify

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/export"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// BrokenLink is an internal link whose target is missing from the tree.
type BrokenLink struct {
	// Page is the site path of the page holding the link.
	Page   string
	Link   Link
	Target string
}

// CheckTree scans every HTML file under dir and returns the internal links
// that do not resolve to a file in dir, sorted by page then target.
func CheckTree(ctx context.Context, dir string) ([]BrokenLink, error) {
	var pages []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk site tree").
			WithContext("path", dir).Build()
	}

	exists := map[string]bool{}
	var broken []BrokenLink
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil, err
		}
		pageURL := &url.URL{Path: export.URLPath(rel)}
		links, err := ExtractLinks(p)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			target, ok := internalPath(pageURL, l.URL)
			if !ok {
				continue
			}
			found, seen := exists[target]
			if !seen {
				found = resolves(dir, target)
				exists[target] = found
			}
			if !found {
				broken = append(broken, BrokenLink{Page: pageURL.Path, Link: l, Target: target})
			}
		}
	}
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].Target < broken[j].Target
	})
	return broken, nil
}

// resolves reports whether target maps to an existing file, using the same
// path mapping as the exporter.
func resolves(dir, target string) bool {
	rel, err := export.OutputPath(target)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, rel))
	return err == nil && !info.IsDir()
}
