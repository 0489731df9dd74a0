package export

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// BasePages returns the fixed page list: the site root, then for each
// language its root and one entry per top-level page.
func BasePages(langs, pages []string) []string {
	out := []string{"/"}
	for _, lang := range langs {
		out = append(out, "/"+lang+"/")
		for _, p := range pages {
			out = append(out, "/"+lang+"/"+p)
		}
	}
	return out
}

// Discover builds the canonical page list.
//
// Every item is enumerated under each language it declares, so the list
// never contains a detail page the server would answer with 404. A source
// that fails to list is reported in the returned error after the remaining
// sources are enumerated; the pages found so far are still returned.
func Discover(ctx context.Context, sources []content.Source, langs, pages []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range BasePages(langs, pages) {
		add(p)
	}

	var errs []error
	for _, src := range sources {
		for _, lang := range langs {
			items, err := src.List(ctx, lang, 0)
			if err != nil {
				errs = append(errs, ferrors.WrapError(err, ferrors.CategoryContent, "failed to enumerate content").
					WithContext("section", src.Section()).
					WithContext("lang", lang).Build())
				continue
			}
			for _, it := range items {
				add("/" + lang + "/" + src.Section() + "/" + it.Slug())
			}
		}
	}
	if len(errs) > 0 {
		return out, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryContent, "page discovery incomplete").
			WithContext("failures", len(errs)).Build()
	}
	return out, nil
}
