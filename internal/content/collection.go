package content

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/scholarsite/internal/foundation"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/logfields"
)

// ErrNotFound is returned when no item matches a slug in a language.
var ErrNotFound = errors.New("content not found")

// Duplicate records a slug claimed by more than one file in a language.
// The file listed as Kept wins every lookup.
type Duplicate struct {
	Lang    string
	Slug    string
	Kept    string
	Ignored string
}

// Snapshot is the result of one directory scan.
type Snapshot struct {
	// Items are all parsed items in scan order (alphabetical by filename).
	Items []*Item
	// Skipped holds one error per file that could not be parsed.
	Skipped []error
	// Duplicates lists files whose slug was already taken in a language.
	Duplicates []Duplicate
}

// Collection is one content type backed by a directory.
type Collection struct {
	schema      *Schema
	dir         string
	parser      Parser
	defaultLang string
	logger      *slog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for skipped files and duplicates.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collection) { c.logger = l }
}

// WithDefaultLanguage sets the language of items without a lang field.
func WithDefaultLanguage(lang string) Option {
	return func(c *Collection) { c.defaultLang = lang }
}

// NewCollection creates a collection reading dir with parser.
func NewCollection(schema *Schema, dir string, parser Parser, opts ...Option) *Collection {
	c := &Collection{
		schema:      schema,
		dir:         dir,
		parser:      parser,
		defaultLang: "en",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Section returns the URL section of the collection.
func (c *Collection) Section() string { return c.schema.Section }

// Dir returns the directory the collection reads.
func (c *Collection) Dir() string { return c.dir }

// Load scans the directory and parses every matching file. A missing
// directory is an empty collection; an unreadable one is an error.
// Malformed files are logged and reported in Snapshot.Skipped.
func (c *Collection) Load(ctx context.Context) (*Snapshot, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("Content directory does not exist", logfields.Section(c.schema.Section), logfields.Path(c.dir))
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content directory").
			WithContext("section", c.schema.Section).WithContext("path", c.dir).Build()
	}

	// os.ReadDir sorts by filename, which fixes scan order.
	results := make([]foundation.Result[*Item], 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), c.schema.Extension) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		results = append(results, foundation.FromTuple(c.parseFile(filepath.Join(c.dir, e.Name()))))
	}

	items, skipped := foundation.Partition(results)
	for _, err := range skipped {
		c.logger.Warn("Skipping content file", logfields.Section(c.schema.Section), logfields.Error(err))
	}
	dups := FindDuplicates(items, languagesOf(items))
	for _, d := range dups {
		c.logger.Warn("Duplicate slug, keeping first file",
			logfields.Section(c.schema.Section), logfields.Slug(d.Slug), logfields.Lang(d.Lang),
			slog.String("kept", d.Kept), slog.String("ignored", d.Ignored))
	}
	return &Snapshot{Items: items, Skipped: skipped, Duplicates: dups}, nil
}

func (c *Collection) parseFile(path string) (*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "read content file").
			Warning().WithContext("path", path).Build()
	}
	parsed, err := c.parser.Parse(path, data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "parse content file").
			Warning().WithContext("path", path).Build()
	}
	meta := parsed.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	it := &Item{
		Section:      c.schema.Section,
		Path:         path,
		Metadata:     meta,
		RawBody:      parsed.RawBody,
		RenderedBody: parsed.Rendered,
		Fingerprint:  parsed.Fingerprint,
		languages:    ResolveLanguages(meta["lang"], c.defaultLang),
		schema:       c.schema,
	}
	it.date, it.hasDate = parseDate(meta["date"], c.schema.DateLayouts)
	return it, nil
}

// List returns the items published in lang, newest first. Undated items
// follow all dated ones; ties keep scan order. limit <= 0 means no limit.
func (c *Collection) List(ctx context.Context, lang string, limit int) ([]*Item, error) {
	snap, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	items := FilterLanguage(snap.Items, lang)
	SortByDate(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Get returns the item with slug in lang. When several files share the
// slug, the first in filename order wins.
func (c *Collection) Get(ctx context.Context, slug, lang string) (*Item, error) {
	snap, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range snap.Items {
		if it.HasLanguage(lang) && it.Slug() == slug {
			return it, nil
		}
	}
	return nil, ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, "content not found").
		WithContext("section", c.schema.Section).
		WithContext("slug", slug).
		WithContext("lang", lang).
		Build()
}

// ListByTag returns the items in lang carrying tag, newest first.
func (c *Collection) ListByTag(ctx context.Context, tag, lang string) ([]*Item, error) {
	items, err := c.List(ctx, lang, 0)
	if err != nil {
		return nil, err
	}
	out := items[:0:0]
	for _, it := range items {
		if it.HasTag(tag) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Tags returns the sorted set of tags used by items in lang.
func (c *Collection) Tags(ctx context.Context, lang string) ([]string, error) {
	items, err := c.List(ctx, lang, 0)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(items, func(it *Item) []string { return it.Tags() }), nil
}

// Categories returns the sorted set of category values in lang.
func (c *Collection) Categories(ctx context.Context, lang string) ([]string, error) {
	items, err := c.List(ctx, lang, 0)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(items, func(it *Item) []string { return []string{it.Str("category")} }), nil
}

// Related returns up to limit other items sharing one of the first two tags
// of it, in tag order then date order.
func (c *Collection) Related(ctx context.Context, it *Item, lang string, limit int) ([]*Item, error) {
	tags := it.Tags()
	if len(tags) > 2 {
		tags = tags[:2]
	}
	seen := map[string]bool{it.Slug(): true}
	var out []*Item
	for _, tag := range tags {
		matches, err := c.ListByTag(ctx, tag, lang)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m.Slug()] {
				continue
			}
			seen[m.Slug()] = true
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent returns up to limit items in lang dated within the last days
// relative to now. Undated items are never recent.
func (c *Collection) Recent(ctx context.Context, lang string, days, limit int, now time.Time) ([]*Item, error) {
	items, err := c.List(ctx, lang, 0)
	if err != nil {
		return nil, err
	}
	cutoff := now.AddDate(0, 0, -days)
	var out []*Item
	for _, it := range items {
		if d, ok := it.Date(); ok && !d.Before(cutoff) {
			out = append(out, it)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindDuplicates reports, per language, every item whose slug was already
// claimed by an earlier item in scan order.
func FindDuplicates(items []*Item, langs []string) []Duplicate {
	var dups []Duplicate
	for _, lang := range langs {
		owner := map[string]string{}
		for _, it := range items {
			if !it.HasLanguage(lang) {
				continue
			}
			slug := it.Slug()
			if kept, ok := owner[slug]; ok {
				dups = append(dups, Duplicate{Lang: lang, Slug: slug, Kept: kept, Ignored: it.Path})
				continue
			}
			owner[slug] = it.Path
		}
	}
	return dups
}

// FilterLanguage returns the items published in lang, preserving order.
func FilterLanguage(items []*Item, lang string) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if it.HasLanguage(lang) {
			out = append(out, it)
		}
	}
	return out
}

// SortByDate orders items newest first with undated items last. The sort
// is stable, so equal dates keep their existing order.
func SortByDate(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasDate != b.hasDate {
			return a.hasDate
		}
		return a.date.After(b.date)
	})
}

func languagesOf(items []*Item) []string {
	var langs []string
	seen := map[string]bool{}
	for _, it := range items {
		for _, l := range it.languages {
			if !seen[l] {
				seen[l] = true
				langs = append(langs, l)
			}
		}
	}
	sort.Strings(langs)
	return langs
}

func uniqueSorted(items []*Item, values func(*Item) []string) []string {
	set := map[string]struct{}{}
	for _, it := range items {
		for _, v := range values(it) {
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Source is the listing surface consumed by page discovery.
type Source interface {
	Section() string
	List(ctx context.Context, lang string, limit int) ([]*Item, error)
}
