// Package catalog wires the fixed set of content types to their directories
// and parsers.
package catalog

import (
	"log/slog"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/markdown"
	"git.home.luguber.info/inful/scholarsite/internal/notebook"
)

// Catalog holds one collection per content type, in navigation order.
type Catalog struct {
	collections []*content.Collection
	bySection   map[string]*content.Collection
	markdown    *markdown.Renderer
}

// New builds the catalog from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	md := markdown.New(markdown.Options{CodeStyle: cfg.Site.CodeStyle, Unsafe: cfg.Site.UnsafeHTML})
	mdParser := content.MarkdownParser{Renderer: md}
	nbParser := notebook.Parser{Renderer: &notebook.Renderer{Markdown: md, TrustHTML: cfg.Site.UnsafeHTML}}
	author := cfg.Site.Author

	type adapter struct {
		schema *content.Schema
		parser content.Parser
	}
	adapters := []adapter{
		{content.BlogSchema(author), mdParser},
		{content.NotebooksSchema(author), nbParser},
		{content.PublicationsSchema(author), mdParser},
		{content.TalksSchema(), mdParser},
		{content.TeachingSchema(), mdParser},
		{content.NewsSchema(), mdParser},
	}

	c := &Catalog{bySection: make(map[string]*content.Collection, len(adapters)), markdown: md}
	for _, a := range adapters {
		coll := content.NewCollection(a.schema, cfg.SectionDir(a.schema.Section), a.parser,
			content.WithDefaultLanguage(cfg.Site.DefaultLanguage),
			content.WithLogger(logger.With("section", a.schema.Section)),
		)
		c.collections = append(c.collections, coll)
		c.bySection[a.schema.Section] = coll
	}
	return c
}

// Collections returns every collection in navigation order.
func (c *Catalog) Collections() []*content.Collection {
	return c.collections
}

// Collection returns the collection serving section.
func (c *Catalog) Collection(section string) (*content.Collection, bool) {
	coll, ok := c.bySection[section]
	return coll, ok
}

// Sections returns the section names in navigation order.
func (c *Catalog) Sections() []string {
	out := make([]string, len(c.collections))
	for i, coll := range c.collections {
		out[i] = coll.Section()
	}
	return out
}

// Markdown returns the shared markdown renderer.
func (c *Catalog) Markdown() *markdown.Renderer {
	return c.markdown
}
