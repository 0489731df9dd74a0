package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Section string `arg:"" help:"Content section (blog, notebooks, publications, talks, teaching, news)"`
	Lang    string `short:"l" help:"Language; defaults to site.default_language"`
	Tag     string `short:"t" help:"Only items carrying this tag"`
	Limit   int    `short:"n" help:"Maximum number of items (0 for all)"`
	Days    int    `help:"Only items dated within the last N days"`
	GroupBy string `name:"group-by" help:"Group the output by a field (e.g. type, category)"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	lang := l.Lang
	if lang == "" {
		lang = cfg.Site.DefaultLanguage
	}
	if !cfg.SupportsLanguage(lang) {
		return ferrors.ValidationError(fmt.Sprintf("unsupported language %q", lang)).Build()
	}
	app, err := newSiteApp(cfg, g.Logger)
	if err != nil {
		return err
	}
	coll, ok := app.catalog.Collection(l.Section)
	if !ok {
		return ferrors.ValidationError(fmt.Sprintf("unknown section %q", l.Section)).
			WithContext("sections", app.catalog.Sections()).Build()
	}

	ctx, cancel := signalContext()
	defer cancel()

	var items []*content.Item
	switch {
	case l.Days > 0:
		items, err = coll.Recent(ctx, lang, l.Days, l.Limit, time.Now())
	case l.Tag != "":
		items, err = coll.ListByTag(ctx, l.Tag, lang)
		if err == nil && l.Limit > 0 && len(items) > l.Limit {
			items = items[:l.Limit]
		}
	default:
		items, err = coll.List(ctx, lang, l.Limit)
	}
	if err != nil {
		return err
	}
	if l.GroupBy != "" {
		return printGroups(os.Stdout, content.GroupBy(items, l.GroupBy))
	}
	return printItems(os.Stdout, items)
}

func printGroups(w io.Writer, groups []content.Group) error {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s (%d)\n", g.Label, len(g.Items))
		if err := printItems(w, g.Items); err != nil {
			return err
		}
	}
	return nil
}

func printItems(w io.Writer, items []*content.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tDATE\tTITLE\tTAGS")
	for _, it := range items {
		date := it.DateString()
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", it.Slug(), date, it.Title(), it.Tags())
	}
	return tw.Flush()
}
