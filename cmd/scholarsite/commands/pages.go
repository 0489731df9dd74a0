package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"git.home.luguber.info/inful/scholarsite/internal/export"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct{}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	app, err := newSiteApp(cfg, g.Logger)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	pages, err := discoverPages(ctx, app, g.Logger)
	if err != nil {
		return err
	}
	return printPages(os.Stdout, pages)
}

func printPages(w io.Writer, pages []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tFILE")
	for _, p := range pages {
		page, err := export.NewPage(p)
		if err != nil {
			page = export.Page{URLPath: p, OutputPath: "(" + err.Error() + ")"}
		}
		fmt.Fprintf(tw, "%s\t%s\n", page.URLPath, filepath.ToSlash(page.OutputPath))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d pages\n", len(pages))
	return err
}
