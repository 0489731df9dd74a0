// Package commands implements the scholarsite subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/scholarsite/internal/catalog"
	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
	"git.home.luguber.info/inful/scholarsite/internal/site"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"scholarsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve      ServeCmd   `cmd:"" help:"Run the site server"`
	Export     ExportCmd  `cmd:"" help:"Export the site to a static directory"`
	List       ListCmd    `cmd:"" help:"List the items of a content section"`
	Pages      PagesCmd   `cmd:"" help:"Print the pages an export would fetch"`
	History    HistoryCmd `cmd:"" help:"Show recent export runs"`
	Init       InitCmd    `cmd:"" help:"Write a starter configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// logLevel is adjusted after the configuration is loaded.
var logLevel slog.LevelVar

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	if c.Verbose {
		logLevel.Set(slog.LevelDebug)
	} else if v := os.Getenv(config.EnvLogLevel); v != "" {
		logLevel.Set(config.NormalizeLogLevel(v).SlogLevel())
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration and applies its log level unless
// --verbose was given.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if !c.Verbose {
		logLevel.Set(cfg.Logging.Level.SlogLevel())
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// siteApp bundles the content catalog and the page renderer built from one
// configuration.
type siteApp struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	renderer *site.Renderer
}

func newSiteApp(cfg *config.Config, logger *slog.Logger) (*siteApp, error) {
	cat := catalog.New(cfg, logger)
	locales, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.DefaultLanguage, cfg.Site.Languages)
	if err != nil {
		return nil, err
	}
	renderer, err := site.New(site.Options{
		Title:           cfg.Site.Title,
		Author:          cfg.Site.Author,
		Languages:       cfg.Site.Languages,
		DefaultLanguage: cfg.Site.DefaultLanguage,
		Nav:             append(cat.Sections(), cfg.Site.Pages...),
		TemplatesDir:    cfg.Site.TemplatesDir,
		Catalog:         locales,
	})
	if err != nil {
		return nil, err
	}
	return &siteApp{cfg: cfg, catalog: cat, renderer: renderer}, nil
}
