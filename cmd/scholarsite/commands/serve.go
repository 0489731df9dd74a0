package commands

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
	"git.home.luguber.info/inful/scholarsite/internal/server/handlers"
	"git.home.luguber.info/inful/scholarsite/internal/server/httpserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address, overriding server.addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	srv, err := newHTTPServer(cfg, g.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return srv.Run(ctx)
}

func newHTTPServer(cfg *config.Config, logger *slog.Logger) (*httpserver.Server, error) {
	app, err := newSiteApp(cfg, logger)
	if err != nil {
		return nil, err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	return httpserver.New(cfg, httpserver.Options{
		Sections:       app.catalog.Sections(),
		Site:           handlers.NewSiteHandlers(app.catalog, app.renderer, cfg.Content.PagesDir, app.catalog.Markdown(), logger),
		Recorder:       recorder,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	}), nil
}
