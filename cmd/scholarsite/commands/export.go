package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/events"
	"git.home.luguber.info/inful/scholarsite/internal/export"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/gitinfo"
	"git.home.luguber.info/inful/scholarsite/internal/history"
	"git.home.luguber.info/inful/scholarsite/internal/linkverify"
	"git.home.luguber.info/inful/scholarsite/internal/logfields"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
	"git.home.luguber.info/inful/scholarsite/internal/publish"
	"git.home.luguber.info/inful/scholarsite/internal/schedule"
	"git.home.luguber.info/inful/scholarsite/internal/watch"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output      string        `short:"o" help:"Output directory, overriding export.output_dir"`
	BaseURL     string        `name:"base-url" help:"Server base URL, overriding export.base_url"`
	FollowLinks bool          `name:"follow-links" help:"Also export same-site pages linked from fetched pages"`
	NoServer    bool          `name:"no-server" help:"Never launch a server; export from one already running at the base URL"`
	Watch       bool          `help:"Re-export when content changes"`
	Every       time.Duration `help:"Re-export on this interval (e.g. 1h)"`
	Publish     bool          `help:"Upload the tree to the configured S3 bucket after a successful run"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve export metrics on this address while running"`
	CheckLinks  bool          `name:"check-links" help:"Report same-site links that do not resolve inside the exported tree"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	e.applyOverrides(cfg)
	if e.Publish && !cfg.Publish.S3.Enabled() {
		return ferrors.ConfigError("--publish requires publish.s3.bucket").Build()
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, err := newExportRunner(cfg, e, g.Logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	if !e.NoServer {
		proc := export.NewServerProcess(cfg.Export.BaseURL, serverCommand(cfg, root.Config), cfg.Export.StartupTimeout, g.Logger)
		defer func() {
			if err := proc.Stop(); err != nil {
				g.Logger.Warn("Failed to stop server", logfields.Error(err))
			}
		}()
		if err := proc.Start(ctx); err != nil {
			return err
		}
		if !proc.Owned() {
			g.Logger.Warn("Exporting from a server this command did not start; it may not use this configuration",
				logfields.URL(cfg.Export.BaseURL))
		}
	}

	if _, err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "export interrupted").Build()
		}
		return err
	}
	if !e.Watch && e.Every <= 0 {
		return nil
	}

	grp, gctx := errgroup.WithContext(ctx)
	if e.MetricsAddr != "" {
		grp.Go(func() error { return serveMetrics(gctx, e.MetricsAddr, runner.registryHandler, g.Logger) })
	}
	if e.Watch {
		w := &watch.Watcher{
			Dirs:     watchDirs(cfg),
			Debounce: cfg.Export.WatchDebounce,
			Logger:   g.Logger,
			OnChange: func(ctx context.Context, changed []string) {
				g.Logger.Info("Content changed, re-exporting", logfields.Count(len(changed)))
				runner.RunLogged(ctx)
			},
		}
		grp.Go(func() error { return w.Run(gctx) })
	}
	if e.Every > 0 {
		sched, err := schedule.New(g.Logger)
		if err != nil {
			return err
		}
		if _, err := sched.Every(e.Every, "export", false, func() { runner.RunLogged(gctx) }); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid --every interval").Build()
		}
		grp.Go(func() error { return sched.Run(gctx) })
	}
	return grp.Wait()
}

func (e *ExportCmd) applyOverrides(cfg *config.Config) {
	if e.Output != "" {
		cfg.Export.OutputDir = e.Output
	}
	if e.BaseURL != "" {
		cfg.Export.BaseURL = e.BaseURL
	}
	if e.FollowLinks {
		cfg.Export.FollowLinks = true
	}
}

// serverCommand is export.server_command, or this executable serving on the
// base URL's port.
func serverCommand(cfg *config.Config, configPath string) []string {
	if len(cfg.Export.ServerCommand) > 0 {
		return cfg.Export.ServerCommand
	}
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return []string{exe, "--config", configPath, "serve", "--addr", listenAddr(cfg.Export.BaseURL)}
}

func listenAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ":8000"
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return net.JoinHostPort("", port)
}

func watchDirs(cfg *config.Config) []string {
	return []string{cfg.Content.Root, cfg.Content.PagesDir, cfg.Content.StaticDir, cfg.Content.FilesDir}
}

// exportRunner performs export runs one at a time.
type exportRunner struct {
	app       *siteApp
	cfg       *config.Config
	opts      *ExportCmd
	logger    *slog.Logger
	recorder  metrics.Recorder
	publisher events.Publisher
	history   *history.Store
	s3        *publish.S3Publisher

	registryHandler http.Handler

	mu sync.Mutex
}

func newExportRunner(cfg *config.Config, opts *ExportCmd, logger *slog.Logger) (*exportRunner, error) {
	app, err := newSiteApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := metrics.NewRegistry()
	r := &exportRunner{
		app:             app,
		cfg:             cfg,
		opts:            opts,
		logger:          logger,
		recorder:        metrics.NewPrometheusRecorder(reg),
		publisher:       events.Noop{},
		registryHandler: metrics.HTTPHandler(reg),
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, err
		}
		r.publisher = pub
	}
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			_ = r.publisher.Close()
			return nil, err
		}
		r.history = store
	}
	if opts.Publish {
		r.s3 = publish.NewS3Publisher(cfg.Publish.S3, logger)
	}
	return r, nil
}

// Pages discovers the pages of one run. Enumeration failures are logged and
// the pages found are still returned.
func (r *exportRunner) Pages(ctx context.Context) ([]string, error) {
	return discoverPages(ctx, r.app, r.logger)
}

func discoverPages(ctx context.Context, app *siteApp, logger *slog.Logger) ([]string, error) {
	colls := app.catalog.Collections()
	sources := make([]content.Source, len(colls))
	for i, c := range colls {
		sources[i] = c
	}
	cfg := app.cfg
	static := append(append([]string(nil), cfg.Site.Pages...), app.catalog.Sections()...)
	pages, err := export.Discover(ctx, sources, cfg.Site.Languages, static)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("Some content could not be enumerated", logfields.Error(err))
	}
	return pages, nil
}

// Run performs one export. Only fatal setup errors and cancellation are
// returned; page failures are reported in the summary.
func (r *exportRunner) Run(ctx context.Context) (export.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pages, err := r.Pages(ctx)
	if err != nil {
		return export.Summary{}, err
	}

	commit := r.gitCommit()
	ex, err := export.New(export.Options{
		BaseURL:     r.cfg.Export.BaseURL,
		OutputDir:   r.cfg.Export.OutputDir,
		Timeout:     r.cfg.Export.Timeout,
		Delay:       r.cfg.Export.Delay,
		FollowLinks: r.cfg.Export.FollowLinks,
		CopyDirs: []export.CopyDir{
			{Src: r.cfg.Content.StaticDir, Dest: "static"},
			{Src: r.cfg.Content.FilesDir, Dest: "files"},
			{Src: r.cfg.SectionDir(content.SectionNotebooks), Dest: "static/notebooks"},
		},
		Redirects: redirects(r.cfg),
		GitCommit: commit,
	},
		export.WithLogger(r.logger),
		export.WithRecorder(r.recorder),
		export.WithPublisher(r.publisher),
		export.WithNotFoundRenderer(r.app.renderer),
	)
	if err != nil {
		return export.Summary{}, err
	}

	sum, err := ex.Export(ctx, pages)
	r.record(sum, commit)
	if err != nil {
		return sum, err
	}

	broken, err := r.checkLinks(ctx)
	if err != nil {
		return sum, err
	}

	if r.s3 != nil {
		if sum.Failed > 0 {
			r.logger.Warn("Skipping publish after a run with failures", "failed", sum.Failed)
		} else if broken > 0 {
			r.logger.Warn("Skipping publish after finding broken links", logfields.Count(broken))
		} else if _, err := r.s3.Publish(ctx, r.cfg.Export.OutputDir); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// checkLinks reports internal links of the exported tree that point at
// missing files and returns how many there are.
func (r *exportRunner) checkLinks(ctx context.Context) (int, error) {
	if !r.opts.CheckLinks {
		return 0, nil
	}
	broken, err := linkverify.CheckTree(ctx, r.cfg.Export.OutputDir)
	if err != nil {
		return 0, err
	}
	for _, b := range broken {
		r.logger.Warn("Broken link", "page", b.Page, "link", b.Link.URL, "tag", b.Link.Tag, "target", b.Target)
	}
	if len(broken) == 0 {
		r.logger.Info("All internal links resolve")
	}
	return len(broken), nil
}

// RunLogged runs an export and logs instead of returning errors, for the
// watch and schedule triggers.
func (r *exportRunner) RunLogged(ctx context.Context) {
	if _, err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("Export run failed", logfields.Error(err))
	}
}

func (r *exportRunner) gitCommit() string {
	info, err := gitinfo.Head(r.cfg.Content.Root)
	if err != nil {
		if !errors.Is(err, gitinfo.ErrNotRepository) {
			r.logger.Debug("Could not resolve content commit", logfields.Error(err))
		}
		return ""
	}
	return info.Short()
}

func (r *exportRunner) record(sum export.Summary, commit string) {
	if r.history == nil || sum.FinishedAt.IsZero() {
		return
	}
	// Recording must survive an interrupted run.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.history.Record(ctx, history.FromSummary(sum, commit)); err != nil {
		r.logger.Warn("Failed to record export history", logfields.RunID(sum.RunID), logfields.Error(err))
	}
}

// Close releases the event connection and the history database.
func (r *exportRunner) Close() {
	if err := r.publisher.Close(); err != nil {
		r.logger.Warn("Failed to close event publisher", logfields.Error(err))
	}
	if r.history != nil {
		if err := r.history.Close(); err != nil {
			r.logger.Warn("Failed to close history database", logfields.Error(err))
		}
	}
}

func redirects(cfg *config.Config) []export.Redirect {
	out := make([]export.Redirect, len(cfg.Export.Redirects))
	for i, r := range cfg.Export.Redirects {
		out[i] = export.Redirect{From: r.From, To: r.To}
	}
	return out
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("Serving export metrics", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
