package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/scholarsite/internal/events"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/logfields"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
)

// Options configures an Exporter.
type Options struct {
	BaseURL     string
	OutputDir   string
	Timeout     time.Duration
	Delay       time.Duration
	FollowLinks bool
	CopyDirs    []CopyDir
	Redirects   []Redirect
	// GitCommit is attached to events only, never to the output tree.
	GitCommit string
}

// PageResult is the outcome of one fetched page.
type PageResult struct {
	URLPath    string
	OutputPath string
	Status     int
	Bytes      int64
	Err        error
}

// OK reports whether the page was written.
func (r PageResult) OK() bool { return r.Err == nil }

// Summary is the tally of one export run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Results    []PageResult
}

// Pages returns the number of pages attempted.
func (s Summary) Pages() int { return len(s.Results) }

// Duration returns the wall time of the run.
func (s Summary) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

// Outcome is "success", "partial" when some pages failed, or "failed" when
// none succeeded.
func (s Summary) Outcome() string {
	switch {
	case s.Failed == 0:
		return "success"
	case s.Succeeded == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Failures returns the failed page results.
func (s Summary) Failures() []PageResult {
	var out []PageResult
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Exporter fetches pages from a running server and writes a static tree.
type Exporter struct {
	opts      Options
	base      *url.URL
	client    *http.Client
	logger    *slog.Logger
	recorder  metrics.Recorder
	publisher events.Publisher
	notFound  NotFoundRenderer
	newRunID  func() string
	now       func() time.Time
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger for run and page messages.
func WithLogger(l *slog.Logger) Option { return func(e *Exporter) { e.logger = l } }

// WithRecorder sets the metrics recorder; the default records nothing.
func WithRecorder(r metrics.Recorder) Option { return func(e *Exporter) { e.recorder = r } }

// WithPublisher sets where page and completion events are sent.
func WithPublisher(p events.Publisher) Option { return func(e *Exporter) { e.publisher = p } }

// WithNotFoundRenderer renders 404.html in-process.
func WithNotFoundRenderer(r NotFoundRenderer) Option { return func(e *Exporter) { e.notFound = r } }

// WithHTTPClient replaces the client built from Options.Timeout.
func WithHTTPClient(c *http.Client) Option { return func(e *Exporter) { e.client = c } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(e *Exporter) { e.now = now } }

// New validates opts and builds an Exporter.
func New(opts Options, options ...Option) (*Exporter, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, ferrors.ConfigError("export base URL must be an absolute http(s) URL").
			WithContext("base_url", opts.BaseURL).Build()
	}
	if opts.OutputDir == "" {
		return nil, ferrors.ConfigError("export output directory is required").Build()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	e := &Exporter{
		opts:      opts,
		base:      base,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		publisher: events.Noop{},
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
	for _, o := range options {
		o(e)
	}
	if e.client == nil {
		e.client = NewHTTPClient(opts.Timeout)
	}
	return e, nil
}

func (e *Exporter) limiter() *rate.Limiter {
	if e.opts.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(e.opts.Delay), 1)
}

// Export runs one full export of pages.
//
// Page failures are recorded in the summary and never abort the run. The
// returned error is non-nil only when the output tree cannot be prepared or
// written, or when ctx is cancelled; in the latter case the loop stops
// between pages and the synthetic pages are not written.
func (e *Exporter) Export(ctx context.Context, pages []string) (Summary, error) {
	sum := Summary{RunID: e.newRunID(), StartedAt: e.now()}
	log := e.logger.With(logfields.RunID(sum.RunID))
	log.Info("Export started", logfields.Count(len(pages)), "output", e.opts.OutputDir)

	if err := e.prepare(log); err != nil {
		e.recorder.IncExportRun("failed")
		return sum, err
	}

	queue := append([]string(nil), pages...)
	known := make(map[string]bool, len(queue))
	for _, p := range queue {
		known[p] = true
	}
	limiter := e.limiter()

	for i := 0; i < len(queue); i++ {
		if err := ctx.Err(); err != nil {
			sum.FinishedAt = e.now()
			log.Warn("Export interrupted", "done", i, "remaining", len(queue)-i)
			return sum, err
		}
		if err := limiter.Wait(ctx); err != nil {
			sum.FinishedAt = e.now()
			return sum, err
		}

		res, links := e.exportPage(ctx, queue[i])
		sum.Results = append(sum.Results, res)
		if res.OK() {
			sum.Succeeded++
			e.recorder.IncExportPage(metrics.PageSucceeded)
			log.Debug("Exported page", logfields.URL(res.URLPath), logfields.Path(res.OutputPath), logfields.Status(res.Status))
		} else {
			sum.Failed++
			e.recorder.IncExportPage(metrics.PageFailed)
			log.Warn("Page export failed", logfields.URL(res.URLPath), logfields.Status(res.Status), logfields.Error(res.Err))
		}
		e.publish(ctx, log, pageEvent(sum.RunID, e.now(), res))

		for _, l := range links {
			if !known[l] {
				known[l] = true
				queue = append(queue, l)
			}
		}
	}

	if err := e.writeSynthetic(log); err != nil {
		sum.FinishedAt = e.now()
		e.recorder.IncExportRun("failed")
		return sum, err
	}

	sum.FinishedAt = e.now()
	e.recorder.ObserveExportDuration(sum.Duration())
	e.recorder.IncExportRun(sum.Outcome())
	e.publish(ctx, log, events.Event{
		Type:       events.TypeCompleted,
		RunID:      sum.RunID,
		Time:       sum.FinishedAt,
		Pages:      sum.Pages(),
		Succeeded:  sum.Succeeded,
		Failed:     sum.Failed,
		DurationMS: float64(sum.Duration().Microseconds()) / 1000,
		GitCommit:  e.opts.GitCommit,
	})

	attrs := []any{"succeeded", sum.Succeeded, "failed", sum.Failed, logfields.Duration(sum.Duration())}
	if sum.Failed > 0 {
		log.Warn("Export finished with failures", attrs...)
	} else {
		log.Info("Export finished", attrs...)
	}
	return sum, nil
}

// prepare wipes the output directory and copies the verbatim trees.
func (e *Exporter) prepare(log *slog.Logger) error {
	out := e.opts.OutputDir
	if err := os.RemoveAll(out); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clear output directory").
			WithContext("path", out).Build()
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", out).Build()
	}
	for _, cd := range e.opts.CopyDirs {
		dst := filepath.Join(out, filepath.FromSlash(cd.Dest))
		found, err := copyTree(cd.Src, dst)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy directory").
				WithContext("src", cd.Src).
				WithContext("dest", cd.Dest).Build()
		}
		if !found {
			log.Warn("Copy source missing, skipping", logfields.Path(cd.Src))
		}
	}
	return nil
}

func (e *Exporter) exportPage(ctx context.Context, urlPath string) (PageResult, []string) {
	res := PageResult{URLPath: urlPath}
	out, err := OutputPath(urlPath)
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.OutputPath = out

	pageURL := e.base.String() + urlPath
	f, err := fetch(ctx, e.client, pageURL)
	res.Status = f.status
	if err != nil {
		res.Err = err
		return res, nil
	}
	if err := writeFile(filepath.Join(e.opts.OutputDir, out), f.body); err != nil {
		res.Err = ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write page").
			WithContext("path", out).Build()
		return res, nil
	}
	res.Bytes = int64(len(f.body))

	if !e.opts.FollowLinks || !strings.HasPrefix(f.contentType, "text/html") {
		return res, nil
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return res, nil
	}
	return res, pageLinks(f.body, u)
}

func (e *Exporter) writeSynthetic(log *slog.Logger) error {
	out := e.opts.OutputDir

	body, err := notFoundPage(e.notFound)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "failed to render 404 page").Build()
	}
	if err := writeFile(filepath.Join(out, "404.html"), body); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write 404 page").Build()
	}

	for _, r := range e.opts.Redirects {
		rel, err := OutputPath(r.From)
		if err != nil {
			log.Warn("Skipping redirect", "from", r.From, logfields.Error(err))
			continue
		}
		page, err := RedirectPage(r)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRender, "failed to render redirect").
				WithContext("from", r.From).Build()
		}
		if err := writeFile(filepath.Join(out, rel), page); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write redirect").
				WithContext("from", r.From).Build()
		}
	}

	if err := writeFile(filepath.Join(out, ".nojekyll"), nil); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write .nojekyll").Build()
	}
	log.Debug("Wrote synthetic pages", logfields.Count(len(e.opts.Redirects)+2))
	return nil
}

func (e *Exporter) publish(ctx context.Context, log *slog.Logger, ev events.Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		log.Warn("Failed to publish export event", "type", ev.Type, logfields.Error(err))
	}
}

func pageEvent(runID string, at time.Time, res PageResult) events.Event {
	ev := events.Event{
		Type:       events.TypePage,
		RunID:      runID,
		Time:       at,
		URLPath:    res.URLPath,
		OutputPath: filepath.ToSlash(res.OutputPath),
		Status:     res.Status,
		Bytes:      res.Bytes,
	}
	if res.Err != nil {
		ev.Error = fmt.Sprint(res.Err)
	}
	return ev
}
