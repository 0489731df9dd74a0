package httpserver

import (
	"net/http"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/server/handlers"
)

// routes registers every page explicitly per language. Literal language
// prefixes keep the patterns disjoint from /static/ and /files/.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	site := s.opts.Site
	cfg := s.cfg
	mon := handlers.NewMonitoringHandlers(s.opts.Logger)

	mux.HandleFunc("GET /healthz", mon.HandleHealthCheck)
	if s.opts.MetricsHandler != nil {
		mux.Handle("GET "+cfg.Metrics.Path, s.opts.MetricsHandler)
	}

	mux.Handle("GET /static/notebooks/", fileServer("/static/notebooks/", cfg.SectionDir(content.SectionNotebooks), site))
	mux.Handle("GET /static/", fileServer("/static/", cfg.Content.StaticDir, site))
	mux.Handle("GET /files/", fileServer("/files/", cfg.Content.FilesDir, site))

	seen := map[string]bool{}
	handle := func(pattern string, h http.HandlerFunc) {
		if seen[pattern] {
			return
		}
		seen[pattern] = true
		mux.HandleFunc(pattern, h)
	}

	register := func(prefix, lang string) {
		for _, section := range s.opts.Sections {
			handle("GET "+prefix+"/"+section, site.Section(lang, section))
			handle("GET "+prefix+"/"+section+"/{slug}", site.Detail(lang, section))
		}
		for _, page := range cfg.Site.Pages {
			handle("GET "+prefix+"/"+page, site.StaticPage(lang, page))
		}
	}

	def := cfg.Site.DefaultLanguage
	handle("GET /{$}", site.Home(def))
	for _, lang := range cfg.Site.Languages {
		handle("GET /"+lang+"/{$}", site.Home(lang))
		handle("GET /"+lang, site.Home(lang))
		register("/"+lang, lang)
	}
	register("", def)

	mux.HandleFunc("/", site.NotFound)
	return mux
}

// fileServer serves dir under prefix without directory listings.
func fileServer(prefix, dir string, site *handlers.SiteHandlers) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			site.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
