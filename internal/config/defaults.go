package config

import "time"

// legacyPaths are the un-prefixed URLs of the previous site layout. Each one
// gets a redirect page into the default language.
var legacyPaths = []string{
	"/about", "/blog", "/notebooks", "/publications", "/talks",
	"/teaching", "/cv", "/contact", "/news",
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values in place.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Site
	if s.Title == "" {
		s.Title = "Sharbatanu Chatterjee"
	}
	if s.Author == "" {
		s.Author = "Sharbatanu Chatterjee"
	}
	if len(s.Languages) == 0 {
		s.Languages = []string{"en", "fr", "bn"}
	}
	if s.DefaultLanguage == "" {
		s.DefaultLanguage = s.Languages[0]
	}
	if len(s.Pages) == 0 {
		s.Pages = []string{"about", "cv", "contact"}
	}
	if s.LocalesDir == "" {
		s.LocalesDir = "locales"
	}
	if s.CodeStyle == "" {
		s.CodeStyle = "github"
	}

	c := &cfg.Content
	if c.Root == "" {
		c.Root = "content"
	}
	if c.PagesDir == "" {
		c.PagesDir = c.Root + "/pages"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.FilesDir == "" {
		c.FilesDir = "files"
	}

	srv := &cfg.Server
	if srv.Addr == "" {
		srv.Addr = ":8000"
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = 15 * time.Second
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = 30 * time.Second
	}
	if srv.ShutdownTimeout == 0 {
		srv.ShutdownTimeout = 5 * time.Second
	}

	e := &cfg.Export
	if e.BaseURL == "" {
		e.BaseURL = "http://localhost:8000"
	}
	if e.OutputDir == "" {
		e.OutputDir = "dist"
	}
	if e.Timeout == 0 {
		e.Timeout = 10 * time.Second
	}
	if e.Delay == 0 {
		e.Delay = 100 * time.Millisecond
	}
	if e.StartupTimeout == 0 {
		e.StartupTimeout = 30 * time.Second
	}
	if e.WatchDebounce == 0 {
		e.WatchDebounce = 2 * time.Second
	}
	if e.Redirects == nil {
		for _, p := range legacyPaths {
			e.Redirects = append(e.Redirects, Redirect{From: p, To: "/" + s.DefaultLanguage + p})
		}
	}

	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "scholarsite.export"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
}
