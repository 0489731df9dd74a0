package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// Validate checks the configuration for values that would make the server
// or the exporter misbehave.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateLanguages,
		validateExport,
		validateRedirects,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Site.Languages))
	for _, lang := range cfg.Site.Languages {
		if _, err := language.Parse(lang); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid language code").
				WithContext("lang", lang).Fatal().Build()
		}
		if seen[lang] {
			return ferrors.ConfigError(fmt.Sprintf("duplicate language %q", lang)).Build()
		}
		seen[lang] = true
	}
	if !seen[cfg.Site.DefaultLanguage] {
		return ferrors.ConfigError(fmt.Sprintf("default language %q is not in site.languages", cfg.Site.DefaultLanguage)).Build()
	}
	return nil
}

func validateExport(cfg *Config) error {
	u, err := url.Parse(cfg.Export.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ferrors.ConfigError("export.base_url must be an absolute http(s) URL").
			WithContext("base_url", cfg.Export.BaseURL).Build()
	}
	if cfg.Export.Timeout < 0 || cfg.Export.Delay < 0 {
		return ferrors.ConfigError("export.timeout and export.delay must not be negative").Build()
	}
	return validateOutputDir(cfg)
}

// validateOutputDir refuses output directories whose wipe would destroy the
// working tree or the content sources.
func validateOutputDir(cfg *Config) error {
	out, err := filepath.Abs(cfg.Export.OutputDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve export.output_dir").Build()
	}
	if out == filepath.Dir(out) {
		return ferrors.ConfigError("export.output_dir must not be a filesystem root").Build()
	}
	if wd, err := os.Getwd(); err == nil && isWithin(wd, out) {
		return ferrors.ConfigError("export.output_dir must not contain the working directory").
			WithContext("output_dir", out).Build()
	}
	for _, src := range []string{cfg.Content.Root, cfg.Content.StaticDir, cfg.Content.FilesDir} {
		abs, err := filepath.Abs(src)
		if err != nil {
			continue
		}
		if isWithin(out, abs) || isWithin(abs, out) {
			return ferrors.ConfigError("export.output_dir overlaps a source directory").
				WithContext("output_dir", out).WithContext("source", abs).Build()
		}
	}
	return nil
}

func validateRedirects(cfg *Config) error {
	for _, r := range cfg.Export.Redirects {
		if !strings.HasPrefix(r.From, "/") || r.To == "" {
			return ferrors.ConfigError("redirects need an absolute from path and a target").
				WithContext("from", r.From).WithContext("to", r.To).Build()
		}
		if strings.Contains(r.From, "..") {
			return ferrors.ConfigError("redirect path must not contain '..'").WithContext("from", r.From).Build()
		}
	}
	return nil
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
