// Package config loads the scholarsite configuration: one explicit object
// built at process start and passed to the server and the exporter.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "scholarsite.yaml"

// Config is the root configuration object.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Server  ServerConfig  `yaml:"server"`
	Export  ExportConfig  `yaml:"export"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
	Publish PublishConfig `yaml:"publish"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the rendered site.
type SiteConfig struct {
	Title           string   `yaml:"title"`
	Author          string   `yaml:"author"`
	Languages       []string `yaml:"languages"`
	DefaultLanguage string   `yaml:"default_language"`
	// Pages are the static top-level pages rendered from the pages dir.
	Pages        []string `yaml:"pages"`
	TemplatesDir string   `yaml:"templates_dir,omitempty"`
	LocalesDir   string   `yaml:"locales_dir"`
	CodeStyle    string   `yaml:"code_style"`
	UnsafeHTML   bool     `yaml:"unsafe_html,omitempty"`
}

// ContentConfig locates content on disk.
type ContentConfig struct {
	Root string `yaml:"root"`
	// Dirs overrides the directory of a section; the default is Root/<section>.
	Dirs      map[string]string `yaml:"dirs,omitempty"`
	PagesDir  string            `yaml:"pages_dir"`
	StaticDir string            `yaml:"static_dir"`
	FilesDir  string            `yaml:"files_dir"`
}

// ServerConfig configures the site server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Redirect maps a legacy path to its new location.
type Redirect struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ExportConfig configures the static exporter.
type ExportConfig struct {
	BaseURL     string        `yaml:"base_url"`
	OutputDir   string        `yaml:"output_dir"`
	Timeout     time.Duration `yaml:"timeout"`
	Delay       time.Duration `yaml:"delay"`
	FollowLinks bool          `yaml:"follow_links,omitempty"`
	// ServerCommand launches the site server. Empty means the running
	// executable with "serve".
	ServerCommand  []string      `yaml:"server_command,omitempty"`
	StartupTimeout time.Duration `yaml:"startup_timeout"`
	Redirects      []Redirect    `yaml:"redirects"`
	WatchDebounce  time.Duration `yaml:"watch_debounce"`
}

// HistoryConfig enables the export run history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig enables export event publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// PublishConfig configures upload targets for exported trees.
type PublishConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config is an S3-compatible bucket.
type S3Config struct {
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (s S3Config) Enabled() bool { return s.Bucket != "" }

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level LogLevel `yaml:"level"`
}

// Load loads configuration from configPath.
//
// Environment files (.env, .env.local) are loaded first so they can feed
// ${VAR} references in the YAML. A missing configuration file yields the
// defaults.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
			WithContext("path", configPath).Fatal().Build()
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse configuration file").
				WithContext("path", configPath).Fatal().Build()
		}
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	cfg := Default()
	cfg.History.Path = ".scholarsite/history.db"
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal starter configuration").Build()
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create configuration directory").Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", configPath).Build()
	}
	return nil
}

// SectionDir returns the content directory of a section.
func (c *Config) SectionDir(section string) string {
	if dir, ok := c.Content.Dirs[section]; ok && dir != "" {
		return dir
	}
	return filepath.Join(c.Content.Root, section)
}

// SupportsLanguage reports whether lang is one of the configured languages.
func (c *Config) SupportsLanguage(lang string) bool {
	for _, l := range c.Site.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
