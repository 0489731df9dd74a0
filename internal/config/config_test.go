package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, []string{"en", "fr", "bn"}, cfg.Site.Languages)
	require.Equal(t, "en", cfg.Site.DefaultLanguage)
	require.Equal(t, "http://localhost:8000", cfg.Export.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Export.Timeout)
	require.Equal(t, 100*time.Millisecond, cfg.Export.Delay)
	require.Equal(t, "dist", cfg.Export.OutputDir)
	require.Contains(t, cfg.Export.Redirects, Redirect{From: "/blog", To: "/en/blog"})
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SCHOLAR_TEST_BUCKET", "my-site")
	path := filepath.Join(t.TempDir(), "scholarsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  title: Test Site
  languages: [en, fr]
export:
  timeout: 3s
  output_dir: `+filepath.Join(t.TempDir(), "out")+`
publish:
  s3:
    bucket: ${SCHOLAR_TEST_BUCKET}
logging:
  level: WARNING
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test Site", cfg.Site.Title)
	require.Equal(t, []string{"en", "fr"}, cfg.Site.Languages)
	require.Equal(t, 3*time.Second, cfg.Export.Timeout)
	require.Equal(t, "my-site", cfg.Publish.S3.Bucket)
	require.True(t, cfg.Publish.S3.Enabled())
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	t.Setenv(EnvBaseURL, "http://127.0.0.1:9000")
	t.Setenv(EnvOutputDir, out)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", cfg.Export.BaseURL)
	require.Equal(t, out, cfg.Export.OutputDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default language not listed", func(c *Config) { c.Site.DefaultLanguage = "de" }},
		{"bad language tag", func(c *Config) { c.Site.Languages = []string{"en", "not a tag"} }},
		{"relative base url", func(c *Config) { c.Export.BaseURL = "localhost:8000" }},
		{"output is filesystem root", func(c *Config) { c.Export.OutputDir = "/" }},
		{"output is working dir", func(c *Config) { c.Export.OutputDir = "." }},
		{"output inside content", func(c *Config) { c.Export.OutputDir = "content/out" }},
		{"redirect without slash", func(c *Config) { c.Export.Redirects = []Redirect{{From: "blog", To: "/en/blog"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Export.OutputDir = filepath.Join(t.TempDir(), "out")
			tt.mutate(cfg)
			require.Error(t, Validate(cfg))
		})
	}
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "scholarsite.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ".scholarsite/history.db", cfg.History.Path)
}

func TestSectionDir(t *testing.T) {
	cfg := Default()
	cfg.Content.Dirs = map[string]string{"news": "updates"}

	require.Equal(t, filepath.Join("content", "blog"), cfg.SectionDir("blog"))
	require.Equal(t, "updates", cfg.SectionDir("news"))
}

func TestNormalizeLogLevel(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
}
