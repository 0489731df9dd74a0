package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyLang       = "lang"
	KeySection    = "section"
	KeySlug       = "slug"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func Lang(l string) slog.Attr       { return slog.String(KeyLang, l) }
func Section(s string) slog.Attr    { return slog.String(KeySection, s) }
func Slug(s string) slog.Attr       { return slog.String(KeySlug, s) }
func Count(n int) slog.Attr         { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
