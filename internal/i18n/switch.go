package i18n

import (
	"slices"
	"strings"
)

// SwitchURL returns path rewritten for the target language.
//
// A leading segment naming a supported language is replaced; any other path
// is prefixed. Bare language roots always keep their trailing slash.
func SwitchURL(path, target string, langs []string) string {
	rest := path
	trimmed := strings.TrimPrefix(path, "/")
	first, tail, hasTail := strings.Cut(trimmed, "/")
	if slices.Contains(langs, first) {
		rest = ""
		if hasTail {
			rest = "/" + tail
		}
	}
	if rest == "" || rest == "/" {
		return "/" + target + "/"
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return "/" + target + rest
}

// LanguageOf returns the supported language that prefixes path, or "".
func LanguageOf(path string, langs []string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if slices.Contains(langs, first) {
		return first
	}
	return ""
}
