package content

import (
	"fmt"
	"strings"
)

// ResolveLanguages normalizes a lang metadata value: a string (surrounding
// quotes stripped) or a list of strings. Missing or empty values resolve to
// def.
func ResolveLanguages(v any, def string) []string {
	var langs []string
	switch t := v.(type) {
	case string:
		if l := unquote(t); l != "" {
			langs = append(langs, l)
		}
	case []any:
		for _, e := range t {
			if l := unquote(fmt.Sprint(e)); e != nil && l != "" {
				langs = append(langs, l)
			}
		}
	case []string:
		for _, e := range t {
			if l := unquote(e); l != "" {
				langs = append(langs, l)
			}
		}
	}
	if len(langs) == 0 {
		return []string{def}
	}
	return langs
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
