package content

import (
	"fmt"
	"strings"
	"time"
)

// parseDate interprets a date metadata value using the schema layouts.
// YAML decodes unquoted dates to time.Time and bare years to int; both are
// accepted alongside strings.
func parseDate(v any, layouts []string) (time.Time, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case string:
		s = strings.TrimSpace(t)
	default:
		s = strings.TrimSpace(fmt.Sprint(t))
	}
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
