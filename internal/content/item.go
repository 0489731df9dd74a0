package content

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"
)

// Item is one content file: its metadata, its raw body and the rendered HTML.
// Items are immutable after construction.
type Item struct {
	Section  string
	Path     string
	Metadata map[string]any
	RawBody  string
	// RenderedBody is trusted HTML produced by the markdown or notebook renderer.
	RenderedBody template.HTML
	// Fingerprint identifies the item's source content. It changes whenever
	// the metadata or the body changes.
	Fingerprint string

	languages []string
	date      time.Time
	hasDate   bool
	schema    *Schema
}

// Filename returns the base name of the source file.
func (it *Item) Filename() string {
	return filepath.Base(it.Path)
}

// Slug is the explicit slug metadata, else the filename without extension.
func (it *Item) Slug() string {
	if s := metaString(it.Metadata, "slug"); s != "" {
		return s
	}
	name := it.Filename()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Title is the metadata title, else the schema's fallback.
func (it *Item) Title() string {
	return it.Str("title")
}

// Date returns the parsed date; ok is false for undated items.
func (it *Item) Date() (t time.Time, ok bool) {
	return it.date, it.hasDate
}

// DateString formats the date as YYYY-MM-DD, or returns "" when undated.
func (it *Item) DateString() string {
	if !it.hasDate {
		return ""
	}
	return it.date.Format("2006-01-02")
}

// Year returns the year of the item's date, or 0 when undated.
func (it *Item) Year() int {
	if !it.hasDate {
		return 0
	}
	return it.date.Year()
}

// Languages returns the resolved languages the item is published in.
func (it *Item) Languages() []string {
	return append([]string(nil), it.languages...)
}

// Language returns the item's primary language.
func (it *Item) Language() string {
	return it.languages[0]
}

// HasLanguage reports whether the item is published in lang.
func (it *Item) HasLanguage(lang string) bool {
	for _, l := range it.languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Tags returns the item's tags in declaration order.
func (it *Item) Tags() []string {
	return toStringList(it.Metadata["tags"], ",")
}

// HasTag reports whether the item carries tag, honouring the schema's
// case folding.
func (it *Item) HasTag(tag string) bool {
	for _, t := range it.Tags() {
		if t == tag || (it.schema.FoldTags && strings.EqualFold(t, tag)) {
			return true
		}
	}
	return false
}

// Field resolves a schema field: the metadata value when present and
// non-empty, else the field's derived value, else its default. Unknown
// fields return the raw metadata value.
func (it *Item) Field(name string) any {
	f, ok := it.schema.field(name)
	raw, present := it.Metadata[name]
	if present && !isEmpty(raw) {
		if ok && f.Parse != nil {
			return f.Parse(raw)
		}
		return raw
	}
	if !ok {
		return nil
	}
	if f.Derive != nil {
		return f.Derive(it)
	}
	return f.Default
}

// Str resolves a field as a string.
func (it *Item) Str(name string) string {
	switch v := it.Field(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

// List resolves a field as a list of strings.
func (it *Item) List(name string) []string {
	switch v := it.Field(name).(type) {
	case []string:
		return v
	default:
		return toStringList(v, ",")
	}
}

// Int resolves a field as an integer, or 0.
func (it *Item) Int(name string) int {
	switch v := it.Field(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ReadingTime is the estimated reading time in minutes.
func (it *Item) ReadingTime() int {
	return ReadingTime(it.RawBody)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// toStringList accepts a separated string or a YAML sequence.
func toStringList(v any, seps string) []string {
	var parts []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		parts = strings.FieldsFunc(t, func(r rune) bool { return strings.ContainsRune(seps, r) })
	case []string:
		parts = t
	case []any:
		for _, e := range t {
			if e != nil {
				parts = append(parts, fmt.Sprint(e))
			}
		}
	default:
		parts = []string{fmt.Sprint(t)}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
