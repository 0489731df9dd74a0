package i18n

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

//go:embed defaults/*.yml
var defaultLocales embed.FS

// Catalog holds flattened messages per language.
type Catalog struct {
	def      string
	langs    []string
	messages map[string]map[string]string
}

// NewCatalog builds a catalog from already flattened messages.
func NewCatalog(def string, langs []string, messages map[string]map[string]string) *Catalog {
	if messages == nil {
		messages = map[string]map[string]string{}
	}
	return &Catalog{def: def, langs: append([]string(nil), langs...), messages: messages}
}

// Load builds the catalog for langs. Built-in messages are loaded first and
// dir/{lang}.yml overrides them key by key. A missing file is not an error;
// lookups fall back to the default language.
func Load(dir, def string, langs []string) (*Catalog, error) {
	c := NewCatalog(def, langs, nil)
	for _, lang := range langs {
		flat := map[string]string{}
		if data, err := defaultLocales.ReadFile("defaults/" + lang + ".yml"); err == nil {
			if err := decodeLocale(data, lang, flat); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "parse built-in locale").
					WithContext("lang", lang).Build()
			}
		}
		if dir != "" {
			path := filepath.Join(dir, lang+".yml")
			// #nosec G304 -- locale path comes from configuration
			data, err := os.ReadFile(path)
			switch {
			case os.IsNotExist(err):
				slog.Debug("Locale file not found", "path", path, "lang", lang)
			case err != nil:
				return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read locale file").
					WithContext("path", path).Build()
			default:
				if err := decodeLocale(data, lang, flat); err != nil {
					return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse locale file").
						WithContext("path", path).Build()
				}
			}
		}
		c.messages[lang] = flat
	}
	return c, nil
}

func decodeLocale(data []byte, lang string, into map[string]string) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if nested, ok := raw[lang].(map[string]any); ok && len(raw) == 1 {
		raw = nested
	}
	flatten("", raw, into)
	return nil
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]any:
			flatten(key, x, out)
		case nil:
		default:
			out[key] = fmt.Sprint(x)
		}
	}
}

// T translates key for lang, falling back to the default language and then
// to the key itself.
func (c *Catalog) T(lang, key string) string {
	if msg, ok := c.messages[lang][key]; ok {
		return msg
	}
	if msg, ok := c.messages[c.def][key]; ok {
		return msg
	}
	return key
}

// Keys returns the sorted message keys known for lang.
func (c *Catalog) Keys(lang string) []string {
	keys := make([]string, 0, len(c.messages[lang]))
	for k := range c.messages[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Languages returns the supported languages in configured order.
func (c *Catalog) Languages() []string { return c.langs }

// Default returns the default language.
func (c *Catalog) Default() string { return c.def }

// DisplayName returns the name of lang written in that language, such as
// "français" for fr. Unknown tags return the code upper-cased.
func DisplayName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToUpper(lang)
	}
	name := display.Self.Name(tag)
	if name == "" {
		return strings.ToUpper(lang)
	}
	return name
}
