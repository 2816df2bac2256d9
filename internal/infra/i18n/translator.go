package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

const languagesFile = "languages.yaml"

// Catalog holds the supported language codes and the localized reply
// templates. It is loaded once at startup and shared read-only.
type Catalog struct {
	fallback  string
	languages map[string]string            // code -> display name
	codes     []string                     // sorted
	messages  map[string]map[string]string // code -> key -> format
}

// NewCatalog reads locales/languages.yaml plus one locales/<code>.yaml per
// localized language. fallback must have a message file.
func NewCatalog(fsys fs.FS, fallback string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path.Join("locales", languagesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read language list: %w", err)
	}
	var languages map[string]string
	if err := yaml.Unmarshal(data, &languages); err != nil {
		return nil, fmt.Errorf("failed to parse language list: %w", err)
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("language list is empty")
	}

	c := &Catalog{
		fallback:  fallback,
		languages: make(map[string]string, len(languages)),
		messages:  make(map[string]map[string]string),
	}
	for code, name := range languages {
		code = strings.ToLower(code)
		c.languages[code] = name
		c.codes = append(c.codes, code)
	}
	sort.Strings(c.codes)

	for _, code := range c.codes {
		raw, err := fs.ReadFile(fsys, path.Join("locales", code+".yaml"))
		if err != nil {
			continue // not localized; falls back
		}
		msgs, err := newTranslationsFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s.yaml: %w", code, err)
		}
		c.messages[code] = msgs
	}
	if _, ok := c.messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no translation file", fallback)
	}
	return c, nil
}

func newTranslationsFromBytes(data []byte) (map[string]string, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, err
	}
	return translations, nil
}

// Supported reports whether code is a language the translation provider accepts.
func (c *Catalog) Supported(code string) bool {
	_, ok := c.languages[strings.ToLower(code)]
	return ok
}

func (c *Catalog) LanguageName(code string) string {
	if name, ok := c.languages[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// LanguageList renders one "\n<code> - <name>" line per supported language.
func (c *Catalog) LanguageList() string {
	var b strings.Builder
	for _, code := range c.codes {
		fmt.Fprintf(&b, "\n%s - %s", code, c.languages[code])
	}
	return b.String()
}

// T renders key in lang, falling back to the fallback locale, then to the key.
func (c *Catalog) T(lang, key string, args ...any) string {
	format, ok := c.messages[strings.ToLower(lang)][key]
	if !ok {
		format, ok = c.messages[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
