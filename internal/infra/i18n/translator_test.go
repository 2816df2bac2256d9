//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"locales/languages.yaml": {Data: []byte("en: English\nes: Spanish\nde: German\n")},
		"locales/en.yaml":        {Data: []byte("greeting: Hello\nwelcome_user: 'Hello %s'\nonly_en: English only\n")},
		"locales/es.yaml":        {Data: []byte("greeting: Hola\nwelcome_user: 'Hola %s'\n")},
	}
	c, err := NewCatalog(fsys, "en")
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

func TestCatalog(t *testing.T) {
	c := newTestCatalog(t)

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := c.T("es", "greeting"); got != "Hola" {
			t.Errorf("wanted 'Hola', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := c.T("es", "welcome_user", "Ana"); got != "Hola Ana" {
			t.Errorf("wanted 'Hola Ana', got '%s'", got)
		}
	})

	t.Run("should fall back to the default locale", func(t *testing.T) {
		if got := c.T("de", "greeting"); got != "Hello" {
			t.Errorf("unlocalized language: wanted 'Hello', got '%s'", got)
		}
		if got := c.T("es", "only_en"); got != "English only" {
			t.Errorf("missing key: wanted 'English only', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := c.T("en", "nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should know the supported languages", func(t *testing.T) {
		if !c.Supported("ES") || !c.Supported("de") {
			t.Error("expected es and de to be supported")
		}
		if c.Supported("spanish") {
			t.Error("language names are not codes")
		}
		if got := c.LanguageList(); got != "\nde - German\nen - English\nes - Spanish" {
			t.Errorf("unexpected language list %q", got)
		}
		if got := c.LanguageName("es"); got != "Spanish" {
			t.Errorf("wanted 'Spanish', got '%s'", got)
		}
	})
}

func TestEmbeddedLocales(t *testing.T) {
	c, err := NewCatalog(LocalesFS, "en")
	if err != nil {
		t.Fatalf("embedded locales failed to load: %v", err)
	}
	keys := []string{
		"test_usage", "add_usage", "add_bad_phone", "add_exists", "add_name_taken",
		"add_bad_lang", "add_bad_role", "add_ok", "remove_usage", "remove_self",
		"remove_not_found", "remove_forbidden", "remove_ok", "pm_not_found",
		"pm_sent", "not_supported", "error_generic",
	}
	for _, lang := range []string{"en", "es", "cs", "uk"} {
		for _, key := range keys {
			if got := c.messages[lang][key]; strings.TrimSpace(got) == "" {
				t.Errorf("%s.yaml is missing %s", lang, key)
			}
		}
	}
}

func TestNewCatalogRequiresFallback(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/languages.yaml": {Data: []byte("es: Spanish\n")},
		"locales/es.yaml":        {Data: []byte("greeting: Hola\n")},
	}
	if _, err := NewCatalog(fsys, "en"); err == nil {
		t.Fatal("expected an error when the fallback locale is missing")
	}
}
