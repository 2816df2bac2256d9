//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults in dev mode", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "bot:\n  channel_prefix: 'whatsapp:'\n"), true)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Bot.PMMarker != "@" || cfg.Bot.Locale != "en" {
			t.Errorf("unexpected bot defaults: %+v", cfg.Bot)
		}
		if cfg.Store.Backup != cfg.Store.Primary+".bak" {
			t.Errorf("expected backup next to primary, got %q", cfg.Store.Backup)
		}
		if cfg.Translate.Timeout != 10*time.Second || cfg.Translate.Model != "gpt-4o-mini" {
			t.Errorf("unexpected translate defaults: %+v", cfg.Translate)
		}
		if cfg.Redis.Window != time.Minute || cfg.HTTP.Port != 8080 {
			t.Errorf("unexpected defaults: redis=%+v http=%+v", cfg.Redis, cfg.HTTP)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev flag to be kept")
		}
	})

	t.Run("should read durations and nested sections", func(t *testing.T) {
		body := `
bot:
  number: "+15550001111"
  pm_marker: "#"
translate:
  provider: gemini
  gemini_key: g-key
  timeout: 3s
twilio:
  account_sid: AC123
  auth_token: secret
redis:
  url: localhost:6379
  rate_limit: 5
  window: 30s
`
		cfg, err := LoadConfig(writeConfig(t, body), false)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Bot.PMMarker != "#" || cfg.Translate.Timeout != 3*time.Second {
			t.Errorf("unexpected values: %+v %+v", cfg.Bot, cfg.Translate)
		}
		if cfg.Translate.Model != "gemini-2.0-flash" {
			t.Errorf("expected gemini default model, got %q", cfg.Translate.Model)
		}
		if cfg.Redis.RateLimit != 5 || cfg.Redis.Window != 30*time.Second {
			t.Errorf("unexpected redis config: %+v", cfg.Redis)
		}
	})

	t.Run("should take secrets from the environment", func(t *testing.T) {
		t.Setenv("TWILIO_ACCOUNT_SID", "AC-env")
		t.Setenv("TWILIO_AUTH_TOKEN", "token-env")
		t.Setenv("TWILIO_NUMBER", "+15550002222")
		t.Setenv("OPENAI_API_KEY", "sk-env")

		cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"), false)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Twilio.AccountSID != "AC-env" || cfg.Bot.Number != "+15550002222" || cfg.Translate.OpenAIKey != "sk-env" {
			t.Errorf("env not applied: %+v %+v", cfg.Twilio, cfg.Translate)
		}
	})

	t.Run("should reject missing credentials outside dev mode", func(t *testing.T) {
		t.Setenv("TWILIO_ACCOUNT_SID", "")
		t.Setenv("TWILIO_AUTH_TOKEN", "")
		t.Setenv("TWILIO_NUMBER", "")
		if _, err := LoadConfig(writeConfig(t, "log:\n  level: info\n"), false); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("should reject a slash as private-message marker", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "bot:\n  pm_marker: /\n"), true); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
