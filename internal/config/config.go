// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Number        string         `yaml:"number"`         // bot's own address without channel prefix, e.g. +15550001111
	ChannelPrefix string         `yaml:"channel_prefix"` // provider address prefix, e.g. "whatsapp:" ("" for SMS)
	PMMarker      string         `yaml:"pm_marker"`      // private-message marker, default "@"
	Locale        string         `yaml:"locale"`         // fallback locale for replies
	Telegram      TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Workers int    `yaml:"workers"` // update workers
}

type StoreConfig struct {
	Primary string `yaml:"primary"`
	Backup  string `yaml:"backup"`
	KeyFile string `yaml:"key_file"`
	Cipher  string `yaml:"cipher"` // aes-gcm | xchacha20poly1305
}

type TranslateConfig struct {
	Provider        string        `yaml:"provider"` // openai | gemini | noop
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	ConcurrentLimit int           `yaml:"concurrent_limit"`
	MaxInputTokens  int           `yaml:"max_input_tokens"` // 0 disables the guard
}

type TwilioConfig struct {
	AccountSID        string        `yaml:"account_sid"`
	AuthToken         string        `yaml:"auth_token"`
	ValidateSignature bool          `yaml:"validate_signature"`
	PublicURL         string        `yaml:"public_url"` // scheme://host the webhook is reached at
	Timeout           time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL       string        `yaml:"url"` // empty disables rate limiting
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	RateLimit int           `yaml:"rate_limit"` // inbound messages per sender per window
	Window    time.Duration `yaml:"window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Store     StoreConfig     `yaml:"store"`
	Translate TranslateConfig `yaml:"translate"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, fills secrets from the environment when the
// file leaves them empty, applies defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envDefault(&cfg.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	envDefault(&cfg.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	envDefault(&cfg.Bot.Number, "TWILIO_NUMBER")
	envDefault(&cfg.Translate.OpenAIKey, "OPENAI_API_KEY")
	envDefault(&cfg.Translate.GeminiKey, "GEMINI_API_KEY")
	envDefault(&cfg.Bot.Telegram.Token, "TELEGRAM_BOT_TOKEN")
}

func envDefault(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.PMMarker == "" {
		cfg.Bot.PMMarker = "@"
	}
	if cfg.Bot.Locale == "" {
		cfg.Bot.Locale = "en"
	}
	if cfg.Bot.Telegram.Workers <= 0 {
		cfg.Bot.Telegram.Workers = 4
	}
	if cfg.Store.Primary == "" {
		cfg.Store.Primary = "data/subscribers.enc"
	}
	if cfg.Store.Backup == "" {
		cfg.Store.Backup = cfg.Store.Primary + ".bak"
	}
	if cfg.Store.KeyFile == "" {
		cfg.Store.KeyFile = "data/store.key"
	}
	if cfg.Translate.Provider == "" {
		cfg.Translate.Provider = "openai"
	}
	if cfg.Translate.Model == "" {
		switch strings.ToLower(cfg.Translate.Provider) {
		case "gemini":
			cfg.Translate.Model = "gemini-2.0-flash"
		default:
			cfg.Translate.Model = "gpt-4o-mini"
		}
	}
	cfg.Translate.Timeout = normalizeTimeout(cfg.Translate.Timeout, 10*time.Second)
	if cfg.Translate.ConcurrentLimit <= 0 {
		cfg.Translate.ConcurrentLimit = 8
	}
	cfg.Twilio.Timeout = normalizeTimeout(cfg.Twilio.Timeout, 10*time.Second)
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Redis.RateLimit <= 0 {
		cfg.Redis.RateLimit = 20
	}
	cfg.Redis.Window = normalizeTimeout(cfg.Redis.Window, time.Minute)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func normalizeTimeout(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Validate does the minimal checks needed to start. Dev mode runs with noop
// providers, so provider credentials are only required outside it.
func (c *Config) Validate() error {
	if len([]rune(c.Bot.PMMarker)) != 1 || c.Bot.PMMarker == "/" {
		return errors.New("bot.pm_marker must be a single character other than /")
	}
	if c.Runtime.Dev {
		return nil
	}
	if c.Bot.Number == "" {
		return errors.New("bot.number is required")
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		return errors.New("twilio.account_sid and twilio.auth_token are required")
	}
	switch strings.ToLower(c.Translate.Provider) {
	case "openai":
		if c.Translate.OpenAIKey == "" {
			return errors.New("translate.openai_key is required for provider openai")
		}
	case "gemini":
		if c.Translate.GeminiKey == "" {
			return errors.New("translate.gemini_key is required for provider gemini")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown translate.provider %q", c.Translate.Provider)
	}
	if c.Twilio.ValidateSignature && c.Twilio.PublicURL == "" {
		return errors.New("twilio.public_url is required when validate_signature is on")
	}
	if c.Bot.Telegram.Enabled && c.Bot.Telegram.Token == "" {
		return errors.New("bot.telegram.token is required when telegram is enabled")
	}
	return nil
}
