// Command seed manages the encrypted subscriber store offline: it can create
// the key file, import a plaintext registry, add a superuser and dump the
// current contents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"polyglot-group-bot/internal/config"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/i18n"
	"polyglot-group-bot/internal/infra/logging"
	"polyglot-group-bot/internal/infra/security"
	"polyglot-group-bot/internal/infra/store"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	genKey := flag.Bool("genkey", false, "create the store key file if it does not exist")
	in := flag.String("in", "", "plaintext registry JSON to import (replaces the store)")
	super := flag.String("super", "", `add a superuser: "Name,+15551234567,en"`)
	dump := flag.Bool("dump", false, "print the decrypted registry")
	flag.Parse()

	// dev mode: seeding needs the store section only, not provider credentials
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *genKey {
		created, err := ensureKey(cfg.Store.KeyFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("generate key")
		}
		if created {
			fmt.Printf("wrote new key to %s\n", cfg.Store.KeyFile)
		} else {
			fmt.Printf("key %s already present. No changes.\n", cfg.Store.KeyFile)
		}
	}

	key, err := security.LoadKeyFile(cfg.Store.KeyFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("store key")
	}
	sealer, err := security.NewSealer(cfg.Store.Cipher, key)
	if err != nil {
		logger.Fatal().Err(err).Msg("sealer")
	}
	st := store.NewFileStore(cfg.Store.Primary, cfg.Store.Backup, sealer, logger)

	if *in != "" {
		raw, err := os.ReadFile(*in)
		if err != nil {
			logger.Fatal().Err(err).Msg("read import file")
		}
		reg := model.NewRegistry()
		if err := json.Unmarshal(raw, reg); err != nil {
			logger.Fatal().Err(err).Msg("parse import file")
		}
		if err := st.Persist(ctx, reg); err != nil {
			logger.Fatal().Err(err).Msg("persist")
		}
		fmt.Printf("imported %d subscribers from %s\n", reg.Len(), *in)
	}

	if *super != "" {
		catalog, err := i18n.NewCatalog(i18n.LocalesFS, cfg.Bot.Locale)
		if err != nil {
			logger.Fatal().Err(err).Msg("i18n catalog")
		}
		sub, err := parseSuper(*super, cfg.Bot.ChannelPrefix, catalog)
		if err != nil {
			logger.Fatal().Err(err).Msg("-super")
		}
		reg, err := loadOrEmpty(ctx, st)
		if err != nil {
			logger.Fatal().Err(err).Msg("load store")
		}
		if err := reg.Insert(sub); err != nil {
			logger.Fatal().Err(err).Msg("add superuser")
		}
		if err := st.Persist(ctx, reg); err != nil {
			logger.Fatal().Err(err).Msg("persist")
		}
		fmt.Printf("seeded: %s (%s, %s, %s)\n", sub.Name, sub.Contact, sub.Lang, sub.Role)
	}

	if *dump {
		reg, err := st.Load(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("load store")
		}
		out, err := store.MarshalRegistry(reg)
		if err != nil {
			logger.Fatal().Err(err).Msg("render")
		}
		fmt.Println(string(out))
	}
}

// ensureKey writes a 32 byte key, valid for AES-256 and XChaCha20-Poly1305.
func ensureKey(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	key, err := security.GenerateKey(32)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, key, 0o600)
}

type languages interface {
	Supported(code string) bool
}

func parseSuper(arg, prefix string, langs languages) (model.Subscriber, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		return model.Subscriber{}, fmt.Errorf("want Name,+phone,lang; got %q", arg)
	}
	name := strings.TrimSpace(parts[0])
	phone := strings.TrimSpace(parts[1])
	lang := strings.ToLower(strings.TrimSpace(parts[2]))
	if name == "" || strings.ContainsFunc(name, unicode.IsSpace) {
		return model.Subscriber{}, fmt.Errorf("name %q must be a single word", name)
	}
	if len(phone) < 2 || phone[0] != '+' || strings.IndexFunc(phone[1:], func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return model.Subscriber{}, fmt.Errorf("phone %q must be + followed by digits", phone)
	}
	if !langs.Supported(lang) {
		return model.Subscriber{}, fmt.Errorf("unsupported language %q", lang)
	}
	return model.Subscriber{Contact: prefix + phone, Name: name, Lang: lang, Role: model.RoleSuper}, nil
}

// loadOrEmpty starts a fresh registry when no store has been written yet.
func loadOrEmpty(ctx context.Context, s *store.FileStore) (*model.Registry, error) {
	primary, backup := s.Paths()
	_, perr := os.Stat(primary)
	_, berr := os.Stat(backup)
	if errors.Is(perr, fs.ErrNotExist) && errors.Is(berr, fs.ErrNotExist) {
		return model.NewRegistry(), nil
	}
	return s.Load(ctx)
}
