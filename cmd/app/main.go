package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"polyglot-group-bot/internal/application"
	"polyglot-group-bot/internal/config"
	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/adapters/messaging"
	"polyglot-group-bot/internal/infra/adapters/translate"
	"polyglot-group-bot/internal/infra/i18n"
	"polyglot-group-bot/internal/infra/logging"
	"polyglot-group-bot/internal/infra/metrics"
	red "polyglot-group-bot/internal/infra/redis"
	"polyglot-group-bot/internal/infra/security"
	"polyglot-group-bot/internal/infra/store"
	"polyglot-group-bot/internal/infra/web"
	"polyglot-group-bot/internal/infra/worker"
	"polyglot-group-bot/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: noop providers, verbose logs")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("config")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled: providers are stubbed")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Subscriber store ----
	key, err := security.LoadKeyFile(cfg.Store.KeyFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.KeyFile).Msg("store key")
	}
	sealer, err := security.NewSealer(cfg.Store.Cipher, key)
	if err != nil {
		logger.Fatal().Err(err).Msg("sealer")
	}
	fileStore := store.NewFileStore(cfg.Store.Primary, cfg.Store.Backup, sealer, logger)
	registry, err := fileStore.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreCorrupted) {
			logger.Fatal().Err(err).Msg("subscriber store unreadable; restore a backup or create one with cmd/seed")
		}
		logger.Fatal().Err(err).Msg("subscriber store")
	}
	logger.Info().Int("subscribers", registry.Len()).Msg("subscriber registry loaded")

	catalog, err := i18n.NewCatalog(i18n.LocalesFS, cfg.Bot.Locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n catalog")
	}

	// ---- Translation provider ----
	var tr adapter.Translator
	switch {
	case cfg.Runtime.Dev || cfg.Translate.Provider == "noop":
		tr = translate.NewNoop(logger)
	case cfg.Translate.Provider == "gemini":
		tr, err = translate.NewGeminiTranslator(ctx, cfg.Translate.GeminiKey, cfg.Translate.GeminiURL, cfg.Translate.Model, cfg.Translate.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini translator")
		}
	default:
		tr, err = translate.NewOpenAITranslator(cfg.Translate.OpenAIKey, cfg.Translate.OpenAIBaseURL, cfg.Translate.Model, cfg.Translate.Timeout, cfg.Translate.MaxInputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai translator")
		}
	}
	tr = translate.NewLimited(tr, cfg.Translate.ConcurrentLimit)
	logger.Info().Str("provider", cfg.Translate.Provider).Str("model", cfg.Translate.Model).Msg("translation provider ready")

	// ---- Messaging providers ----
	var primary adapter.Messenger
	if cfg.Runtime.Dev {
		primary = messaging.NewNoop(logger)
	} else {
		primary, err = messaging.NewTwilioMessenger(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Bot.ChannelPrefix+cfg.Bot.Number, cfg.Twilio.Timeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("twilio messenger")
		}
	}
	byPrefix := map[string]adapter.Messenger{}
	var tgAPI *tgbotapi.BotAPI
	if cfg.Bot.Telegram.Enabled && !cfg.Runtime.Dev {
		tgAPI, err = messaging.NewTelegramBot(cfg.Bot.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		byPrefix[messaging.TelegramPrefix] = messaging.NewTelegramMessenger(tgAPI, logger)
	}
	msg := messaging.NewRouter(primary, byPrefix)

	// ---- Rate limiting ----
	var limiter application.RateLimiter
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rc.Close()
		limiter = red.NewRateLimiter(rc, cfg.Redis.RateLimit, cfg.Redis.Window)
		logger.Info().Int("limit", cfg.Redis.RateLimit).Dur("window", cfg.Redis.Window).Msg("inbound rate limiting enabled")
	}

	// ---- Use cases ----
	subsUC := usecase.NewSubscriberUseCase(registry, fileStore, catalog, cfg.Bot.ChannelPrefix, logger)
	broadcastUC := usecase.NewBroadcastUseCase(subsUC, tr, msg, logger)
	pmUC := usecase.NewPrivateMessageUseCase(subsUC, tr, msg, logger)
	testUC := usecase.NewTestTranslateUseCase(tr, catalog, logger)

	bot := application.NewBot(subsUC, broadcastUC, pmUC, testUC, catalog, limiter, application.Options{
		PMMarker: cfg.Bot.PMMarker,
		Dev:      cfg.Runtime.Dev,
	}, logger)

	// ---- Telegram polling ----
	if tgAPI != nil {
		pool := worker.NewPool(cfg.Bot.Telegram.Workers, logger)
		pool.Start(ctx)
		defer pool.Stop()
		poller := messaging.NewTelegramPoller(tgAPI, bot, pool, logger)
		go func() {
			if err := poller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- HTTP server ----
	authToken := ""
	if cfg.Twilio.ValidateSignature {
		authToken = cfg.Twilio.AuthToken
	}
	server := web.NewServer(bot, web.Options{
		Port:      cfg.HTTP.Port,
		AuthToken: authToken,
		PublicURL: cfg.Twilio.PublicURL,
	}, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
}
