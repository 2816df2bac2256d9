package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go/client"

	"polyglot-group-bot/internal/domain/model"
)

// InboundHandler is the command router. It returns the reply for the sender,
// or "" when nothing should be sent back.
type InboundHandler interface {
	HandleInbound(ctx context.Context, in model.InboundMessage) string
}

type Options struct {
	Port int
	// AuthToken enables X-Twilio-Signature checks when set.
	AuthToken string
	// PublicURL is the externally visible base URL Twilio signs against.
	PublicURL string
}

type Server struct {
	bot       InboundHandler
	validator *client.RequestValidator
	publicURL string
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(bot InboundHandler, opts Options, logger *zerolog.Logger) *Server {
	s := &Server{bot: bot, publicURL: opts.PublicURL, log: logger}
	if opts.AuthToken != "" {
		v := client.NewRequestValidator(opts.AuthToken)
		s.validator = &v
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the chi router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhook/twilio", s.handleTwilio)
	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
