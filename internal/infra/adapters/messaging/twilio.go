package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/ports/adapter"
	"polyglot-group-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Compile-time check
var _ adapter.Messenger = (*TwilioMessenger)(nil)

// messageCreator is the part of the Twilio REST API the messenger uses.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioMessenger delivers WhatsApp or SMS messages through the Twilio REST API.
type TwilioMessenger struct {
	api     messageCreator
	from    string // provider-formatted bot address, e.g. "whatsapp:+15550001111"
	timeout time.Duration
	log     *zerolog.Logger
}

func NewTwilioMessenger(accountSID, authToken, from string, timeout time.Duration, logger *zerolog.Logger) (*TwilioMessenger, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio credentials empty")
	}
	if from == "" {
		return nil, errors.New("twilio sender number empty")
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioMessenger(rc.Api, from, timeout, logger), nil
}

func newTwilioMessenger(api messageCreator, from string, timeout time.Duration, logger *zerolog.Logger) *TwilioMessenger {
	return &TwilioMessenger{api: api, from: from, timeout: timeout, log: logger}
}

// Send returns the message SID. The SDK call takes no context, so it runs in a
// goroutine and the caller stops waiting on timeout or cancellation.
func (t *TwilioMessenger) Send(ctx context.Context, to, body string, mediaURLs []string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	if body != "" {
		params.SetBody(body)
	}
	if len(mediaURLs) > 0 {
		params.SetMediaUrl(mediaURLs)
	}

	type result struct {
		msg *openapi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := t.api.CreateMessage(params)
		done <- result{msg, err}
	}()

	select {
	case <-ctx.Done():
		metrics.IncDelivery("twilio", "failed")
		return "", sendError("twilio", ctx.Err())
	case r := <-done:
		if r.err != nil {
			metrics.IncDelivery("twilio", "failed")
			t.log.Warn().Err(r.err).Msg("twilio send failed")
			return "", sendError("twilio", describeTwilioError(r.err))
		}
		metrics.IncDelivery("twilio", "sent")
		sid := ""
		if r.msg != nil && r.msg.Sid != nil {
			sid = *r.msg.Sid
		}
		t.log.Debug().Str("sid", sid).Int("media", len(mediaURLs)).Msg("twilio message queued")
		return sid, nil
	}
}

func describeTwilioError(err error) error {
	var te *client.TwilioRestError
	if errors.As(err, &te) {
		return fmt.Errorf("twilio error %d (HTTP %d): %s", te.Code, te.Status, te.Message)
	}
	return err
}

// sendError maps a delivery failure to a *domain.ProviderError.
func sendError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return &domain.ProviderError{Provider: provider, Op: "send", Err: err}
}
