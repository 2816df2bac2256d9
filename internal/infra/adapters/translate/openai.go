package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"polyglot-group-bot/internal/domain/ports/adapter"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Translator = (*OpenAITranslator)(nil)

// OpenAITranslator translates through the Chat Completions API. Any
// OpenAI-compatible endpoint works via baseURL.
type OpenAITranslator struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	maxTokens int // input guard; 0 disables
	enc       *tiktoken.Tiktoken
}

func NewOpenAITranslator(apiKey, baseURL, model string, timeout time.Duration, maxInputTokens int) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // a failed translation aborts the operation
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	t := &OpenAITranslator{
		client:    openai.NewClient(opts...),
		model:     model,
		timeout:   timeout,
		maxTokens: maxInputTokens,
	}
	if maxInputTokens > 0 {
		enc, err := tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return nil, fmt.Errorf("load tokenizer: %w", err)
			}
		}
		t.enc = enc
	}
	return t, nil
}

func (o *OpenAITranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if o.enc != nil {
		if n := len(o.enc.Encode(text, nil, nil)); n > o.maxTokens {
			return "", providerError("openai", fmt.Errorf("message too long: %d tokens, limit %d", n, o.maxTokens))
		}
	}
	return call(ctx, "openai", targetLang, o.timeout, func(ctx context.Context) (string, error) {
		resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(o.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(instructions(targetLang)),
				openai.UserMessage(text),
			},
			Temperature: openai.Float(0),
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				return "", fmt.Errorf("openai http %d: %s", apiErr.StatusCode, apiErr.Message)
			}
			return "", err
		}
		for _, c := range resp.Choices {
			if c.Message.Content != "" {
				return c.Message.Content, nil
			}
		}
		return "", errors.New("no choice content")
	})
}
