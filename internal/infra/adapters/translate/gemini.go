package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"polyglot-group-bot/internal/domain/ports/adapter"
)

var _ adapter.Translator = (*GeminiTranslator)(nil)

type GeminiTranslator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiTranslator creates a translator on the official SDK. baseURL may
// be empty.
func NewGeminiTranslator(ctx context.Context, apiKey, baseURL, model string, timeout time.Duration) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiTranslator{client: c, model: model, timeout: timeout}, nil
}

func (g *GeminiTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return call(ctx, "gemini", targetLang, g.timeout, func(ctx context.Context) (string, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instructions(targetLang)}}},
		})
		if err != nil {
			return "", err
		}
		return extractText(resp)
	})
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no candidates")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: empty candidate")
	}
	return b.String(), nil
}
