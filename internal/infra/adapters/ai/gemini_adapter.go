package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"somaai-backend/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter serves completions through the official Gemini SDK. It backs
// models outside the OpenRouter catalog when a Gemini key is configured.
type GeminiAdapter struct {
	client *genai.Client
}

func NewGeminiAdapter(ctx context.Context, apiKey string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c}, nil
}

func (g *GeminiAdapter) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	if len(messages) == 0 {
		return adapter.Completion{}, errors.New("gemini: no messages")
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	// Gemini carries the system prompt outside the turn history.
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			if cfg.SystemInstruction == nil {
				cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
				continue
			}
			// extra system turns fold into the history as user instructions
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apierr genai.APIError
		if errors.As(err, &apierr) {
			return adapter.Completion{}, &adapter.BackendError{StatusCode: apierr.Code, Err: err}
		}
		return adapter.Completion{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return adapter.Completion{}, errors.New("gemini: empty candidate")
	}

	cand := resp.Candidates[0]
	reason := adapter.FinishOther
	switch cand.FinishReason {
	case genai.FinishReasonStop:
		reason = adapter.FinishStop
	case genai.FinishReasonMaxTokens:
		reason = adapter.FinishLength
	}
	return adapter.Completion{
		Content:      cand.Content.Parts[0].Text,
		FinishReason: reason,
	}, nil
}
