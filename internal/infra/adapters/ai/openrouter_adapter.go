package ai

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"somaai-backend/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenRouterAdapter)(nil)

// OpenRouterAdapter talks to OpenRouter's OpenAI-compatible gateway.
// Chat completions path is the same as OpenAI: /chat/completions.
// Authorization: Bearer <OPENROUTER_API_KEY>.
// When a secondary key is configured, auth and quota failures on the
// current key rotate to the next one; the caller's retry loop then
// re-issues the request against the fresh key.
type OpenRouterAdapter struct {
	mu      sync.Mutex
	clients []openai.Client
	current int
}

const defaultOpenRouterBase = "https://openrouter.ai/api/v1"

func NewOpenRouterAdapter(base string, keys ...string) (*OpenRouterAdapter, error) {
	if base == "" {
		base = defaultOpenRouterBase
	}
	base = strings.TrimRight(base, "/")

	var clients []openai.Client
	for _, key := range keys {
		if key == "" {
			continue
		}
		clients = append(clients, openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(base),
		))
	}
	if len(clients) == 0 {
		return nil, errors.New("openrouter: no api keys")
	}
	return &OpenRouterAdapter{clients: clients}, nil
}

func (o *OpenRouterAdapter) client() (openai.Client, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clients[o.current], o.current
}

// rotate advances past a dead key. No-op if another caller already moved on.
func (o *OpenRouterAdapter) rotate(from int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == from && len(o.clients) > 1 {
		o.current = (o.current + 1) % len(o.clients)
	}
}

func (o *OpenRouterAdapter) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	client, idx := o.client()

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toChatMessages(messages),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			if apierr.StatusCode == 401 || apierr.StatusCode == 402 || apierr.StatusCode == 403 || apierr.StatusCode == 429 {
				o.rotate(idx)
			}
			return adapter.Completion{}, &adapter.BackendError{StatusCode: apierr.StatusCode, Err: err}
		}
		return adapter.Completion{}, err
	}

	if len(resp.Choices) == 0 {
		return adapter.Completion{}, errors.New("openrouter: no choices")
	}
	choice := resp.Choices[0]
	return adapter.Completion{
		Content:      choice.Message.Content,
		FinishReason: toFinishReason(choice.FinishReason),
	}, nil
}

func toChatMessages(messages []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toFinishReason(reason string) adapter.FinishReason {
	switch reason {
	case "stop":
		return adapter.FinishStop
	case "length":
		return adapter.FinishLength
	default:
		return adapter.FinishOther
	}
}
