package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"

	qerrors "github.com/taskventure/backend/internal/errors"
)

// ── OpenRouterClient: OpenAI-compatible chat completions ───

type OpenRouterClient struct {
	client *openai.Client
	model  string
	keys   KeyProvider
}

// NewOpenRouterClient talks to the chat completions API under baseURL,
// e.g. https://openrouter.ai/api/v1.
func NewOpenRouterClient(baseURL, model string, keys KeyProvider) *OpenRouterClient {
	client := openai.NewClient(
		oaoption.WithBaseURL(baseURL),
		oaoption.WithMaxRetries(0),
		oaoption.WithHeader("HTTP-Referer", "http://localhost"),
		oaoption.WithHeader("X-Title", "Taskventure"),
	)
	return &OpenRouterClient{client: &client, model: model, keys: keys}
}

func (c *OpenRouterClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	key, ok := c.keys.APIKey(ctx, KeyOpenRouter)
	if !ok {
		return nil, qerrors.ErrConfiguration("OpenRouter API key is not configured")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature:      openai.Float(0.9),
		MaxTokens:        openai.Int(2000),
		PresencePenalty:  openai.Float(0.5),
		FrequencyPenalty: openai.Float(0.5),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params, oaoption.WithAPIKey(key))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := strings.TrimSpace(apiErr.Message)
			if msg == "" {
				msg = http.StatusText(apiErr.StatusCode)
			}
			if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
				return nil, qerrors.New(qerrors.CodeConfiguration, "OpenRouter rejected the API key", err)
			}
			return nil, qerrors.ErrGeneration("failed to generate quests: "+msg, err)
		}
		return nil, qerrors.ErrGeneration("openrouter request failed", err)
	}

	if len(completion.Choices) == 0 {
		return nil, qerrors.ErrGeneration("the model returned an empty response", nil)
	}
	msg := completion.Choices[0].Message
	if msg.Refusal != "" {
		return nil, qerrors.ErrGeneration("the model refused: "+msg.Refusal, nil)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, qerrors.ErrGeneration("the model returned an empty response", nil)
	}

	return &LLMResponse{
		Content:      msg.Content,
		PromptTokens: int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}
