package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/taskventure/backend/internal/config"
	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/models"
)

// Provider names used to look up API keys.
const (
	KeyAnthropic  = "anthropic"
	KeyOpenRouter = "openrouter"
)

// LLMClient is the interface every completion backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// KeyProvider resolves the API key of a provider at request time, so keys saved
// while the service runs take effect without a restart.
type KeyProvider interface {
	APIKey(ctx context.Context, provider string) (string, bool)
}

// Generator wraps an LLMClient and turns task text into quests.
type Generator struct {
	llm    LLMClient
	model  string
	logger *slog.Logger
}

// NewGenerator picks the completion backend named by the configuration.
func NewGenerator(cfg config.GeneratorConfig, keys KeyProvider, logger *slog.Logger) (*Generator, error) {
	logger = logger.With("component", "generator")

	var llm LLMClient
	model := cfg.Model

	switch cfg.Provider {
	case config.ProviderCLI:
		llm = NewCLIClient(cfg.CLIPath)
		model = "claude-cli"
	case config.ProviderMock:
		llm = NewMockClient()
		model = "mock"
	case config.ProviderOpenRouter:
		model = cfg.OpenRouterModel
		llm = NewOpenRouterClient(cfg.OpenRouterURL, model, keys)
	case config.ProviderAnthropic:
		llm = NewAPIClient(model, keys)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}

	logger.Info("quest generator ready", "provider", cfg.Provider, "model", model)
	return &Generator{llm: llm, model: model, logger: logger}, nil
}

// New wraps an existing client, as in tests.
func New(llm LLMClient, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, model: "custom", logger: logger.With("component", "generator")}
}

func (g *Generator) ModelName() string {
	return g.model
}

// Generate asks the model for quests covering input and parses the reply.
func (g *Generator) Generate(ctx context.Context, input string) ([]models.Quest, error) {
	resp, err := g.llm.Generate(ctx, QuestSystemPrompt(), BuildQuestUserPrompt(input))
	if err != nil {
		if qerrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, qerrors.ErrGeneration("quest generation failed", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, qerrors.ErrGeneration("the model returned an empty response", nil)
	}

	quests, err := ParseQuests(resp.Content)
	if err != nil {
		g.logger.Warn("unparseable generator response", "error", err, "bytes", len(resp.Content))
		return nil, err
	}
	if len(quests) == 0 {
		return nil, qerrors.ErrGeneration("the model returned no quests", nil)
	}

	for _, warning := range CheckBatchQuality(quests) {
		g.logger.Warn("generated quest quality", "warning", warning)
	}

	g.logger.Info("quests parsed",
		"count", len(quests),
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
	)
	return quests, nil
}

// ── APIClient: Anthropic SDK ────────────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
	keys   KeyProvider
}

func NewAPIClient(model string, keys KeyProvider) *APIClient {
	client := anthropic.NewClient(
		option.WithMaxRetries(0),
	)
	return &APIClient{client: &client, model: model, keys: keys}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	key, ok := c.keys.APIKey(ctx, KeyAnthropic)
	if !ok {
		return nil, qerrors.ErrConfiguration("Anthropic API key is not configured")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.9),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.client.Messages.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return nil, qerrors.ErrGeneration("anthropic API request failed", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, qerrors.ErrGeneration("no text content in API response", nil)
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

// ── MockClient: local development ──────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockJSON(userPrompt),
		PromptTokens: 400,
		OutputTokens: 300,
	}, nil
}

// buildMockJSON returns one quest per input line, cycling through the tiers.
func buildMockJSON(userPrompt string) string {
	lines := inputLines(userPrompt)
	if len(lines) == 0 {
		lines = []string{"Ship the thing"}
	}

	quests := make([]GeneratedQuest, len(lines))
	for i, line := range lines {
		tier := models.Complexities[i%len(models.Complexities)]
		quests[i] = GeneratedQuest{
			Title:      "[Mock] Operation " + line,
			Complexity: string(tier),
			XPReward:   float64(gamification.RewardRange(tier).Min),
			Tasks: []string{
				"Pitch " + line + " to the board",
				"Ship an MVP of " + line,
				"Post the launch on every channel",
			},
		}
	}

	data, _ := json.Marshal(quests)
	return "```json\n" + string(data) + "\n```"
}

// inputLines extracts the task lines between the input markers of a user prompt.
func inputLines(userPrompt string) []string {
	start := strings.Index(userPrompt, inputStartMarker)
	end := strings.Index(userPrompt, inputEndMarker)
	if start < 0 || end < start {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(userPrompt[start+len(inputStartMarker):end], "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
