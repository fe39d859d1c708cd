package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

// GeneratorConfig holds chat completion settings.
type GeneratorConfig struct {
	Config
	Temperature float32
	// JSONMode asks the endpoint for a JSON object response. Some
	// OpenAI-compatible servers reject it; disable for those.
	JSONMode bool
}

// ChatGenerator implements the recommend Generator on the chat completions API.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	jsonMode    bool
	provider    string
	logger      *zap.Logger
}

// NewChatGenerator creates an OpenAI-compatible chat generator.
func NewChatGenerator(cfg *GeneratorConfig) (*ChatGenerator, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("chat model is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatGenerator{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
		provider:    cfg.Provider,
		logger:      logger,
	}, nil
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	if temperature == 0 {
		// omitempty в go-openai выкидывает 0, и сервер подставляет свой default.
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if g.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", parseAPIError(err, domain.ErrGenerationProviderError, "chat")
	}
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "empty").Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrGenerationProviderError)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()

	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		domain.UsageFromContext(ctx).AddGenerationTokens(resp.Usage.TotalTokens)
	}

	g.logger.Debug("Chat completion finished",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the configured model name.
func (g *ChatGenerator) Model() string { return g.model }
