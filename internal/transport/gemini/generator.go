// Package gemini implements the recommend Generator on Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

const (
	defaultModel = "gemini-2.0-flash"
	providerName = "gemini"
)

// modelsAPI is the slice of genai.Models the generator uses.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// JSONMode sets the response MIME type to application/json.
	JSONMode bool
	Logger   *zap.Logger
}

// Generator wraps the Google GenAI client to provide prompt-in, text-out calls.
type Generator struct {
	models    modelsAPI
	modelName string
	config    *genai.GenerateContentConfig
	logger    *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg), nil
}

func newGenerator(models modelsAPI, cfg Config) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	genCfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(cfg.Temperature)}
	if cfg.JSONMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	return &Generator{models: models, modelName: model, config: genCfg, logger: logger}
}

// Generate sends the prompt to Gemini and returns the joined text parts of the response.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt must not be empty: %w", domain.ErrGenerationProviderError)
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), g.config)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.modelName, "error").Inc()
		return "", classify(err)
	}
	metrics.GenerationRequestDuration.WithLabelValues(providerName, g.modelName).Observe(duration.Seconds())

	output := joinText(resp)
	if output == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.modelName, "empty").Inc()
		return "", fmt.Errorf("gemini api returned empty response: %w", domain.ErrGenerationProviderError)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.modelName, "success").Inc()

	if u := resp.UsageMetadata; u != nil {
		metrics.GenerationTokensTotal.WithLabelValues(providerName, g.modelName, "prompt").Add(float64(u.PromptTokenCount))
		metrics.GenerationTokensTotal.WithLabelValues(providerName, g.modelName, "completion").Add(float64(u.CandidatesTokenCount))
		domain.UsageFromContext(ctx).AddGenerationTokens(int(u.TotalTokenCount))
	}

	g.logger.Debug("Gemini generate content finished",
		zap.String("model", g.modelName),
		zap.Duration("duration", duration),
		zap.Int("response_length", len(output)),
	)

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.modelName }

func joinText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// classify wraps provider errors; 429, 5xx and deadlines are transient.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("gemini API error %d %s: %s: %w",
			apiErr.Code, apiErr.Status, apiErr.Message, domain.ErrGenerationProviderError)
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return fmt.Errorf("%w: %w", wrapped, domain.ErrProviderTransient)
		}
		return wrapped
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini request timed out: %w: %w", domain.ErrGenerationProviderError, err)
	}
	return fmt.Errorf("generate content: %w: %w", domain.ErrGenerationProviderError, err)
}
