// Package llm wraps the external multimodal model behind the
// domain.ModelClient port. The model's responses are free-form text; all
// repair and shape tolerance lives downstream, this adapter only moves
// prompts and bytes.
package llm

import (
	"context"
	"fmt"

	"snapstudy/internal/config"
	"snapstudy/internal/domain"
	"snapstudy/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// GeminiClient implements domain.ModelClient using the Gemini API through
// langchaingo.
type GeminiClient struct {
	llm         *googleai.GoogleAI
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiClient creates the client. A missing API key is a call-setup
// error and fails construction; nothing downstream tolerates it.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewError(domain.CodeMissingAPIKey, "Gemini API key is not configured", nil)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name cannot be empty")
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Get().Info("Initialized Gemini client", zap.String("model", cfg.Model))
	return &GeminiClient{
		llm:         client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GenerateText implements domain.ModelClient.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	return c.generate(ctx, content)
}

// GenerateFromImage implements domain.ModelClient.
func (c *GeminiClient) GenerateFromImage(ctx context.Context, prompt string, mimeType string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", domain.NewInvalidInputError("image bytes are required")
	}
	content := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
				llms.BinaryPart(mimeType, image),
			},
		},
	}
	return c.generate(ctx, content)
}

func (c *GeminiClient) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	l := logger.Get()

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		l.Error("Gemini call failed", zap.Error(err), zap.String("model", c.model))
		return "", domain.NewModelServiceError(err)
	}
	if len(resp.Choices) == 0 {
		l.Error("Gemini returned no candidates", zap.String("model", c.model))
		return "", domain.NewModelServiceError(fmt.Errorf("no candidates in response"))
	}

	text := resp.Choices[0].Content
	l.Debug("Gemini response received",
		zap.String("model", c.model),
		zap.Int("response_len", len(text)))
	return text, nil
}

// Static assertion that GeminiClient satisfies the port.
var _ domain.ModelClient = (*GeminiClient)(nil)
