// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
)

// AnthropicClient implements schemas.LLMClient over the Messages API.
type AnthropicClient struct {
	client anthropic.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewAnthropicClient initializes the client. Retries are disabled.
func NewAnthropicClient(cfg config.LLMConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

// Generate sends a single user turn and concatenates the returned text blocks.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	temperature, maxTokens := generationParams(c.cfg, req.Options)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt))},
		Temperature: anthropic.Float(temperature),
	}
	if sys := systemPrompt(req); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	started := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Error("Anthropic message request failed.", zap.Error(err))
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("anthropic API returned no text content")
	}

	logCompletion(c.logger, started, msg.Usage.InputTokens, msg.Usage.OutputTokens)
	return text.String(), nil
}

// Close is a no-op; the SDK holds no long-lived resources.
func (c *AnthropicClient) Close() error { return nil }
