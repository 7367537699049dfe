// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/api/schemas"
	"github.com/xkilldash9x/aiseed/internal/config"
)

// ErrMissingAPIKey is returned when the configured provider has no credential.
var ErrMissingAPIKey = errors.New("llm api key is required")

// NewClient is a factory function that creates an LLMClient based on the
// configured provider. The returned client never retries on its own.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %q (set %s)", ErrMissingAPIKey, cfg.Provider, config.CredentialEnv[cfg.Provider])
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s, %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGemini)
	}
}

// generationParams resolves the per-request options against the configured defaults.
func generationParams(cfg config.LLMConfig, opts schemas.GenerationOptions) (temperature float64, maxTokens int) {
	temperature = cfg.Temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	maxTokens = cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return temperature, maxTokens
}

// jsonInstruction is appended to the system prompt for providers without a native JSON mode.
const jsonInstruction = "\n\nRespond with valid JSON only."

func systemPrompt(req schemas.GenerationRequest) string {
	if req.Options.ForceJSONFormat {
		return req.SystemPrompt + jsonInstruction
	}
	return req.SystemPrompt
}

func logCompletion(logger *zap.Logger, started time.Time, promptTokens, completionTokens int64) {
	logger.Info("LLM generation complete.",
		zap.Duration("duration", time.Since(started)),
		zap.Int64("prompt_tokens", promptTokens),
		zap.Int64("completion_tokens", completionTokens),
	)
}
