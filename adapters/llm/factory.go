package llm

import (
	"context"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

type Config struct {
	GroqAPIKey      string
	GroqModel       string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	ClaudeModel     string
}

// NewProviders builds the primary and secondary stages of the fallback
// chain. A stage without credentials is returned as nil. Claude fills the
// secondary slot only when Gemini is not configured.
func NewProviders(ctx context.Context, cfg Config) (primary, secondary domain.Llm) {
	logger := log.WithCtx(ctx)

	if cfg.GroqAPIKey != "" {
		primary = NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	} else {
		logger.Warn("GROQ_API_KEY not set, primary provider disabled")
	}

	switch {
	case cfg.GeminiAPIKey != "":
		gemini, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini provider disabled", zap.Error(err))
			break
		}
		secondary = gemini
	case cfg.AnthropicAPIKey != "":
		secondary = NewClaudeClient(cfg.AnthropicAPIKey, cfg.ClaudeModel)
	default:
		logger.Warn("No secondary provider configured")
	}

	fields := []zap.Field{zap.Bool("primary", primary != nil), zap.Bool("secondary", secondary != nil)}
	if secondary != nil {
		fields = append(fields, zap.String("secondary_provider", secondary.Name()))
	}
	logger.Info("LLM providers configured", fields...)

	return primary, secondary
}
