package ai

import (
	"context"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/config"
)

// Generator is the interface for text generation providers
type Generator interface {
	// GenerateContent returns plain text for prompt.
	GenerateContent(ctx context.Context, prompt string) (string, error)
	// GenerateJSON returns a raw JSON document with markdown fences removed.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewGenerator picks the provider configured under ai.provider.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.AI.Provider {
	case "groq":
		if cfg.AI.GroqKey == "" {
			return nil, apperr.Config(nil, "GROQ_API_KEY is not set")
		}
		return NewGroqClient(cfg.AI.GroqKey, cfg.AI.GroqModel), nil
	default:
		if err := cfg.GeminiReady(); err != nil {
			return nil, err
		}
		return NewGeminiClient(ctx, cfg.Gemini)
	}
}

// CleanJSON strips the markdown code fence models like to wrap JSON in.
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	//drop a language tag such as "json" on the fence line
	if idx := strings.Index(content, "\n"); idx >= 0 {
		tag := content[:idx]
		if !strings.ContainsAny(tag, " {[") {
			content = content[idx+1:]
		}
	}
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
