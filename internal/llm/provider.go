package llm

import (
	"context"
	"fmt"

	"github.com/sozercan/episode-finder/internal/config"
)

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "azure":
		return NewOpenAI(cfg)
	case "gemini":
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
