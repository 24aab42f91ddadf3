package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/config"
)

// NewClient builds the tier router described by cfg.LLM. When both tiers name the
// same model alias a single SDK client serves them.
func NewClient(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	router := cfg.LLM
	if router.DefaultFastModel == "" || router.DefaultPowerfulModel == "" {
		return nil, fmt.Errorf("default_fast_model and default_powerful_model must be configured")
	}

	fast, err := newProviderClient(ctx, router.ResolveModel(router.DefaultFastModel), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast tier client (%s): %w", router.DefaultFastModel, err)
	}

	powerful := fast
	if router.DefaultPowerfulModel != router.DefaultFastModel {
		powerful, err = newProviderClient(ctx, router.ResolveModel(router.DefaultPowerfulModel), logger)
		if err != nil {
			_ = fast.Close()
			return nil, fmt.Errorf("failed to create powerful tier client (%s): %w", router.DefaultPowerfulModel, err)
		}
	}

	return NewLLMRouter(logger, fast, powerful)
}

func newProviderClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGoogleClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}
