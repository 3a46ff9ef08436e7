package loader

import (
	"context"
	"errors"
	"healthcare-assistant/internal/adapter/client"
	"healthcare-assistant/internal/config"
	"healthcare-assistant/internal/domain/repository"
	"sync"

	"google.golang.org/genai"
)

var ErrGeminiDisabled = errors.New("gemini is not configured: set GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT")

type genaiBuilder func(ctx context.Context, cfg client.GeminiConfig) (*genai.Client, error)

// NewGenAIProvider returns a GenAIProvider that shares one genai client
// across every Gemini-backed model and the fallback.
func NewGenAIProvider(cfg *config.Config) GenAIProvider {
	return newGenAIProvider(cfg, client.NewGenAIClient)
}

// newGenAIProvider keeps the first client that builds; a failed build is
// retried by the next caller.
func newGenAIProvider(cfg *config.Config, build genaiBuilder) GenAIProvider {
	var (
		mu sync.Mutex
		gc *genai.Client
	)
	return func(ctx context.Context, model string) (repository.Backend, error) {
		if !cfg.GeminiEnabled() {
			return nil, ErrGeminiDisabled
		}
		mu.Lock()
		defer mu.Unlock()
		if gc == nil {
			// the client outlives this request
			c, err := build(context.WithoutCancel(ctx), client.GeminiConfig{
				Project:  cfg.GoogleCloudProject,
				Location: cfg.GoogleCloudLocation,
				APIKey:   cfg.GeminiAPIKey,
			})
			if err != nil {
				return nil, err
			}
			gc = c
		}
		return client.NewGeminiBackendFromClient(gc, model), nil
	}
}
