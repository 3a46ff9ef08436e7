package client

import (
	"context"
	"errors"
	"healthcare-assistant/internal/domain/entity"

	"google.golang.org/genai"
)

type GeminiBackend struct {
	client *genai.Client
	model  string
}

// GeminiConfig selects Vertex AI (Project/Location) or the Gemini API (APIKey).
type GeminiConfig struct {
	Project  string
	Location string
	APIKey   string
	BaseURL  string // overrides the API endpoint, mostly for tests
}

func NewGenAIClient(ctx context.Context, cfg GeminiConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	}
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	return genai.NewClient(ctx, cc)
}

func NewGeminiBackendFromClient(c *genai.Client, model string) *GeminiBackend {
	return &GeminiBackend{
		client: c,
		model:  model,
	}
}

func (g *GeminiBackend) Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	temperature := float32(0)
	if params.Sample {
		temperature = 1
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(params.MaxLength),
		CandidateCount:  int32(params.NumSamples),
		Temperature:     genai.Ptr(temperature),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), cfg)
	if err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	return result.Text(), nil
}
