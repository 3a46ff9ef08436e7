package loader

import (
	"context"
	"fmt"
	"healthcare-assistant/internal/adapter/client"
	"healthcare-assistant/internal/config"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/usecase"
	"net/http"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverCausal   = "causal"
	DriverPipeline = "pipeline"
	DriverSeq2Seq  = "seq2seq"
	DriverGemini   = "gemini"
)

// ModelSpec describes how one ModelChoice is served.
type ModelSpec struct {
	Driver   string `yaml:"driver"`
	Repo     string `yaml:"repo"`
	Endpoint string `yaml:"endpoint,omitempty"` // causal only; defaults to the hosted model URL
	Model    string `yaml:"model,omitempty"`    // gemini only
}

type Catalog struct {
	Models map[string]ModelSpec `yaml:"models"`
}

// DefaultCatalog serves each model with the architecture it was trained as.
func DefaultCatalog() Catalog {
	return Catalog{Models: map[string]ModelSpec{
		"NEENMED": {Driver: DriverCausal, Repo: "NamishKhurshid/NEENMED"},
		"DECMED":  {Driver: DriverPipeline, Repo: "NamishKhurshid/DECMED"},
		"NBMED":   {Driver: DriverSeq2Seq, Repo: "NamishKhurshid/NBMED"},
	}}
}

// LoadCatalog reads a YAML catalog and overlays it on DefaultCatalog.
// An empty path returns the defaults.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read models config: %w", err)
	}
	if err := validateCatalogDocument(data); err != nil {
		return Catalog{}, err
	}
	var overlay Catalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Catalog{}, fmt.Errorf("parse models config: %w", err)
	}
	for name, spec := range overlay.Models {
		m, err := entity.ParseModelChoice(name)
		if err != nil {
			return Catalog{}, fmt.Errorf("models config: %w", err)
		}
		base := cat.Models[m.String()]
		if spec.Driver == "" {
			spec.Driver = base.Driver
		}
		if spec.Repo == "" {
			spec.Repo = base.Repo
		}
		cat.Models[m.String()] = spec
	}
	return cat, cat.Validate()
}

func (c Catalog) Validate() error {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec := c.Models[name]
		switch spec.Driver {
		case DriverCausal, DriverPipeline, DriverSeq2Seq:
			if spec.Repo == "" && spec.Endpoint == "" {
				return fmt.Errorf("models config: %s: repo is required", name)
			}
		case DriverGemini:
		default:
			return fmt.Errorf("models config: %s: unknown driver %q", name, spec.Driver)
		}
	}
	for _, m := range entity.ModelChoices {
		if _, ok := c.Models[m.String()]; !ok {
			return fmt.Errorf("models config: %s is not configured", m)
		}
	}
	return nil
}

// Spec returns the serving spec for a model.
func (c Catalog) Spec(m entity.ModelChoice) (ModelSpec, bool) {
	s, ok := c.Models[m.String()]
	return s, ok
}

// GenAIProvider lazily yields the shared genai-backed client for a model name.
// It returns an error when Gemini is not configured.
type GenAIProvider func(ctx context.Context, model string) (repository.Backend, error)

// Factories turns the catalog into one Factory per model, wrapping each
// backend with the configured timeout, retries and fallback.
func Factories(cat Catalog, cfg *config.Config, gemini GenAIProvider) map[entity.ModelChoice]Factory {
	httpOpts := []client.Option{
		client.WithToken(cfg.HFAPIToken),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
	}

	out := make(map[entity.ModelChoice]Factory, len(entity.ModelChoices))
	for _, m := range entity.ModelChoices {
		spec, ok := cat.Spec(m)
		if !ok {
			continue
		}
		out[m] = func(ctx context.Context) (repository.Backend, error) {
			backend, err := buildBackend(ctx, m, spec, cfg, gemini, httpOpts)
			if err != nil {
				return nil, err
			}
			return wrapResilient(ctx, m, backend, cfg, gemini)
		}
	}
	return out
}

func buildBackend(ctx context.Context, m entity.ModelChoice, spec ModelSpec, cfg *config.Config, gemini GenAIProvider, httpOpts []client.Option) (repository.Backend, error) {
	switch spec.Driver {
	case DriverCausal:
		endpoint := spec.Endpoint
		if endpoint == "" && m == entity.ModelNEENMED {
			endpoint = cfg.NEENMEDEndpoint
		}
		if endpoint == "" {
			endpoint = cfg.HFAPIBase + "/models/" + strings.Trim(spec.Repo, "/")
		}
		return client.NewCausalBackend(endpoint, httpOpts...), nil
	case DriverPipeline:
		return client.NewPipelineBackend(cfg.HFAPIBase, spec.Repo, httpOpts...), nil
	case DriverSeq2Seq:
		return client.NewSeq2SeqBackend(cfg.HFAPIBase, spec.Repo, httpOpts...), nil
	case DriverGemini:
		model := spec.Model
		if model == "" {
			model = cfg.GeminiModel
		}
		return gemini(ctx, model)
	}
	return nil, fmt.Errorf("%s: unknown driver %q", m, spec.Driver)
}

func wrapResilient(ctx context.Context, m entity.ModelChoice, backend repository.Backend, cfg *config.Config, gemini GenAIProvider) (repository.Backend, error) {
	var opts []usecase.ResilienceOption
	if cfg.BackendMaxRetries > 0 {
		opts = append(opts, usecase.WithRetries(cfg.BackendMaxRetries))
	}
	if cfg.GenerationTimeout > 0 {
		opts = append(opts, usecase.WithTimeout(cfg.GenerationTimeout))
	}
	if cfg.FallbackModel == DriverGemini {
		fb, err := gemini(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		opts = append(opts, usecase.WithFallback(fb))
	}
	if len(opts) == 0 {
		return backend, nil
	}
	return usecase.NewResilientBackend(m.String(), backend, opts...), nil
}
