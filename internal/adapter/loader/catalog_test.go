package loader

import (
	"context"
	"errors"
	"healthcare-assistant/internal/adapter/client"
	"healthcare-assistant/internal/config"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/usecase"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	want := map[entity.ModelChoice]string{
		entity.ModelNEENMED: DriverCausal,
		entity.ModelDECMED:  DriverPipeline,
		entity.ModelNBMED:   DriverSeq2Seq,
	}
	for m, driver := range want {
		spec, ok := cat.Spec(m)
		if !ok || spec.Driver != driver || spec.Repo != "NamishKhurshid/"+m.String() {
			t.Fatalf("%s: got %+v", m, spec)
		}
	}
}

func TestLoadCatalogOverlay(t *testing.T) {
	path := writeCatalog(t, `
models:
  decmed:
    driver: gemini
    model: gemini-2.5-pro
  NBMED:
    repo: acme/nb-small
`)
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if spec, _ := cat.Spec(entity.ModelDECMED); spec.Driver != DriverGemini || spec.Model != "gemini-2.5-pro" {
		t.Fatalf("DECMED = %+v", spec)
	}
	if spec, _ := cat.Spec(entity.ModelNBMED); spec.Driver != DriverSeq2Seq || spec.Repo != "acme/nb-small" {
		t.Fatalf("NBMED = %+v", spec)
	}
	if spec, _ := cat.Spec(entity.ModelNEENMED); spec.Driver != DriverCausal {
		t.Fatalf("NEENMED = %+v", spec)
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"unknown model":  "models:\n  GPT2:\n    driver: causal\n",
		"unknown driver": "models:\n  NBMED:\n    driver: onnx\n",
		"bad yaml":       "models: [",
		"misspelled key": "models:\n  NBMED:\n    drvier: seq2seq\n",
		"bad endpoint":   "models:\n  NEENMED:\n    endpoint: tgi.local\n",
		"no models":      "catalog: {}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(writeCatalog(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		HFAPIBase:         "http://hf.invalid",
		GeminiModel:       "gemini-2.5-flash",
		HTTPClientTimeout: time.Second,
	}
}

func noGemini(context.Context, string) (repository.Backend, error) {
	return nil, errors.New("gemini not configured")
}

func TestFactoriesBuildDriverPerModel(t *testing.T) {
	f := Factories(DefaultCatalog(), testConfig(), noGemini)
	ctx := context.Background()

	checks := map[entity.ModelChoice]func(repository.Backend) bool{
		entity.ModelNEENMED: func(b repository.Backend) bool { _, ok := b.(*client.CausalBackend); return ok },
		entity.ModelDECMED:  func(b repository.Backend) bool { _, ok := b.(*client.PipelineBackend); return ok },
		entity.ModelNBMED:   func(b repository.Backend) bool { _, ok := b.(*client.Seq2SeqBackend); return ok },
	}
	for m, check := range checks {
		b, err := f[m](ctx)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !check(b) {
			t.Fatalf("%s: unexpected backend %T", m, b)
		}
	}
}

func TestFactoriesWrapWhenResilienceConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.BackendMaxRetries = 2
	f := Factories(DefaultCatalog(), cfg, noGemini)

	b, err := f[entity.ModelDECMED](context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*usecase.ResilientBackend); !ok {
		t.Fatalf("expected ResilientBackend, got %T", b)
	}
}

func TestFactoriesGeminiUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackModel = DriverGemini
	f := Factories(DefaultCatalog(), cfg, noGemini)

	if _, err := f[entity.ModelNBMED](context.Background()); err == nil || !strings.Contains(err.Error(), "fallback") {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestFactoriesGeminiDriver(t *testing.T) {
	cat := DefaultCatalog()
	cat.Models["NBMED"] = ModelSpec{Driver: DriverGemini}
	var asked string
	provider := func(_ context.Context, model string) (repository.Backend, error) {
		asked = model
		return &stubBackend{name: "gemini"}, nil
	}

	b, err := Factories(cat, testConfig(), provider)[entity.ModelNBMED](context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if asked != "gemini-2.5-flash" {
		t.Fatalf("asked for %q", asked)
	}
	if out, _ := b.Generate(context.Background(), "q", entity.DefaultGenerationParams()); out != "gemini" {
		t.Fatalf("unexpected backend output %q", out)
	}
}

func TestCausalEndpointResolution(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		io.WriteString(w, `{"generated_text":"ok"}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HFAPIBase = srv.URL
	r := NewRegistry(Factories(DefaultCatalog(), cfg, noGemini))
	b, err := r.Load(context.Background(), entity.ModelNEENMED)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := b.Generate(context.Background(), "q", entity.DefaultGenerationParams()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []string{"/models/NamishKhurshid/NEENMED/health", "/models/NamishKhurshid/NEENMED/generate"}
	if strings.Join(hits, ",") != strings.Join(want, ",") {
		t.Fatalf("hits = %v", hits)
	}

	cfg.NEENMEDEndpoint = srv.URL + "/tgi"
	hits = nil
	b, _ = Factories(DefaultCatalog(), cfg, noGemini)[entity.ModelNEENMED](context.Background())
	b.Generate(context.Background(), "q", entity.DefaultGenerationParams())
	if len(hits) != 1 || hits[0] != "/tgi/generate" {
		t.Fatalf("hits = %v", hits)
	}
}

func TestGenAIProviderDisabled(t *testing.T) {
	p := NewGenAIProvider(testConfig())
	if _, err := p(context.Background(), "gemini-2.5-flash"); !errors.Is(err, ErrGeminiDisabled) {
		t.Fatalf("expected ErrGeminiDisabled, got %v", err)
	}
}

func TestGenAIProviderSharesClient(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "test-key"
	p := NewGenAIProvider(cfg)

	a, err := p(context.Background(), "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	b, err := p(context.Background(), "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, ok := a.(*client.GeminiBackend); !ok {
		t.Fatalf("unexpected backend %T", a)
	}
	if a == b {
		t.Fatal("each model gets its own backend value")
	}
}

func TestGenAIProviderRetriesFailedClientBuild(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "test-key"
	builds := 0
	transient := errors.New("metadata server unreachable")
	build := func(ctx context.Context, gc client.GeminiConfig) (*genai.Client, error) {
		builds++
		if builds == 1 {
			return nil, transient
		}
		if ctx.Err() != nil {
			t.Errorf("client built with a cancelled context")
		}
		gc.BaseURL = "http://gemini.invalid/"
		return client.NewGenAIClient(ctx, gc)
	}
	p := newGenAIProvider(cfg, build)

	if _, err := p(context.Background(), "gemini-2.5-flash"); !errors.Is(err, transient) {
		t.Fatalf("expected build error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p(ctx, "gemini-2.5-flash"); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if _, err := p(context.Background(), "gemini-2.5-pro"); err != nil {
		t.Fatalf("cached client: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}
}
