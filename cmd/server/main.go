package main

import (
	"context"
	"log"
	"time"

	"healthcare-assistant/internal/adapter/api"
	"healthcare-assistant/internal/adapter/loader"
	"healthcare-assistant/internal/adapter/metrics"
	"healthcare-assistant/internal/adapter/store"
	"healthcare-assistant/internal/config"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	if !config.LoadEnvFile(config.DefaultEnvFile) {
		log.Println("Warning: .env.dev file not found, using system environment variables")
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	catalog, err := loader.LoadCatalog(cfg.ModelsConfig)
	if err != nil {
		log.Fatalf("failed to load model catalog: %v", err)
	}

	registry := loader.NewRegistry(loader.Factories(catalog, cfg, loader.NewGenAIProvider(cfg)))
	dispatcher := usecase.NewDispatcher(registry)

	// Per-user quotas: Redis when shared, process memory otherwise
	var limiter repository.UsageLimiter = store.NoopLimiter{}
	switch {
	case cfg.LimiterEnabled() && cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		limiter = store.NewRedisLimiter(rdb, cfg.UserRequestLimit, cfg.UsageWindow)
	case cfg.LimiterEnabled():
		mem := store.NewMemoryLimiter(cfg.UserRequestLimit, cfg.UsageWindow)
		defer mem.Close()
		limiter = mem
	}

	if cfg.WarmBackends {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			n := registry.Warm(warmCtx)
			log.Printf("[WARMER] Pre-warm complete. %d/%d backends loaded.", n, len(entity.ModelChoices))
		}()
	}

	drivers := make(map[entity.ModelChoice]string, len(entity.ModelChoices))
	for _, m := range entity.ModelChoices {
		if spec, ok := catalog.Spec(m); ok {
			drivers[m] = spec.Driver
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("healthcare_assistant", reg)

	app := fiber.New(fiber.Config{
		AppName: "HealthCare Assistant",
	})

	handler := api.NewPromptHandler(api.HandlerConfig{
		Dispatcher: dispatcher,
		Limiter:    limiter,
		Metrics:    m,
		Status:     registry,
		Drivers:    drivers,
		Version:    cfg.AppVersion,
		Env:        cfg.Env,
	})
	api.SetupRouter(app, handler, m)

	log.Printf("HealthCare Assistant running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
