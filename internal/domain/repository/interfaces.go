package repository

import (
	"context"
	"healthcare-assistant/internal/domain/entity"
)

// Backend is a loaded text-generation model.
type Backend interface {
	Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error)
}

// Prober is implemented by backends that can report readiness before first use.
type Prober interface {
	Probe(ctx context.Context) error
}

type BackendLoader interface {
	Load(ctx context.Context, model entity.ModelChoice) (Backend, error)
}

// UsageLimiter meters generations per user. Reserve takes one unit of quota
// atomically; Release hands it back when the generation failed.
type UsageLimiter interface {
	Reserve(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}
