package usecase

import (
	"context"
	"errors"
	"fmt"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/logging"
	"math/rand"
	"strings"
	"time"
)

// ResilientBackend wraps a Backend with an optional timeout, retries and a
// fallback. The zero configuration makes exactly one attempt on the primary.
type ResilientBackend struct {
	label      string
	primary    repository.Backend
	fallback   repository.Backend // e.g. Gemini when a hosted model is cold
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration // 0 means the caller's context decides
}

type ResilienceOption func(*ResilientBackend)

func WithRetries(n int) ResilienceOption {
	return func(r *ResilientBackend) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

func WithBaseDelay(d time.Duration) ResilienceOption {
	return func(r *ResilientBackend) {
		if d > 0 {
			r.baseDelay = d
		}
	}
}

func WithTimeout(d time.Duration) ResilienceOption {
	return func(r *ResilientBackend) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithFallback(b repository.Backend) ResilienceOption {
	return func(r *ResilientBackend) {
		r.fallback = b
	}
}

func NewResilientBackend(label string, primary repository.Backend, opts ...ResilienceOption) *ResilientBackend {
	r := &ResilientBackend{
		label:     label,
		primary:   primary,
		baseDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ResilientBackend) Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.executeWithRetry(ctx, text, params)
	if err == nil {
		return out, nil
	}
	if r.fallback == nil || ctx.Err() != nil {
		return "", err
	}

	logging.Info("reliability", "primary exhausted, switching to fallback", "model", r.label, "error", err)

	out, fbErr := r.fallback.Generate(ctx, text, params)
	if fbErr != nil {
		return "", fmt.Errorf("both primary and fallback failed: %v: %w", err, fbErr)
	}
	return out, nil
}

func (r *ResilientBackend) executeWithRetry(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		out, err := r.primary.Generate(ctx, text, params)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		wait := r.calculateBackoff(attempt)
		logging.Info("reliability", "retrying", "model", r.label, "attempt", attempt+1, "wait", wait)
		select {
		case <-time.After(wait):
			continue
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	// rate limits, server errors and cold models
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "currently loading") ||
		strings.Contains(msg, "deadline")
}

func (r *ResilientBackend) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}

// Probe forwards to the primary when it supports readiness checks.
func (r *ResilientBackend) Probe(ctx context.Context) error {
	if p, ok := r.primary.(repository.Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}
