package api

import (
	"context"
	"errors"
	"fmt"
	"healthcare-assistant/internal/adapter/metrics"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/logging"
	"healthcare-assistant/internal/usecase"
	"time"

	"github.com/gofiber/fiber/v2"
)

// BackendStatus reports which models hold a loaded handle.
type BackendStatus interface {
	Loaded() map[entity.ModelChoice]bool
}

type HandlerConfig struct {
	Dispatcher *usecase.Dispatcher
	Limiter    repository.UsageLimiter
	Metrics    *metrics.Metrics
	Status     BackendStatus
	Drivers    map[entity.ModelChoice]string
	Version    string
	Env        string
}

type PromptHandler struct {
	dispatcher *usecase.Dispatcher
	limiter    repository.UsageLimiter
	metrics    *metrics.Metrics
	status     BackendStatus
	drivers    map[entity.ModelChoice]string
	version    string
	env        string
}

func NewPromptHandler(cfg HandlerConfig) *PromptHandler {
	return &PromptHandler{
		dispatcher: cfg.Dispatcher,
		limiter:    cfg.Limiter,
		metrics:    cfg.Metrics,
		status:     cfg.Status,
		drivers:    cfg.Drivers,
		version:    cfg.Version,
		env:        cfg.Env,
	}
}

// generate validates the selections, applies the usage quota and runs the
// dispatcher. A nil response with nil error means the query was blank.
func (h *PromptHandler) generate(ctx context.Context, req entity.QueryRequest, clientIP string) (*entity.QueryResponse, error) {
	model, err := entity.ParseModelChoice(req.Model)
	if err != nil {
		return nil, err
	}
	perspective, err := entity.ParsePerspective(req.Perspective)
	if err != nil {
		return nil, err
	}
	if entity.IsBlank(req.Query) {
		return nil, nil
	}

	userID := req.UserID
	if userID == "" {
		userID = clientIP
	}
	allowed, err := h.limiter.Reserve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rate limiter check failed: %w", err)
	}
	if !allowed {
		return nil, entity.ErrRateLimitExceeded
	}

	start := time.Now()
	resp, err := h.dispatcher.Dispatch(ctx, model, perspective, req.Query)
	if err != nil {
		h.metrics.ObserveGeneration(model.String(), perspective.String(), "error", time.Since(start))
		logging.Error("dispatch", "generation failed", "model", model, "perspective", perspective, "error", err)
		// only successful generations count against the quota
		if rerr := h.limiter.Release(ctx, userID); rerr != nil {
			logging.Error("limiter", "usage release failed", "user", userID, "error", rerr)
		}
		return nil, err
	}
	h.metrics.ObserveGeneration(model.String(), perspective.String(), "ok", time.Since(start))
	return resp, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownModel),
		errors.Is(err, entity.ErrUnknownPerspective),
		errors.Is(err, entity.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, entity.ErrRateLimitExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, entity.ErrBackendUnavailable):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// publicMessage hides internal failures from the caller.
func publicMessage(err error) string {
	switch statusFor(err) {
	case fiber.StatusBadRequest, fiber.StatusTooManyRequests:
		return err.Error()
	case fiber.StatusBadGateway:
		return "the selected model could not generate a response, please try again"
	}
	return "internal gateway error"
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func (h *PromptHandler) HandleGenerate(c *fiber.Ctx) error {
	var req entity.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	resp, err := h.generate(c.UserContext(), req, c.IP())
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": publicMessage(err)})
	}
	if resp == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	resp.RequestID = requestID(c)
	return c.Status(fiber.StatusOK).JSON(resp)
}

type modelInfo struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
	Loaded bool   `json:"loaded"`
}

func (h *PromptHandler) HandleModels(c *fiber.Ctx) error {
	loaded := h.status.Loaded()
	models := make([]modelInfo, 0, len(entity.ModelChoices))
	for _, m := range entity.ModelChoices {
		models = append(models, modelInfo{Name: m.String(), Driver: h.drivers[m], Loaded: loaded[m]})
	}
	perspectives := make([]string, 0, len(entity.Perspectives))
	for _, p := range entity.Perspectives {
		perspectives = append(perspectives, p.String())
	}
	return c.JSON(fiber.Map{"models": models, "perspectives": perspectives})
}

func (h *PromptHandler) HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"version": h.version,
		"env":     h.env,
	})
}
