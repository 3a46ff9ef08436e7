package usecase

import (
	"context"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"strings"
	"time"
)

// controlMarkers are tokenizer special tokens that can leak into decoded text.
var controlMarkers = strings.NewReplacer(
	"<|endoftext|>", "",
	"<|startoftext|>", "",
	"<|im_start|>", "",
	"<|im_end|>", "",
	"<|pad|>", "",
	"<s>", "",
	"</s>", "",
	"<pad>", "",
	"<unk>", "",
	"<mask>", "",
	"[CLS]", "",
	"[SEP]", "",
	"[PAD]", "",
	"[UNK]", "",
	"[MASK]", "",
)

// StripControlMarkers removes special tokens and surrounding whitespace.
func StripControlMarkers(s string) string {
	return strings.TrimSpace(controlMarkers.Replace(s))
}

type Dispatcher struct {
	loader repository.BackendLoader
	now    func() time.Time
}

func NewDispatcher(loader repository.BackendLoader) *Dispatcher {
	return &Dispatcher{loader: loader, now: time.Now}
}

// Dispatch builds the query for the perspective and sends it to the chosen
// backend. Blank input is a no-op and returns a nil response with no error.
func (d *Dispatcher) Dispatch(ctx context.Context, model entity.ModelChoice, perspective entity.Perspective, raw string) (*entity.QueryResponse, error) {
	if entity.IsBlank(raw) {
		return nil, nil
	}
	if !model.Valid() {
		return nil, entity.ErrUnknownModel
	}
	if !perspective.Valid() {
		return nil, entity.ErrUnknownPerspective
	}

	query := entity.BuildQuery(perspective, raw)
	start := d.now()

	backend, err := d.loader.Load(ctx, model)
	if err != nil {
		return nil, &entity.BackendError{Model: model, Op: "load", Err: err}
	}

	out, err := backend.Generate(ctx, query, entity.DefaultGenerationParams())
	if err != nil {
		return nil, &entity.BackendError{Model: model, Op: "generate", Err: err}
	}

	return &entity.QueryResponse{
		Model:       model.String(),
		Perspective: perspective.String(),
		Query:       query,
		Response:    StripControlMarkers(out),
		Latency:     d.now().Sub(start).Milliseconds(),
	}, nil
}
