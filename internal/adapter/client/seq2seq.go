package client

import (
	"context"
	"fmt"
	"healthcare-assistant/internal/domain/entity"
	"net/http"
)

// Seq2SeqBackend runs an encoder-decoder model through the hosted
// text2text-generation pipeline. Its output does not repeat the input.
type Seq2SeqBackend struct {
	url  string
	opts httpOptions
}

func NewSeq2SeqBackend(baseURL, repo string, opts ...Option) *Seq2SeqBackend {
	return &Seq2SeqBackend{
		url:  pipelineURL(baseURL, TaskText2TextGeneration, repo),
		opts: newHTTPOptions(opts),
	}
}

func (s *Seq2SeqBackend) Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	var out []pipelineOutput
	if err := s.opts.do(ctx, "seq2seq", http.MethodPost, s.url, newPipelineRequest(text, params), &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("seq2seq: %w", errNoOutput)
	}
	return out[0].GeneratedText, nil
}
