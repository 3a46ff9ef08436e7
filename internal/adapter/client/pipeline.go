package client

import (
	"context"
	"errors"
	"fmt"
	"healthcare-assistant/internal/domain/entity"
	"net/http"
	"strings"
)

const (
	TaskTextGeneration      = "text-generation"
	TaskText2TextGeneration = "text2text-generation"
)

type pipelineParameters struct {
	MaxLength          int  `json:"max_length"`
	NumReturnSequences int  `json:"num_return_sequences"`
	DoSample           bool `json:"do_sample"`
}

type pipelineOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type pipelineRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters pipelineParameters `json:"parameters"`
	Options    pipelineOptions    `json:"options"`
}

type pipelineOutput struct {
	GeneratedText string `json:"generated_text"`
}

var errNoOutput = errors.New("no generated sequences in response")

// pipelineURL builds {base}/pipeline/{task}/{repo}.
func pipelineURL(base, task, repo string) string {
	return strings.TrimSuffix(base, "/") + "/pipeline/" + task + "/" + strings.Trim(repo, "/")
}

func newPipelineRequest(text string, params entity.GenerationParams) pipelineRequest {
	return pipelineRequest{
		Inputs: text,
		Parameters: pipelineParameters{
			MaxLength:          params.MaxLength,
			NumReturnSequences: params.NumSamples,
			DoSample:           params.Sample,
		},
		// sampled output must not be served from the inference cache
		Options: pipelineOptions{WaitForModel: true, UseCache: !params.Sample},
	}
}

// PipelineBackend calls a hosted text-generation pipeline and returns the
// first generated sequence.
type PipelineBackend struct {
	url  string
	opts httpOptions
}

func NewPipelineBackend(baseURL, repo string, opts ...Option) *PipelineBackend {
	return &PipelineBackend{
		url:  pipelineURL(baseURL, TaskTextGeneration, repo),
		opts: newHTTPOptions(opts),
	}
}

func (p *PipelineBackend) Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	var out []pipelineOutput
	if err := p.opts.do(ctx, "pipeline", http.MethodPost, p.url, newPipelineRequest(text, params), &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("pipeline: %w", errNoOutput)
	}
	return out[0].GeneratedText, nil
}
