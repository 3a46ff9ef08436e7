package client

import (
	"context"
	"fmt"
	"healthcare-assistant/internal/domain/entity"
	"net/http"
	"strings"
)

// CausalBackend talks to a text-generation-inference server hosting a
// causal language model. The decoded sequence includes the prompt, like
// decoding the full output of generate().
type CausalBackend struct {
	endpoint string
	opts     httpOptions
}

func NewCausalBackend(endpoint string, opts ...Option) *CausalBackend {
	return &CausalBackend{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		opts:     newHTTPOptions(opts),
	}
}

type tgiParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	DoSample       bool `json:"do_sample"`
	ReturnFullText bool `json:"return_full_text"`
}

type tgiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tgiParameters `json:"parameters"`
}

type tgiResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (c *CausalBackend) Generate(ctx context.Context, text string, params entity.GenerationParams) (string, error) {
	if params.NumSamples > 1 {
		return "", fmt.Errorf("causal: %d samples requested, server returns one", params.NumSamples)
	}
	req := tgiRequest{
		Inputs: text,
		Parameters: tgiParameters{
			MaxNewTokens:   params.MaxLength,
			DoSample:       params.Sample,
			ReturnFullText: true,
		},
	}
	var out tgiResponse
	if err := c.opts.do(ctx, "causal", http.MethodPost, c.endpoint+"/generate", req, &out); err != nil {
		return "", err
	}
	return out.GeneratedText, nil
}

// Probe checks the server's health route.
func (c *CausalBackend) Probe(ctx context.Context) error {
	return c.opts.do(ctx, "causal", http.MethodGet, c.endpoint+"/health", nil, nil)
}
