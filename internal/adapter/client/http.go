package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Option configures the HTTP-based inference backends.
type Option func(*httpOptions)

type httpOptions struct {
	token  string
	client *http.Client
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(o *httpOptions) {
		o.token = token
	}
}

// WithHTTPClient replaces the default client (120s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(o *httpOptions) {
		if c != nil {
			o.client = c
		}
	}
}

func newHTTPOptions(opts []Option) httpOptions {
	o := httpOptions{client: &http.Client{Timeout: 120 * time.Second}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// StatusError is a non-2xx answer from an inference server.
type StatusError struct {
	Name   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Name, e.Status, e.Body)
}

func (e *StatusError) StatusCode() int {
	return e.Code
}

func (o httpOptions) do(ctx context.Context, name, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Name:   name,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(msg)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}
