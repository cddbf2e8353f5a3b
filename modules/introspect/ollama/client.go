// Package ollama implements model introspection and text generation
// against an Ollama-compatible HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
)

const defaultTimeout = 10 * time.Second

// Client talks to an Ollama-compatible server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Compile-time interface guard.
var _ ctxengine.Introspector = (*Client)(nil)

// New creates a Client for the given base URL (e.g. "http://localhost:11434").
// A non-positive timeout falls back to 10 s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// showRequest is the body for POST /api/show.
type showRequest struct {
	Name string `json:"name"`
}

// showResponse is the subset of the /api/show payload we consume.
type showResponse struct {
	ModelInfo  map[string]any `json:"model_info"`
	Parameters string         `json:"parameters"`
}

// Show queries model metadata. The returned ModelInfo carries the raw
// structured info and the free-form parameter listing; the caller decides
// which fields to trust.
func (c *Client) Show(ctx context.Context, model string) (ctxengine.ModelInfo, error) {
	body, err := json.Marshal(showRequest{Name: model})
	if err != nil {
		return ctxengine.ModelInfo{}, fmt.Errorf("ollama: marshal show request: %w", err)
	}

	var resp showResponse
	if err := c.post(ctx, "/api/show", body, &resp); err != nil {
		return ctxengine.ModelInfo{}, err
	}

	return ctxengine.ModelInfo{
		Info:       resp.ModelInfo,
		Parameters: resp.Parameters,
	}, nil
}

// Model is one installed model as reported by /api/tags.
type Model struct {
	Name string `json:"name"`
}

// tagsResponse is the body of GET /api/tags.
type tagsResponse struct {
	Models []Model `json:"models"`
}

// Tags lists the models installed on the server.
func (c *Client) Tags(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: build tags request: %w", err)
	}

	var resp tagsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// generateRequest is the body for POST /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the non-streaming /api/generate payload.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a non-streaming completion. Used for summarization, not
// for end-user chat.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal generate request: %w", err)
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// post sends a JSON POST and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes the response, treating any
// non-2xx status as an error.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ollama: %s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
