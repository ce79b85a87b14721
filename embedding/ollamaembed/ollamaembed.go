// Package ollamaembed implements embedding.Provider on top of the Ollama
// HTTP embedding API (or any server exposing the same /api/embed contract).
package ollamaembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/escomatch/embedding"
)

// Client calls a remote embedding server. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	device     string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit throttles requests client-side to rps requests per second
// with the given burst. Embedding backends are usually the scarce resource;
// throttling here keeps concurrent extractions from overloading them.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDevice sets the compute-target hint forwarded to the server.
func WithDevice(device string) Option {
	return func(c *Client) {
		c.device = device
	}
}

// New creates a Client for the given server base URL (e.g.
// "http://localhost:11434") and model name.
func New(baseURL, model string, optFns ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
		model:      model,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// ModelName implements embedding.Provider.
func (c *Client) ModelName() string { return c.model }

// SetDevice implements embedding.DeviceConfigurable.
func (c *Client) SetDevice(device string) { c.device = device }

type embedRequest struct {
	Model   string         `json:"model"`
	Input   []string       `json:"input"`
	Options map[string]any `json:"options,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch implements embedding.Provider.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody := embedRequest{
		Model: c.model,
		Input: texts,
	}
	if c.device != "" {
		reqBody.Options = map[string]any{"device": c.device}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", embedding.ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", embedding.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", embedding.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", embedding.ErrProvider, resp.Status)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", embedding.ErrProvider, err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", embedding.ErrProvider, len(out.Embeddings), len(texts))
	}

	return out.Embeddings, nil
}
