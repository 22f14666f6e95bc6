// Package httpapi implements embedder.Provider against a self-hosted HTTP
// embedding service.
//
// The service is expected to expose a POST /embeddings endpoint accepting
// {"model": ..., "input": [texts]} and returning {"data": [{"embedding":
// [...]}]} with one entry per input, the shape most local embedding
// servers speak.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to an HTTP embedding service.
type Client struct {
	// client is the HTTP client for API requests.
	client *http.Client

	// apiKey optionally authenticates requests via a Bearer token.
	apiKey string

	// model is the embedding model name sent with each request.
	model string

	// baseURL is the service base URL.
	baseURL string

	// dimensions is the dimension of embedding vectors.
	dimensions int
}

// Config contains configuration for creating an HTTP embedder client.
type Config struct {
	// BaseURL is the service base URL (required), e.g. "http://localhost:8108".
	BaseURL string

	// Model is the model name sent with each request.
	Model string

	// APIKey is an optional Bearer token; empty sends no Authorization header.
	APIKey string

	// Dimensions is the vector dimension (default: 768).
	Dimensions int

	// HTTPClient is a custom HTTP client (uses a 30s-timeout default if nil).
	HTTPClient *http.Client
}

// NewClient creates an HTTP embedder client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 768
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		client:     client,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		dimensions: dimensions,
	}, nil
}

// Embed converts one text into its vector embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := c.post(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, errors.New("embedding generation failed: no embeddings returned from service")
	}
	return embeddings[0], nil
}

// EmbedBatch converts several texts into vectors in one request, results
// aligned with the input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings, err := c.post(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from service (got %d, expected %d)", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// post sends one embedding request and decodes the returned vectors.
func (c *Client) post(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"input": texts,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	embeddings := make([][]float64, len(response.Data))
	for i, item := range response.Data {
		embeddings[i] = item.Embedding
	}
	return embeddings, nil
}

// Dimensions returns the vector dimension this client produces.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the HTTP client holds no connection state worth closing.
func (c *Client) Close() error {
	return nil
}
