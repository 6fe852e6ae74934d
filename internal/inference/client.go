package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the inference client configuration.
type Config struct {
	BaseURL     string  // Default: http://localhost:11434
	Model       string  // Default: llama3.1:8b
	ContextSize int     // Default: 16384
	Temperature float64 // Default: 0.4
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:11434",
		Model:       "llama3.1:8b",
		ContextSize: 16384,
		Temperature: 0.4,
		Timeout:     10 * time.Minute, // Generous for slow local models
	}
}

// Client is the HTTP client for the external model collaborator (an
// Ollama-compatible endpoint).
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new inference client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type generateRequest struct {
	Model       string                 `json:"model"`
	Prompt      string                 `json:"prompt"`
	Stream      bool                   `json:"stream"`
	Temperature float64                `json:"temperature,omitempty"`
	Options     map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Model        string `json:"model"`
	Response     string `json:"response"`
	Done         bool   `json:"done"`
	EvalCount    int    `json:"eval_count,omitempty"`
	EvalDuration int64  `json:"eval_duration,omitempty"`
}

// Result holds the outcome of a completed inference call.
type Result struct {
	Response     string
	TokensPerSec float64
	Latency      time.Duration
	Error        error
}

// Generate streams tokens for a prompt over a channel.
func (c *Client) Generate(ctx context.Context, prompt string) (<-chan string, error) {
	body, err := json.Marshal(generateRequest{
		Model:       c.config.Model,
		Prompt:      prompt,
		Stream:      true,
		Temperature: c.config.Temperature,
		Options:     map[string]interface{}{"num_ctx": c.config.ContextSize},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tokens := make(chan string, 100)
	go func() {
		defer close(tokens)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			var genResp generateResponse
			if err := json.Unmarshal(scanner.Bytes(), &genResp); err != nil {
				continue
			}
			if genResp.Response != "" {
				select {
				case tokens <- genResp.Response:
				case <-ctx.Done():
					return
				}
			}
			if genResp.Done {
				return
			}
		}
	}()

	return tokens, nil
}

// GenerateSync performs a synchronous (non-streaming) generation.
func (c *Client) GenerateSync(ctx context.Context, prompt string) (*Result, error) {
	startTime := time.Now()

	body, err := json.Marshal(generateRequest{
		Model:       c.config.Model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: c.config.Temperature,
		Options:     map[string]interface{}{"num_ctx": c.config.ContextSize},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	tokensPerSec := 0.0
	if genResp.EvalDuration > 0 && genResp.EvalCount > 0 {
		tokensPerSec = float64(genResp.EvalCount) / (float64(genResp.EvalDuration) / 1e9)
	}

	return &Result{
		Response:     genResp.Response,
		TokensPerSec: tokensPerSec,
		Latency:      time.Since(startTime),
	}, nil
}

// Text is the narrow text-in, text-out contract the agents consume.
func (c *Client) Text(ctx context.Context, prompt string) (string, error) {
	result, err := c.GenerateSync(ctx, prompt)
	if err != nil {
		return "", err
	}
	return result.Response, nil
}

// ListModels lists models available on the collaborator.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}
