package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/solarflow/solarflow/internal/models"
)

// Client talks to the external vector-store collaborator. Ranking and
// relevance thresholds live entirely on the collaborator side; an empty
// result set is a valid outcome.
type Client struct {
	baseURL    string
	httpClient *resty.Client
}

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type queryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type queryResult struct {
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type queryResponse struct {
	Results []queryResult `json:"results"`
}

// NewClient creates a vector-store client. Returns nil for an empty base
// URL, meaning retrieval is disabled.
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", "SolarFlow/1.0").
			SetTimeout(timeout),
	}
}

// IsEnabled reports whether the client is configured.
func (c *Client) IsEnabled() bool {
	return c != nil && c.baseURL != ""
}

// Search returns the top-k passages for a query, ordered by the
// collaborator's own ranking.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("vector store client is not configured")
	}

	var resp queryResponse
	httpResp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(queryRequest{Text: query, TopK: topK}).
		SetResult(&resp).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("vector store query failed: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("vector store query error (%d): %s", httpResp.StatusCode(), httpResp.String())
	}

	passages := make([]models.Passage, 0, len(resp.Results))
	for _, r := range resp.Results {
		passages = append(passages, models.Passage{
			Text:     r.Text,
			Score:    r.Score,
			Metadata: r.Metadata,
		})
	}
	return passages, nil
}
