package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTavilyURL  = "https://api.tavily.com/search"
	defaultMaxResults = 3
)

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// TavilyOption adjusts a Tavily client.
type TavilyOption func(*Tavily)

// WithEndpoint overrides the API endpoint. Used in tests.
func WithEndpoint(url string) TavilyOption {
	return func(t *Tavily) { t.endpoint = url }
}

// WithMaxResults caps the number of results per query.
func WithMaxResults(n int) TavilyOption {
	return func(t *Tavily) {
		if n > 0 {
			t.maxResults = n
		}
	}
}

// NewTavily creates a Tavily client. The API key is required here even
// though Search itself never fails: a misconfigured credential should
// surface before the pipeline starts, not as silently empty searches.
func NewTavily(apiKey string, logger *zap.Logger, opts ...TavilyOption) (*Tavily, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tavily{
		apiKey:     apiKey,
		endpoint:   defaultTavilyURL,
		maxResults: defaultMaxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// Search implements Engine. Failures are logged and degrade to nil.
func (t *Tavily) Search(ctx context.Context, query string) []Result {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:     t.apiKey,
		Query:      query,
		MaxResults: t.maxResults,
	})
	if err != nil {
		t.logger.Warn("search: marshal request failed", zap.Error(err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		t.logger.Warn("search: build request failed", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("search: request failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		t.logger.Warn("search: read response failed", zap.Error(err))
		return nil
	}
	if httpResp.StatusCode != http.StatusOK {
		t.logger.Warn("search: unexpected status",
			zap.Int("status", httpResp.StatusCode),
			zap.String("query", query))
		return nil
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.logger.Warn("search: decode response failed", zap.Error(err))
		return nil
	}

	if len(parsed.Results) > t.maxResults {
		parsed.Results = parsed.Results[:t.maxResults]
	}
	return parsed.Results
}
