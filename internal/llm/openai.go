package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	// minRequestInterval paces outbound calls so concurrent fan-outs
	// sharing one client do not burst the provider.
	minRequestInterval = 100 * time.Millisecond

	maxRetries = 3
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAIClient creates a client for the given model. baseURL may be
// empty to use the public OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, generr("new client", "api key is required")
	}
	if model == "" {
		return nil, generr("new client", "model is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Model returns the model name this client generates with.
func (c *OpenAIClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema *jsonSchemaParam `json:"json_schema,omitempty"`
}

type jsonSchemaParam struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	return c.complete(ctx, systemPrompt, userPrompt, "")
}

// CompleteWithSchema implements Client. jsonSchema is a raw JSON schema
// document; the provider is asked for strict structured output and the
// payload is surfaced in Response.Structured.
func (c *OpenAIClient) CompleteWithSchema(ctx context.Context, systemPrompt, userPrompt, jsonSchema string) (*Response, error) {
	if jsonSchema == "" {
		return nil, generr("complete", "empty json schema")
	}
	return c.complete(ctx, systemPrompt, userPrompt, jsonSchema)
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt, jsonSchema string) (*Response, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0,
	}
	if jsonSchema != "" {
		reqBody.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaParam{
				Name:   "response",
				Strict: true,
				Schema: json.RawMessage(jsonSchema),
			},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, generr("complete", "marshal request: %v", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	body, err := c.send(ctx, payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, generr("complete", "decode response: %v", err)
	}
	if parsed.Error != nil {
		return nil, generr("complete", "provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, generr("complete", "no choices in response")
	}

	choice := parsed.Choices[0]
	resp := &Response{
		Content:      choice.Message.Content,
		FinishReason: mapFinishReason(choice.FinishReason),
	}
	if jsonSchema != "" {
		resp.Structured = json.RawMessage(choice.Message.Content)
	}
	return resp, nil
}

// send posts the payload with pacing and a bounded retry on 429.
func (c *OpenAIClient) send(ctx context.Context, payload []byte) ([]byte, error) {
	c.pace(ctx)

	url := c.baseURL + "/chat/completions"
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, generr("complete", "canceled while backing off: %v", ctx.Err())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, generr("complete", "build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, generr("complete", "request failed: %v", err)
		}

		body, readErr := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if readErr != nil {
			return nil, generr("complete", "read response: %v", readErr)
		}

		if httpResp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429): %s", truncateBody(body))
			continue
		}
		if httpResp.StatusCode != http.StatusOK {
			return nil, generr("complete", "status %d: %s", httpResp.StatusCode, truncateBody(body))
		}
		return body, nil
	}

	return nil, generr("complete", "retries exhausted: %v", lastErr)
}

// pace enforces the minimum interval between requests on this client.
func (c *OpenAIClient) pace(ctx context.Context) {
	c.mu.Lock()
	wait := minRequestInterval - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func mapFinishReason(raw string) FinishReason {
	switch raw {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishOther
	}
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
