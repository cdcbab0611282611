package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openRouterURL = "https://openrouter.ai/api/v1"

// Client talks to an OpenRouter-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      retryPolicy
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the trimmed content of the first choice.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// APIError is the provider's error body plus transport details.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
	RequestID  string         `json:"-"`
}

func (e *APIError) Error() string {
	parts := []string{fmt.Sprintf("api error: status=%d", e.StatusCode)}
	if e.Code != "" {
		parts = append(parts, "code="+e.Code)
	}
	if e.RequestID != "" {
		parts = append(parts, "request_id="+e.RequestID)
	}
	if e.Message != "" {
		parts = append(parts, "message="+e.Message)
	}
	return strings.Join(parts, " ")
}

// NewClient builds an OpenRouter client. Zero timeout and retry values take
// the hosted defaults.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    openRouterURL,
		retry:      retryPolicy{attempts: retryMax, base: baseDelay, max: maxDelay}.withDefaults(hostedRetry),
	}
}

// NewClientWithBaseURL is NewClient against another endpoint.
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Generate sends one chat completion. 429 and 5xx responses and transient
// network errors are retried; a Retry-After header takes precedence over the
// computed delay.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var out *GenerateResponse
	err = c.retry.run(ctx, func(ctx context.Context) (time.Duration, bool, error) {
		var (
			wait  time.Duration
			retry bool
			err   error
		)
		out, wait, retry, err = c.post(ctx, payload)
		return wait, retry, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (*GenerateResponse, time.Duration, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/dqagent")
	httpReq.Header.Set("X-Title", "dqagent")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isRetryableNetErr(err) {
			return nil, 0, true, fmt.Errorf("http request: %w", err)
		}
		return nil, 0, false, &UnreachableError{Host: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		err := classifyAPIError(decodeAPIError(resp), resp.Header)
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryAfter(resp.Header), transient, err
	}
	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, false, fmt.Errorf("decode response: %w", err)
	}
	out.RequestID = requestID(resp.Header)
	return &out, 0, false, nil
}

// decodeAPIError reads both {"error":{...}} and flat {"message":...} bodies.
func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: requestID(resp.Header)}
	src := raw
	if nested, ok := raw["error"].(map[string]any); ok {
		src = nested
	}
	apiErr.Message, _ = src["message"].(string)
	apiErr.Code, _ = src["code"].(string)
	return apiErr
}

// classifyAPIError maps a status and body onto the typed errors in errors.go.
func classifyAPIError(apiErr *APIError, h http.Header) error {
	sc := apiErr.StatusCode
	msg := strings.ToLower(apiErr.Message)
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(h)}
	case sc == http.StatusNotFound:
		if apiErr.Code == "model_not_found" || mentionsAll(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case apiErr.Code == "quota_exceeded" || mentionsAny(msg, "quota", "billing", "limit exceeded"):
		return &QuotaExceededError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func mentionsAll(msg string, words ...string) bool {
	if msg == "" {
		return false
	}
	for _, w := range words {
		if !strings.Contains(msg, w) {
			return false
		}
	}
	return true
}

func mentionsAny(msg string, words ...string) bool {
	for _, w := range words {
		if msg != "" && strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

var requestIDHeaders = []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"}

func requestID(h http.Header) string {
	for _, k := range requestIDHeaders {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
