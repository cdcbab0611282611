package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts the go-openai SDK to Runtime. BaseURL lets it target
// any OpenAI-compatible server.
type OpenAIClient struct {
	client  *openai.Client
	baseURL string
	retry   retryPolicy
}

// NewOpenAIClient builds a client. An empty baseURL means api.openai.com.
func NewOpenAIClient(apiKey, baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OpenAIClient {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: httpTimeout}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: cfg.BaseURL,
		retry:   retryPolicy{attempts: retryMax, base: baseDelay, max: maxDelay}.withDefaults(hostedRetry),
	}
}

// Generate runs a chat completion, retrying rate limits and server errors.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	creq := openai.ChatCompletionRequest{
		Model:               req.Model,
		Messages:            make([]openai.ChatCompletionMessage, len(req.Messages)),
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	for i, m := range req.Messages {
		creq.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var out *GenerateResponse
	err := c.retry.run(ctx, func(ctx context.Context) (time.Duration, bool, error) {
		resp, err := c.client.CreateChatCompletion(ctx, creq)
		if err != nil {
			if ctx.Err() != nil {
				return 0, false, ctx.Err()
			}
			err = c.classify(err)
			var rl *RateLimitError
			if errors.As(err, &rl) {
				return rl.RetryAfter, true, err
			}
			return 0, IsTransient(err), err
		}
		out = &GenerateResponse{
			ID: resp.ID,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
			RequestID: resp.Header().Get("X-Request-Id"),
		}
		for _, ch := range resp.Choices {
			out.Choices = append(out.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
		}
		return 0, false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classify maps SDK errors onto the package's typed errors.
func (c *OpenAIClient) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		ae := &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if apiErr.Code != nil {
			ae.Code = fmt.Sprint(apiErr.Code)
		}
		return classifyAPIError(ae, http.Header{})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		ae := &APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		return classifyAPIError(ae, http.Header{})
	}
	return &UnreachableError{Host: c.baseURL, Err: err}
}
