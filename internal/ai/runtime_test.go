package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRuntime struct {
	req  GenerateRequest
	resp *GenerateResponse
	err  error
}

func (r *recordingRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	r.req = req
	return r.resp, r.err
}

func TestRuntimeCompleterSendsSingleUserMessage(t *testing.T) {
	rt := &recordingRuntime{resp: &GenerateResponse{Choices: []Choice{{Message: Message{Content: "  [] "}}}}}
	c := &RuntimeCompleter{Runtime: rt, Model: "gpt-4o-mini", Temperature: 0.2}

	out, err := c.Complete(context.Background(), "plan this", 500)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, []Message{{Role: "user", Content: "plan this"}}, rt.req.Messages)
	assert.Equal(t, 500, rt.req.MaxTokens)
	assert.Equal(t, 0.2, rt.req.Temperature)
}

func TestRuntimeCompleterTruncatesToContextWindow(t *testing.T) {
	rt := &recordingRuntime{resp: &GenerateResponse{Choices: []Choice{{Message: Message{Content: "ok"}}}}}
	c := &RuntimeCompleter{Runtime: rt, Model: "phi3:mini-4k-instruct"}

	_, err := c.Complete(context.Background(), strings.Repeat("abcd", 10000), 1000)
	require.NoError(t, err)
	assert.Len(t, rt.req.Messages[0].Content, (4096-1000)*4)
}

func TestRuntimeCompleterErrors(t *testing.T) {
	boom := &ServerError{APIError: &APIError{StatusCode: 502}}
	c := &RuntimeCompleter{Runtime: &recordingRuntime{err: boom}, Model: "m"}
	_, err := c.Complete(context.Background(), "x", 10)
	var se *ServerError
	assert.True(t, errors.As(err, &se))

	c = &RuntimeCompleter{Runtime: &recordingRuntime{resp: &GenerateResponse{}}, Model: "m"}
	_, err = c.Complete(context.Background(), "x", 10)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter(ProviderNone, "", 0, RuntimeConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewCompleter("carrier-pigeon", "", 0, RuntimeConfig{})
	assert.Error(t, err)

	c, err = NewCompleter(ProviderOllama, "", 0, RuntimeConfig{})
	require.NoError(t, err)
	assert.Equal(t, "llama3:latest", c.(*RuntimeCompleter).Model)

	for _, p := range []string{ProviderOpenRouter, ProviderOpenAI, ProviderOllama} {
		_, ok := GetRuntime(p, RuntimeConfig{})
		assert.True(t, ok, p)
	}
}

func TestPromptBudget(t *testing.T) {
	assert.Equal(t, 128000-1500, PromptBudget("gpt-4o", 1500))
	assert.Equal(t, fallbackContextTokens-500, PromptBudget("unknown/model", 500))
	assert.Equal(t, 256, PromptBudget("phi3:mini-4k-instruct", 5000))
	cost, ok := EstimateCostUSD("openai/gpt-4o", 1000, 1000)
	assert.True(t, ok)
	assert.InDelta(t, 0.02, cost, 1e-9)
}

func TestErrorKind(t *testing.T) {
	api := &APIError{StatusCode: 429}
	assert.Equal(t, "ok", Kind(nil))
	assert.Equal(t, "rate_limited", Kind(&RateLimitError{APIError: api}))
	assert.Equal(t, "timeout", Kind(context.DeadlineExceeded))
	assert.Equal(t, "unreachable", Kind(&UnreachableError{Host: "h", Err: errors.New("refused")}))
	assert.Equal(t, "error", Kind(errors.New("other")))
	assert.True(t, IsTransient(&ServerError{APIError: api}))
	assert.False(t, IsTransient(&AuthError{APIError: api}))
}
