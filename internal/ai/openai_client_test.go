package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestOpenAIGenerateSuccess(t *testing.T) {
	var got map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req_1")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": " answer "}}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL, 2*time.Second, 1, 0, 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: "user", Content: "q"}}, MaxTokens: 50})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "answer" || resp.Usage.TotalTokens != 5 || resp.RequestID != "req_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got["model"] != "gpt-4o-mini" || got["max_completion_tokens"] != float64(50) {
		t.Fatalf("unexpected request body: %v", got)
	}
}

func TestOpenAIRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "slow down", "type": "rate_limit"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("k", srv.URL, 2*time.Second, 2, time.Millisecond, 5*time.Millisecond)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "q"}}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected retry to succeed, calls=%d", calls)
	}
}

func TestOpenAIClassifiesAuthErrors(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key", "code": "invalid_api_key"}})
	}))
	defer srv.Close()

	c := NewOpenAIClient("k", srv.URL, 2*time.Second, 3, time.Millisecond, time.Millisecond)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "q"}}})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if ae.Code != "invalid_api_key" {
		t.Fatalf("unexpected code %q", ae.Code)
	}
}
