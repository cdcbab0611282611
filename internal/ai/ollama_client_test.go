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

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        4,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", 2*time.Second, 1, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{
		Model:     "llama3:latest",
		Messages:  []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		MaxTokens: 16,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Fatalf("expected usage from eval counts, got %+v", resp.Usage)
	}
	if resp.RequestID == "" {
		t.Fatalf("expected simulated request id")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages not forwarded: %+v", captured.Messages)
	}
	if captured.Stream {
		t.Fatalf("expected non-streaming request")
	}
	if v, _ := captured.Options["num_predict"].(float64); v != 16 {
		t.Fatalf("expected num_predict=16, got %v", captured.Options["num_predict"])
	}
}

func TestOllamaGenerateClassifiesErrors(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusBadRequest, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusNotFound, func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "nope"})
		}))
		c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
		_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{{Role: "user", Content: "hi"}}})
		srv.Close()
		if !tc.check(err) {
			t.Fatalf("status %d: unexpected error %T: %v", tc.status, err, err)
		}
	}
}

func TestOllamaRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "ok"}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, 2, time.Millisecond, 5*time.Millisecond)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected success on second attempt, calls=%d", calls)
	}
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("", 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
}

func TestOllamaUnreachable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T: %v", err, err)
	}
}
