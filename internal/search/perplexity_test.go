package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"patient-companion-server/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.SearchConfig{
		APIKey:    "pplx-test",
		BaseURL:   srv.URL,
		Model:     "sonar",
		MaxTokens: 1024,
	}, 5*time.Second)
}

func TestAnswer(t *testing.T) {
	var got openai.ChatCompletionRequest
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"sonar","choices":[{"index":0,"message":{"role":"assistant","content":"Rest and ice the knee."},"finish_reason":"stop"}]}`))
	})

	answer, err := c.Answer(context.Background(), "How do I reduce knee swelling?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Rest and ice the knee." {
		t.Errorf("unexpected answer %q", answer)
	}
	if auth != "Bearer pplx-test" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if got.Model != "sonar" || got.MaxTokens != 1024 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != systemPrompt || got.Messages[1].Content != "How do I reduce knee swelling?" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestAnswer_UpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
	})

	if _, err := c.Answer(context.Background(), "anything"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnswer_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	})

	if _, err := c.Answer(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
