package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-key", "gemini-2.0-flash", zerolog.Nop())
	c.baseURL = server.URL
	return c
}

func TestChatDisabledWithoutKey(t *testing.T) {
	c := NewClient("", "", zerolog.Nop())
	if c.Enabled() {
		t.Fatal("client without key reports enabled")
	}
	if _, err := c.Chat(context.Background(), "what is A.5.1?", ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestChatExtractsFirstCandidate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "  Policies for information security.  "},
				}}},
			},
		})
	})

	got, err := c.Chat(context.Background(), "what is A.5.1?", "92 controls applicable")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Policies for information security." {
		t.Errorf("Chat = %q", got)
	}
}

func TestGenerateUpstreamFailureIsUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"api error body", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 429, "message": "quota exceeded"},
			})
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			if _, err := c.SuggestTasks(context.Background(), "A.8.2", "Privileged access rights", "", ""); !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}
