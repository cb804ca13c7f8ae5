package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"steam-insights-backend/internal/llm"
)

func TestGenerateWithAPIKey(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing API key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		resp := geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{Text: "```json\n{\"a\":1}\n```"}}},
			}},
			UsageMetadata: geminiUsage{TotalTokenCount: 75},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Generate(context.Background(), llm.Request{System: "sys", Prompt: "hi", JSON: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.TotalTokens != 75 {
		t.Fatalf("expected 75 tokens, got %d", resp.TotalTokens)
	}
	if llm.StripCodeFence(resp.Text) != `{"a":1}` {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected JSON response mode, got %+v", got.GenerationConfig)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatalf("expected system instruction")
	}
}

func TestGenerateWithVertexTokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer vertex-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("x-goog-api-key") != "" {
			t.Errorf("api key must not be sent to vertex")
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	c, err := New(context.Background(), Config{
		VertexProject: "demo",
		BaseURL:       server.URL,
		TokenSource:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "vertex-token"}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Generate(context.Background(), llm.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "ok" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestGenerateRateLimitedIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c, _ := New(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	_, err := c.Generate(context.Background(), llm.Request{Prompt: "hi"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 429 to be retryable: %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
