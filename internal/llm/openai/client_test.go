package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"steam-insights-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestGenerateSendsJSONModeAndOmitsTemperatureForGPT5(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var lastBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&lastBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-5-mini","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.Generate(context.Background(), llm.Request{
		System:      "sys",
		Prompt:      "hello",
		JSON:        true,
		Temperature: llm.Float(0),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != `{"ok":true}` || resp.TotalTokens != 12 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, ok := lastBody["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
	format, _ := lastBody["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", lastBody["response_format"])
	}
}

func TestGenerateSurfacesServerErrorsForRetry(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()
	apiURL = server.URL

	client, _ := NewClient("k", "gpt-4o-mini")
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "http status 502") {
		t.Fatalf("expected status error, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 5xx to be retryable")
	}
}
