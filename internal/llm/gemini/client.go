package gemini

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"steam-insights-backend/internal/llm"
	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/telemetry"
)

const (
	publicAPIURL       = "https://generativelanguage.googleapis.com/v1beta/models"
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	defaultModel       = "gemini-2.0-flash"
	defaultTimeout     = 120 * time.Second
)

// Config selects between the public Gemini API (API key) and Vertex AI
// (Application Default Credentials, or an explicit token source).
type Config struct {
	APIKey         string
	Model          string
	VertexProject  string
	VertexLocation string
	Timeout        time.Duration

	// BaseURL overrides the models endpoint, mainly for tests.
	BaseURL     string
	TokenSource oauth2.TokenSource
}

// Client implements llm.Client against the generateContent REST endpoint.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New constructs a client. With VertexProject set, requests are authorised
// with Google credentials instead of an API key.
func New(ctx context.Context, cfg Config) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{model: model}
	switch {
	case strings.TrimSpace(cfg.VertexProject) != "":
		location := strings.TrimSpace(cfg.VertexLocation)
		if location == "" {
			location = "us-central1"
		}
		var httpClient *http.Client
		if cfg.TokenSource != nil {
			httpClient = oauth2.NewClient(ctx, cfg.TokenSource)
		} else {
			var err error
			httpClient, err = google.DefaultClient(ctx, cloudPlatformScope)
			if err != nil {
				return nil, fmt.Errorf("gemini vertex credentials: %w", err)
			}
		}
		httpClient.Timeout = timeout
		c.client = httpClient
		c.endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models",
			location, strings.TrimSpace(cfg.VertexProject), location)
	case strings.TrimSpace(cfg.APIKey) != "":
		c.apiKey = strings.TrimSpace(cfg.APIKey)
		c.client = &http.Client{Timeout: timeout}
		c.endpoint = publicAPIURL
	default:
		return nil, errors.New("GEMINI_API_KEY or GEMINI_VERTEX_PROJECT is required")
	}
	if cfg.BaseURL != "" {
		c.endpoint = strings.TrimRight(cfg.BaseURL, "/")
	}
	return c, nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
	ModelVersion  string            `json:"modelVersion"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	TotalTokenCount int `json:"totalTokenCount"`
}

// Generate performs one generateContent call.
func (c *Client) Generate(ctx context.Context, in llm.Request) (llm.Response, error) {
	start := time.Now()
	resp, err := c.generate(ctx, in)
	metrics.ObserveLLMCall(float64(time.Since(start).Milliseconds()), err != nil)
	if err == nil {
		telemetry.Info("llm.response", map[string]any{
			"provider":     "gemini",
			"model":        resp.Model,
			"purpose":      in.Purpose,
			"total_tokens": resp.TotalTokens,
			"duration_ms":  time.Since(start).Milliseconds(),
		})
	}
	return resp, err
}

func (c *Client) generate(ctx context.Context, in llm.Request) (llm.Response, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: in.Prompt}}},
		},
		GenerationConfig: &geminiGenConfig{
			MaxOutputTokens: in.MaxOutputTokens,
			Temperature:     in.Temperature,
		},
	}
	if strings.TrimSpace(in.System) != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: in.System}}}
	}
	if in.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Response{}, fmt.Errorf("gemini request timeout: %w", err)
		}
		return llm.Response{}, fmt.Errorf("gemini send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return llm.Response{}, fmt.Errorf("gemini http status %d: %s", resp.StatusCode, msg)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return llm.Response{}, fmt.Errorf("gemini response parse: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return llm.Response{}, errors.New("gemini response has no content")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	out := llm.Response{
		Text:        strings.TrimSpace(text.String()),
		Model:       c.model,
		TotalTokens: parsed.UsageMetadata.TotalTokenCount,
	}
	if parsed.ModelVersion != "" {
		out.Model = parsed.ModelVersion
	}
	if out.Text == "" {
		return llm.Response{}, errors.New("gemini response empty content")
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)
