package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Generate(ctx context.Context, req Request) (Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Response{}, s.errs[i]
	}
	return Response{Text: "ok"}, nil
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "{\"a\":1}", want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "  ```json {\"a\":1}```  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	base := &scriptedClient{errs: []error{errors.New("gemini http status 503: busy")}}
	c := retryingClient{base: base, delay: time.Millisecond}

	resp, err := c.Generate(context.Background(), Request{Purpose: "summary"})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", base.calls)
	}
}

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	base := &scriptedClient{errs: []error{errors.New("gemini http status 400: bad request")}}
	c := retryingClient{base: base, delay: time.Millisecond}

	if _, err := c.Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("expected 1 call, got %d", base.calls)
	}
}

func TestPlaceholderIsNotRetried(t *testing.T) {
	if ShouldRetry(ErrNotConfigured) {
		t.Fatalf("placeholder errors must not be retried")
	}
}

func TestRenderPromptIncludesGuardAndReviews(t *testing.T) {
	data := struct {
		AppName         string
		Language        string
		MentalGuardMode bool
		Reviews         []struct {
			Positive      bool
			PlaytimeHours int
			Text          string
		}
	}{
		AppName:         "Hollow Depths",
		Language:        "german",
		MentalGuardMode: true,
	}
	data.Reviews = append(data.Reviews, struct {
		Positive      bool
		PlaytimeHours int
		Text          string
	}{Positive: false, PlaytimeHours: 3, Text: "crashes on boot"})

	out, err := RenderPrompt("summary.tmpl", data)
	if err != nil {
		t.Fatalf("RenderPrompt: %v", err)
	}
	for _, want := range []string{"Hollow Depths", "NOT RECOMMENDED (3h played)", "crashes on boot", "Rephrase insults", "german"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, out)
		}
	}
	if _, err := RenderPrompt("missing.tmpl", data); err == nil {
		t.Fatalf("expected unknown prompt error")
	}
}
