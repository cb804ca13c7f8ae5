package storedoctor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"steam-insights-backend/internal/llm"
)

type stubLLM struct {
	text string
	err  error
	req  llm.Request
}

func (s *stubLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.req = req
	return llm.Response{Text: s.text}, s.err
}

func TestParseEvaluationClampsAndDefaultsOverall(t *testing.T) {
	eval, err := ParseEvaluation("```json\n" + `{"scores":{"contentClarity":120,"appeal":60,"readability":-5,"completeness":80},"summary":" ok ","goodPoints":["Strong hook",""],"improvements":["Add GIFs"]}` + "\n```")
	if err != nil {
		t.Fatalf("ParseEvaluation: %v", err)
	}
	if eval.Scores.ContentClarity != 100 || eval.Scores.Readability != 0 {
		t.Fatalf("expected clamped scores, got %+v", eval.Scores)
	}
	if eval.OverallScore != 60 {
		t.Fatalf("expected mean overall 60, got %d", eval.OverallScore)
	}
	if eval.Summary != "ok" || len(eval.GoodPoints) != 1 {
		t.Fatalf("unexpected normalisation %+v", eval)
	}
}

func TestParseEvaluationRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not json", `{"summary":"no scores"}`} {
		if _, err := ParseEvaluation(raw); !errors.Is(err, ErrEvaluationFormat) {
			t.Fatalf("ParseEvaluation(%q): expected ErrEvaluationFormat, got %v", raw, err)
		}
	}
}

func TestLLMEvaluatorRendersPrompt(t *testing.T) {
	stub := &stubLLM{text: `{"scores":{"contentClarity":70,"appeal":80,"readability":90,"completeness":60},"overallScore":75}`}
	ev := NewLLMEvaluator(stub)

	eval, err := ev.Evaluate(context.Background(), TextInput{
		Name:             "Rail Frontier",
		Language:         "japanese",
		ShortDescription: "Trains in the snow.",
		Description:      "Long description",
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.OverallScore != 75 {
		t.Fatalf("expected 75, got %d", eval.OverallScore)
	}
	if !stub.req.JSON || stub.req.Purpose != "store-text" {
		t.Fatalf("expected JSON request for store-text, got %+v", stub.req)
	}
	for _, want := range []string{"Rail Frontier", "Trains in the snow.", "japanese"} {
		if !strings.Contains(stub.req.Prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, stub.req.Prompt)
		}
	}
}

func TestLLMEvaluatorPropagatesClientError(t *testing.T) {
	ev := NewLLMEvaluator(&stubLLM{err: llm.ErrNotConfigured})
	if _, err := ev.Evaluate(context.Background(), TextInput{}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
