package storedoctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"steam-insights-backend/internal/llm"
)

// TextInput is what the content evaluator sees.
type TextInput struct {
	Name             string
	Language         string
	ShortDescription string
	Description      string
}

// Scores are the per-aspect content ratings, each 0-100.
type Scores struct {
	ContentClarity int `json:"contentClarity"`
	Appeal         int `json:"appeal"`
	Readability    int `json:"readability"`
	Completeness   int `json:"completeness"`
}

// Evaluation is the content-quality verdict for a description.
type Evaluation struct {
	Scores       Scores   `json:"scores"`
	OverallScore int      `json:"overallScore"`
	Summary      string   `json:"summary"`
	GoodPoints   []string `json:"goodPoints"`
	Improvements []string `json:"improvements"`
}

// TextEvaluator rates description text. Implementations may fail; the scorer
// substitutes a neutral score when they do.
type TextEvaluator interface {
	Evaluate(ctx context.Context, in TextInput) (Evaluation, error)
}

// ErrEvaluationFormat is returned when the model output cannot be used.
var ErrEvaluationFormat = errors.New("text evaluation has unexpected format")

const maxEvaluatedRunes = 6000

// LLMEvaluator rates description text with a language model.
type LLMEvaluator struct {
	client llm.Client
}

func NewLLMEvaluator(client llm.Client) *LLMEvaluator {
	return &LLMEvaluator{client: client}
}

type storeTextPrompt struct {
	Name             string
	Language         string
	ShortDescription string
	Description      string
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, in TextInput) (Evaluation, error) {
	if e == nil || e.client == nil {
		return Evaluation{}, llm.ErrNotConfigured
	}
	prompt, err := llm.RenderPrompt("store_text.tmpl", storeTextPrompt{
		Name:             in.Name,
		Language:         in.Language,
		ShortDescription: in.ShortDescription,
		Description:      truncateRunes(in.Description, maxEvaluatedRunes),
	})
	if err != nil {
		return Evaluation{}, err
	}
	resp, err := e.client.Generate(ctx, llm.Request{
		System:      "You review Steam store pages for indie developers. Respond with JSON only.",
		Prompt:      prompt,
		JSON:        true,
		Temperature: llm.Float(0.2),
		Purpose:     "store-text",
	})
	if err != nil {
		return Evaluation{}, err
	}
	return ParseEvaluation(resp.Text)
}

// ParseEvaluation decodes and normalises model output: scores are clamped to
// [0,100], a missing overall score is the mean of the aspects, and empty list
// entries are dropped.
func ParseEvaluation(raw string) (Evaluation, error) {
	var parsed struct {
		Scores struct {
			ContentClarity *float64 `json:"contentClarity"`
			Appeal         *float64 `json:"appeal"`
			Readability    *float64 `json:"readability"`
			Completeness   *float64 `json:"completeness"`
		} `json:"scores"`
		OverallScore *float64 `json:"overallScore"`
		Summary      string   `json:"summary"`
		GoodPoints   []string `json:"goodPoints"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &parsed); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFormat, err)
	}

	aspects := []*float64{parsed.Scores.ContentClarity, parsed.Scores.Appeal, parsed.Scores.Readability, parsed.Scores.Completeness}
	var sum float64
	present := 0
	for _, a := range aspects {
		if a != nil {
			sum += clampScore(*a)
			present++
		}
	}
	if parsed.OverallScore == nil && present == 0 {
		return Evaluation{}, fmt.Errorf("%w: no scores", ErrEvaluationFormat)
	}

	out := Evaluation{
		Scores: Scores{
			ContentClarity: roundScore(parsed.Scores.ContentClarity),
			Appeal:         roundScore(parsed.Scores.Appeal),
			Readability:    roundScore(parsed.Scores.Readability),
			Completeness:   roundScore(parsed.Scores.Completeness),
		},
		Summary:      strings.TrimSpace(parsed.Summary),
		GoodPoints:   compact(parsed.GoodPoints),
		Improvements: compact(parsed.Improvements),
	}
	if parsed.OverallScore != nil {
		out.OverallScore = int(math.Round(clampScore(*parsed.OverallScore)))
	} else {
		out.OverallScore = int(math.Round(sum / float64(present)))
	}
	return out, nil
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundScore(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(clampScore(*v)))
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
