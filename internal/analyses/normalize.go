package analyses

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"steam-insights-backend/internal/llm"
)

type SentimentPoint struct {
	Topic    string `json:"topic"`
	Mentions int    `json:"mentions"`
	Quote    string `json:"quote,omitempty"`
}

type SentimentResult struct {
	Overall       string           `json:"overall"`
	PositiveRatio int              `json:"positiveRatio"`
	Positives     []SentimentPoint `json:"positives"`
	Negatives     []SentimentPoint `json:"negatives"`
	Summary       string           `json:"summary"`
}

type Keyword struct {
	Term      string `json:"term"`
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
	Mentions  int    `json:"mentions"`
}

type KeywordsResult struct {
	Keywords []Keyword `json:"keywords"`
	Themes   []string  `json:"themes"`
}

type SummaryResult struct {
	Headline      string   `json:"headline"`
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	PlayerProfile string   `json:"playerProfile"`
}

type FeatureRequest struct {
	Feature  string `json:"feature"`
	Priority string `json:"priority"`
}

type BugReport struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

type CommunityResult struct {
	Mood             string           `json:"mood"`
	ToxicityLevel    string           `json:"toxicityLevel"`
	Requests         []FeatureRequest `json:"requests"`
	Bugs             []BugReport      `json:"bugs"`
	ReplySuggestions []string         `json:"replySuggestions"`
}

type VisualTrend struct {
	Name string `json:"name"`
	Fit  string `json:"fit"`
}

type VisualTrendsResult struct {
	Score           int           `json:"score"`
	ArtStyle        string        `json:"artStyle"`
	Trends          []VisualTrend `json:"trends"`
	Recommendations []string      `json:"recommendations"`
}

type Milestone struct {
	Week    int      `json:"week"`
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
}

type LaunchScheduleResult struct {
	RecommendedLaunchWindow string      `json:"recommendedLaunchWindow"`
	Milestones              []Milestone `json:"milestones"`
	Notes                   []string    `json:"notes"`
}

func decodeOutput(raw []byte, v any) error {
	text := llm.StripCodeFence(string(raw))
	if text == "" {
		return fmt.Errorf("%w: empty output", ErrSchemaMismatch)
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

func normalizeSentiment(raw []byte) (any, error) {
	var out SentimentResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	out.Overall = oneOf(out.Overall, "mixed", "positive", "mixed", "negative")
	out.PositiveRatio = clampInt(out.PositiveRatio, 0, 100)
	out.Positives = compactPoints(out.Positives)
	out.Negatives = compactPoints(out.Negatives)
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" && len(out.Positives) == 0 && len(out.Negatives) == 0 {
		return nil, fmt.Errorf("%w: sentiment has no content", ErrSchemaMismatch)
	}
	return out, nil
}

func normalizeKeywords(raw []byte) (any, error) {
	var out KeywordsResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	keywords := make([]Keyword, 0, len(out.Keywords))
	for _, k := range out.Keywords {
		k.Term = strings.TrimSpace(k.Term)
		if k.Term == "" {
			continue
		}
		k.Category = oneOf(strings.ToLower(k.Category), "other", "gameplay", "story", "visuals", "audio", "performance", "price", "other")
		k.Sentiment = oneOf(k.Sentiment, "neutral", "positive", "negative", "neutral")
		k.Mentions = max(k.Mentions, 0)
		keywords = append(keywords, k)
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords", ErrSchemaMismatch)
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Mentions > keywords[j].Mentions
	})
	out.Keywords = keywords
	out.Themes = compactStrings(out.Themes)
	return out, nil
}

func normalizeSummary(raw []byte) (any, error) {
	var out SummaryResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	out.Headline = strings.TrimSpace(out.Headline)
	out.Summary = strings.TrimSpace(out.Summary)
	out.PlayerProfile = strings.TrimSpace(out.PlayerProfile)
	out.Strengths = compactStrings(out.Strengths)
	out.Weaknesses = compactStrings(out.Weaknesses)
	if out.Summary == "" {
		return nil, fmt.Errorf("%w: summary is empty", ErrSchemaMismatch)
	}
	return out, nil
}

func normalizeCommunity(raw []byte) (any, error) {
	var out CommunityResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	out.Mood = strings.TrimSpace(out.Mood)
	if out.Mood == "" {
		return nil, fmt.Errorf("%w: community mood is empty", ErrSchemaMismatch)
	}
	out.ToxicityLevel = oneOf(out.ToxicityLevel, "low", "low", "medium", "high")

	requests := make([]FeatureRequest, 0, len(out.Requests))
	for _, r := range out.Requests {
		if r.Feature = strings.TrimSpace(r.Feature); r.Feature != "" {
			r.Priority = oneOf(r.Priority, "medium", "low", "medium", "high")
			requests = append(requests, r)
		}
	}
	bugs := make([]BugReport, 0, len(out.Bugs))
	for _, b := range out.Bugs {
		if b.Issue = strings.TrimSpace(b.Issue); b.Issue != "" {
			b.Severity = oneOf(b.Severity, "medium", "low", "medium", "high")
			bugs = append(bugs, b)
		}
	}
	out.Requests = requests
	out.Bugs = bugs
	out.ReplySuggestions = compactStrings(out.ReplySuggestions)
	return out, nil
}

func normalizeVisualTrends(raw []byte) (any, error) {
	var out VisualTrendsResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	out.Score = clampInt(out.Score, 0, 100)
	out.ArtStyle = strings.TrimSpace(out.ArtStyle)
	trends := make([]VisualTrend, 0, len(out.Trends))
	for _, t := range out.Trends {
		if t.Name = strings.TrimSpace(t.Name); t.Name != "" {
			t.Fit = oneOf(t.Fit, "partial", "strong", "partial", "weak")
			trends = append(trends, t)
		}
	}
	out.Trends = trends
	out.Recommendations = compactStrings(out.Recommendations)
	if out.ArtStyle == "" && len(out.Trends) == 0 {
		return nil, fmt.Errorf("%w: visual trends have no content", ErrSchemaMismatch)
	}
	return out, nil
}

func normalizeLaunchSchedule(raw []byte) (any, error) {
	var out LaunchScheduleResult
	if err := decodeOutput(raw, &out); err != nil {
		return nil, err
	}
	out.RecommendedLaunchWindow = strings.TrimSpace(out.RecommendedLaunchWindow)
	milestones := make([]Milestone, 0, len(out.Milestones))
	for _, m := range out.Milestones {
		if m.Title = strings.TrimSpace(m.Title); m.Title != "" {
			m.Actions = compactStrings(m.Actions)
			milestones = append(milestones, m)
		}
	}
	if len(milestones) == 0 {
		return nil, fmt.Errorf("%w: no milestones", ErrSchemaMismatch)
	}
	sort.SliceStable(milestones, func(i, j int) bool {
		return milestones[i].Week < milestones[j].Week
	})
	out.Milestones = milestones
	out.Notes = compactStrings(out.Notes)
	return out, nil
}

// oneOf lower-cases v and returns it when allowed, otherwise def.
func oneOf(v, def string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func compactStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func compactPoints(points []SentimentPoint) []SentimentPoint {
	out := make([]SentimentPoint, 0, len(points))
	for _, p := range points {
		if p.Topic = strings.TrimSpace(p.Topic); p.Topic != "" {
			p.Mentions = max(p.Mentions, 0)
			p.Quote = strings.TrimSpace(p.Quote)
			out = append(out, p)
		}
	}
	return out
}
