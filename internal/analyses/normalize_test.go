package analyses

import (
	"errors"
	"testing"
)

func TestNormalizeRejectsUnusableOutput(t *testing.T) {
	cases := []struct {
		name string
		fn   func([]byte) (any, error)
		raw  string
	}{
		{"empty", normalizeSummary, "   "},
		{"prose", normalizeSummary, "Sure! Here is the summary."},
		{"sentiment empty", normalizeSentiment, `{"overall":"positive","positives":[{"topic":" "}]}`},
		{"keywords empty", normalizeKeywords, `{"keywords":[{"term":""}]}`},
		{"community no mood", normalizeCommunity, `{"requests":[{"feature":"co-op"}]}`},
		{"visual empty", normalizeVisualTrends, `{"score":80}`},
		{"launch empty", normalizeLaunchSchedule, `{"milestones":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn([]byte(tc.raw)); !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestNormalizeSentimentClampsAndDefaults(t *testing.T) {
	out, err := normalizeSentiment([]byte("```json\n" + `{"overall":"Ecstatic","positiveRatio":140,"positives":[{"topic":" signals ","mentions":-3}],"summary":" fun "}` + "\n```"))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := out.(SentimentResult)
	if got.Overall != "mixed" || got.PositiveRatio != 100 || got.Summary != "fun" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Positives[0].Topic != "signals" || got.Positives[0].Mentions != 0 || got.Negatives == nil {
		t.Fatalf("unexpected points %+v", got)
	}
}

func TestNormalizeKeywordsOrdersByMentions(t *testing.T) {
	out, err := normalizeKeywords([]byte(`{"keywords":[
		{"term":"price","category":"Price","sentiment":"negative","mentions":4},
		{"term":"trains","category":"lore","sentiment":"POSITIVE","mentions":12}
	],"themes":["","logistics"]}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := out.(KeywordsResult)
	if got.Keywords[0].Term != "trains" || got.Keywords[0].Category != "other" || got.Keywords[0].Sentiment != "positive" {
		t.Fatalf("unexpected first keyword %+v", got.Keywords[0])
	}
	if got.Keywords[1].Category != "price" || len(got.Themes) != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestNormalizeCommunityDropsBlankItems(t *testing.T) {
	out, err := normalizeCommunity([]byte(`{"mood":"hopeful","toxicityLevel":"extreme",
		"requests":[{"feature":"co-op","priority":"urgent"},{"feature":" "}],
		"bugs":[{"issue":"save crash","severity":"HIGH"}],"replySuggestions":["thanks!",""]}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := out.(CommunityResult)
	if got.ToxicityLevel != "low" || len(got.Requests) != 1 || got.Requests[0].Priority != "medium" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Bugs[0].Severity != "high" || len(got.ReplySuggestions) != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestNormalizeVisualTrends(t *testing.T) {
	out, err := normalizeVisualTrends([]byte(`{"score":-4,"artStyle":"low-poly","trends":[{"name":"cozy","fit":"maybe"}]}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := out.(VisualTrendsResult)
	if got.Score != 0 || got.Trends[0].Fit != "partial" || got.Recommendations == nil {
		t.Fatalf("unexpected result %+v", got)
	}
}
