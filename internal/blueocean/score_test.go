package blueocean

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"steam-insights-backend/internal/steam"
)

func TestLadderScore(t *testing.T) {
	lower := Ladder{Direction: LowerIsBetter, Bounds: []float64{1, 3, 5, 10}, Scores: []int{100, 80, 60, 40, 20}}
	higher := Ladder{Direction: HigherIsBetter, Bounds: []float64{1, 2, 5, 10}, Scores: []int{20, 40, 60, 80, 100}}

	cases := []struct {
		ladder Ladder
		value  float64
		want   int
	}{
		{lower, 0.5, 100},
		{lower, 1, 80},
		{lower, 4.9, 60},
		{lower, 10, 20},
		{lower, 250, 20},
		{higher, 0, 20},
		{higher, 1, 40},
		{higher, 4.99, 40},
		{higher, 5, 60},
		{higher, 25, 100},
	}
	for _, tc := range cases {
		if got := tc.ladder.Score(tc.value); got != tc.want {
			t.Fatalf("%s ladder at %v: got %d want %d", tc.ladder.Direction, tc.value, got, tc.want)
		}
	}
}

func TestCombineIsNeutralAtFifty(t *testing.T) {
	weights := [][]float64{
		{0.30, 0.30, 0.15, 0.10, 0.05, 0.10},
		{1, 0, 0, 0, 0, 0},
		{0.9, 0.9, 0.9, 0.9, 0.9, 0.9},
	}
	for _, ws := range weights {
		axes := make([]Axis, len(ws))
		for i, w := range ws {
			axes[i] = Axis{Score: 50, Weight: w}
		}
		if got := Combine(axes...); got != 50 {
			t.Fatalf("weights %v: got %d want 50", ws, got)
		}
	}
}

func TestCombineClamps(t *testing.T) {
	if got := Combine(Axis{Score: 100, Weight: 2}); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}
	if got := Combine(Axis{Score: 0, Weight: 2}); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestGoldenZoneOverridesTotal(t *testing.T) {
	s := NewScorer(DefaultTuning())

	v := s.Verdict(Metrics{CompetitionRatio: 0.5, HitDensity: 6}, 60, []string{"Roguelike"})
	if v.Zone != "blue" || v.Label != "best" || !v.GoldenZone {
		t.Fatalf("expected golden zone blue/best, got %+v", v)
	}

	v = s.Verdict(Metrics{CompetitionRatio: 2, HitDensity: 6}, 60, []string{"Roguelike"})
	if v.Zone != "yellow" || v.GoldenZone {
		t.Fatalf("expected yellow without golden zone, got %+v", v)
	}
}

func TestVerdictBands(t *testing.T) {
	s := NewScorer(DefaultTuning())
	m := Metrics{CompetitionRatio: 5, HitDensity: 0}

	cases := []struct {
		total int
		zone  string
		label string
	}{
		{100, "blue", "best"},
		{85, "blue", "best"},
		{84, "blue", "promising"},
		{70, "blue", "promising"},
		{55, "yellow", "contested"},
		{40, "red", "saturated"},
		{39, "purple", "unknown"},
		{0, "purple", "unknown"},
	}
	for _, tc := range cases {
		v := s.Verdict(m, tc.total, []string{"Farming Sim", "Horror"})
		if v.Zone != tc.zone || v.Label != tc.label {
			t.Fatalf("total %d: got %s/%s want %s/%s", tc.total, v.Zone, v.Label, tc.zone, tc.label)
		}
		if !strings.Contains(v.Message, "Farming Sim + Horror") {
			t.Fatalf("message not filled: %q", v.Message)
		}
	}
}

func TestEmptySampleUsesTotalCountAsAverage(t *testing.T) {
	s := NewScorer(DefaultTuning())

	got := s.Score(Sample{Tags: []string{"Odd"}, TotalCount: 40, PerFilterCounts: []int{40}})
	if got.Metrics.AvgPopularity != 40 || got.Metrics.CompetitionRatio != 1 {
		t.Fatalf("unexpected metrics: %+v", got.Metrics)
	}
	if got.Axes.Competition.Score != 80 {
		t.Fatalf("competition: got %d want 80", got.Axes.Competition.Score)
	}

	got = s.Score(Sample{Tags: []string{"Nothing"}})
	if got.Metrics.AvgPopularity != 1 || got.Metrics.CompetitionRatio != 0 {
		t.Fatalf("unexpected metrics for zero sample: %+v", got.Metrics)
	}
	if got.Axes.Synergy.Score != 50 {
		t.Fatalf("synergy with no filter counts should be neutral, got %d", got.Axes.Synergy.Score)
	}
	if got.Total < 0 || got.Total > 100 || got.Verdict.Zone == "" {
		t.Fatalf("expected complete result, got %+v", got)
	}
	if got.TopCompetitors == nil || len(got.TopCompetitors) != 0 {
		t.Fatalf("expected empty competitors, got %v", got.TopCompetitors)
	}
}

func TestDemandFallsBackToMediumTier(t *testing.T) {
	s := NewScorer(DefaultTuning())

	cases := []struct {
		hits   int
		medium int
		want   int
	}{
		{0, 0, 10},
		{0, 2, 30},
		{0, 5, 40},
		{1, 0, 60},
		{3, 0, 80},
		{7, 4, 100},
	}
	for _, tc := range cases {
		axes := s.ScoreAxes(Metrics{HitCount: tc.hits, MediumCount: tc.medium})
		if axes.Demand.Score != tc.want {
			t.Fatalf("hits=%d medium=%d: got %d want %d", tc.hits, tc.medium, axes.Demand.Score, tc.want)
		}
	}
}

func blueSample() Sample {
	a := []steam.SpyApp{
		{AppID: "1", Name: "Hit", Positive: 4500, Negative: 500},
		{AppID: "2", Name: "Solid", Positive: 700, Negative: 100},
		{AppID: "3", Name: "Modest", Positive: 250, Negative: 50},
		{AppID: "4", Name: "Small", Positive: 90, Negative: 10},
		{AppID: "5", Positive: 10},
		{AppID: "6", Positive: 9},
		{AppID: "7", Positive: 8},
		{AppID: "8", Positive: 7},
		{AppID: "9", Positive: 6},
		{AppID: "10", Positive: 5},
	}
	b := []steam.SpyApp{
		{AppID: "4", Positive: 90, Negative: 10},
		{AppID: "11", Positive: 40},
		{AppID: "1", Positive: 4500, Negative: 500},
		{AppID: "3", Positive: 250, Negative: 50},
		{AppID: "12", Positive: 3},
		{AppID: "2", Positive: 700, Negative: 100},
	}
	return Intersect([]string{"Railroad", "Cozy"}, [][]steam.SpyApp{a, b})
}

func TestIntersect(t *testing.T) {
	sample := blueSample()
	if sample.TotalCount != 4 || len(sample.Listings) != 4 {
		t.Fatalf("expected 4 shared apps, got %+v", sample)
	}
	if sample.PerFilterCounts[0] != 10 || sample.PerFilterCounts[1] != 6 {
		t.Fatalf("unexpected per filter counts %v", sample.PerFilterCounts)
	}
	if sample.Listings[0].AppID != "1" || sample.Listings[0].Popularity != 5000 {
		t.Fatalf("unexpected first listing %+v", sample.Listings[0])
	}
}

func TestScoreBlueOcean(t *testing.T) {
	got := NewScorer(DefaultTuning()).Score(blueSample())

	want := map[string]int{
		"competition": 100,
		"hitDensity":  100,
		"revenue":     100,
		"niche":       100,
		"synergy":     40,
		"demand":      60,
	}
	gotAxes := map[string]int{
		"competition": got.Axes.Competition.Score,
		"hitDensity":  got.Axes.HitDensity.Score,
		"revenue":     got.Axes.Revenue.Score,
		"niche":       got.Axes.Niche.Score,
		"synergy":     got.Axes.Synergy.Score,
		"demand":      got.Axes.Demand.Score,
	}
	for name, w := range want {
		if gotAxes[name] != w {
			t.Fatalf("%s: got %d want %d", name, gotAxes[name], w)
		}
	}
	if got.Total != 93 {
		t.Fatalf("total: got %d want 93", got.Total)
	}
	if got.Metrics.HitCount != 1 || got.Metrics.MediumCount != 3 || got.Metrics.HitDensity != 25 {
		t.Fatalf("unexpected metrics %+v", got.Metrics)
	}
	if !got.Verdict.GoldenZone || got.Verdict.Zone != "blue" {
		t.Fatalf("unexpected verdict %+v", got.Verdict)
	}
	if len(got.TopCompetitors) != 4 || got.TopCompetitors[1].Name != "Solid" {
		t.Fatalf("unexpected competitors %+v", got.TopCompetitors)
	}
}

func TestDefaultTuningIsValid(t *testing.T) {
	tuning := DefaultTuning()
	if tuning.HitThreshold != 1000 || tuning.MediumThreshold != 100 {
		t.Fatalf("unexpected thresholds %+v", tuning)
	}
	if tuning.Weights.Competition != 0.30 || tuning.Weights.Synergy != 0.05 {
		t.Fatalf("unexpected weights %+v", tuning.Weights)
	}
	if len(tuning.Verdicts) != 5 {
		t.Fatalf("expected 5 verdict bands, got %d", len(tuning.Verdicts))
	}
}

func TestParseTuningRejectsBadWeights(t *testing.T) {
	data := strings.Replace(string(defaultTuningYAML), "competition: 0.30", "competition: 0.50", 1)
	if _, err := ParseTuning([]byte(data)); err == nil || !strings.Contains(err.Error(), "weights") {
		t.Fatalf("expected weights error, got %v", err)
	}
}

func TestParseTuningRejectsShortLadder(t *testing.T) {
	data := strings.Replace(string(defaultTuningYAML), "scores: [10, 30, 40]", "scores: [10, 30]", 1)
	if _, err := ParseTuning([]byte(data)); err == nil || !strings.Contains(err.Error(), "demandMedium") {
		t.Fatalf("expected ladder error, got %v", err)
	}
}

func TestLoadTuningFromFile(t *testing.T) {
	data := strings.Replace(string(defaultTuningYAML), "hitThreshold: 1000", "hitThreshold: 500", 1)
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tuning.HitThreshold != 500 {
		t.Fatalf("expected override, got %d", tuning.HitThreshold)
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMeasureHitThresholdIsExclusive(t *testing.T) {
	s := NewScorer(DefaultTuning())
	tests := []struct {
		popularity int
		hits       int
		medium     int
	}{
		{popularity: 1000, hits: 0, medium: 1},
		{popularity: 1001, hits: 1, medium: 0},
	}
	for _, tc := range tests {
		m := s.Measure(Sample{TotalCount: 1, Listings: []Listing{{AppID: "1", Popularity: tc.popularity}}})
		if m.HitCount != tc.hits || m.MediumCount != tc.medium {
			t.Fatalf("popularity %d: hits=%d medium=%d, want %d/%d", tc.popularity, m.HitCount, m.MediumCount, tc.hits, tc.medium)
		}
		if want := float64(tc.hits) * 100; m.HitDensity != want {
			t.Fatalf("popularity %d: density %.1f want %.1f", tc.popularity, m.HitDensity, want)
		}
	}
}
