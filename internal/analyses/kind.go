package analyses

import (
	"fmt"
	"sort"
	"strings"

	"steam-insights-backend/internal/cache"
)

// Kind names a review analysis.
type Kind string

const (
	KindSentiment      Kind = "sentiment"
	KindKeywords       Kind = "keywords"
	KindSummary        Kind = "summary"
	KindCommunity      Kind = "community"
	KindVisualTrends   Kind = "visual-trends"
	KindLaunchSchedule Kind = "launch-schedule"
)

type kindDef struct {
	op        cache.OpType
	prompt    string
	reviews   bool
	normalize func(raw []byte) (any, error)
}

var kinds = map[Kind]kindDef{
	KindSentiment:      {op: cache.OpSentiment, prompt: "sentiment.tmpl", reviews: true, normalize: normalizeSentiment},
	KindKeywords:       {op: cache.OpDeepKeywords, prompt: "keywords.tmpl", reviews: true, normalize: normalizeKeywords},
	KindSummary:        {op: cache.OpSummary, prompt: "summary.tmpl", reviews: true, normalize: normalizeSummary},
	KindCommunity:      {op: cache.OpCommunity, prompt: "community.tmpl", reviews: true, normalize: normalizeCommunity},
	KindVisualTrends:   {op: cache.OpVisualTrends, prompt: "visual_trends.tmpl", normalize: normalizeVisualTrends},
	KindLaunchSchedule: {op: cache.OpLaunchSchedule, prompt: "launch_schedule.tmpl", normalize: normalizeLaunchSchedule},
}

// ParseKind accepts a kind name, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// Kinds lists every supported kind in name order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CacheOp is the cache namespace results of k are stored under.
func (k Kind) CacheOp() cache.OpType {
	return kinds[k].op
}

// UsesReviews reports whether k reads player reviews.
func (k Kind) UsesReviews() bool {
	return kinds[k].reviews
}
