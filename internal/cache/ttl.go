package cache

import (
	"fmt"
	"strings"
	"time"
)

// OpType names a cached operation namespace.
type OpType string

const (
	OpDeepKeywords     OpType = "deep-keyword-analysis"
	OpSummary          OpType = "summary"
	OpCommunity        OpType = "community-analysis"
	OpSentiment        OpType = "sentiment-analysis"
	OpVisualTrends     OpType = "visual-trends"
	OpLaunchSchedule   OpType = "launch-schedule"
	OpGameMetadata     OpType = "static-game-metadata"
	OpMarketTagListing OpType = "market-tag-listing"
)

// FallbackTTL applies to operations missing from the TTL table.
const FallbackTTL = time.Hour

// DefaultTTLs returns a fresh copy of the default TTL table. Results that
// react to newly posted reviews expire sooner than static metadata.
func DefaultTTLs() map[OpType]time.Duration {
	return map[OpType]time.Duration{
		OpDeepKeywords:     24 * time.Hour,
		OpSummary:          12 * time.Hour,
		OpCommunity:        6 * time.Hour,
		OpSentiment:        12 * time.Hour,
		OpVisualTrends:     24 * time.Hour,
		OpLaunchSchedule:   24 * time.Hour,
		OpGameMetadata:     7 * 24 * time.Hour,
		OpMarketTagListing: 24 * time.Hour,
	}
}

// ParseTTLOverrides parses "op=duration,op=duration" pairs.
func ParseTTLOverrides(raw string) (map[OpType]time.Duration, error) {
	out := make(map[OpType]time.Duration)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("ttl override %q: expected op=duration", pair)
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("ttl override %q: %w", pair, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("ttl override %q: duration must be positive", pair)
		}
		out[OpType(strings.TrimSpace(name))] = d
	}
	return out, nil
}
