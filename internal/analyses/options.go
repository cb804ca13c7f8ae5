package analyses

import (
	"fmt"
	"strings"

	"steam-insights-backend/internal/cache"
)

const (
	DefaultReviewCount = 100
	MaxReviewCount     = 500
	defaultLanguage    = "english"
)

// RunOptions scope an analysis result. They are part of the cache key, so two
// runs with equal options share a cached result.
type RunOptions struct {
	MentalGuardMode bool   `json:"mentalGuardMode"`
	ReviewCount     int    `json:"reviewCount"`
	Language        string `json:"language"`
}

func (o RunOptions) CacheFields() []cache.Field {
	return cache.Fields{}.
		Bool("mentalGuardMode", o.MentalGuardMode).
		Int("reviewCount", o.ReviewCount).
		String("language", o.Language)
}

// Normalize applies defaults and bounds. Kinds that do not read reviews drop
// the review options so they do not split the cache.
func (o RunOptions) Normalize(k Kind) (RunOptions, error) {
	o.Language = strings.ToLower(strings.TrimSpace(o.Language))
	if o.Language == "" {
		o.Language = defaultLanguage
	}
	if !k.UsesReviews() {
		o.ReviewCount = 0
		o.MentalGuardMode = false
		return o, nil
	}
	switch {
	case o.ReviewCount == 0:
		o.ReviewCount = DefaultReviewCount
	case o.ReviewCount < 0 || o.ReviewCount > MaxReviewCount:
		return RunOptions{}, fmt.Errorf("%w: reviewCount must be between 1 and %d", ErrInvalidOptions, MaxReviewCount)
	}
	return o, nil
}
