package blueocean

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/telemetry"
	"steam-insights-backend/internal/steam"
)

// ErrInvalidTags is returned when the tag set is empty or too large.
var ErrInvalidTags = errors.New("invalid tag set")

// ListingSource returns every game filed under a tag.
type ListingSource interface {
	TagListing(ctx context.Context, tag string) ([]steam.SpyApp, error)
}

// Service runs Blue Ocean analyses over live tag listings.
type Service struct {
	source  ListingSource
	cache   *cache.Cache
	scorer  *Scorer
	maxTags int
}

func NewService(source ListingSource, c *cache.Cache, tuning Tuning) *Service {
	return &Service{source: source, cache: c, scorer: NewScorer(tuning), maxTags: tuning.MaxTags}
}

// Analyze scores the market for the combination of tags.
func (s *Service) Analyze(ctx context.Context, tags []string) (MarketScore, error) {
	tags, err := s.normalizeTags(tags)
	if err != nil {
		return MarketScore{}, err
	}
	start := time.Now()

	sample, err := s.BuildSample(ctx, tags)
	if err != nil {
		return MarketScore{}, err
	}
	score := s.scorer.Score(sample)

	metrics.IncMarketAnalysis()
	telemetry.Info("blueocean.analyzed", map[string]any{
		"tags":        strings.Join(tags, ","),
		"total_count": sample.TotalCount,
		"total":       score.Total,
		"zone":        score.Verdict.Zone,
		"golden_zone": score.Verdict.GoldenZone,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return score, nil
}

// BuildSample fetches each tag's listing concurrently and intersects them.
func (s *Service) BuildSample(ctx context.Context, tags []string) (Sample, error) {
	listings := make([][]steam.SpyApp, len(tags))
	g, gctx := errgroup.WithContext(ctx)
	for i, tag := range tags {
		i, tag := i, tag
		g.Go(func() error {
			apps, _, err := cache.Fetch(gctx, s.cache, cache.OpMarketTagListing, tag, cache.NoOptions, func(ctx context.Context) ([]steam.SpyApp, error) {
				return s.source.TagListing(ctx, tag)
			})
			if err != nil {
				return fmt.Errorf("tag %q: %w", tag, err)
			}
			listings[i] = apps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Sample{}, err
	}
	return Intersect(tags, listings), nil
}

// Intersect keeps the apps present in every listing, in the order of the
// first listing.
func Intersect(tags []string, listings [][]steam.SpyApp) Sample {
	sample := Sample{
		Tags:            tags,
		PerFilterCounts: make([]int, len(listings)),
		Listings:        []Listing{},
	}
	if len(listings) == 0 {
		return sample
	}

	seen := make(map[string]int)
	for i, apps := range listings {
		sample.PerFilterCounts[i] = len(apps)
		for _, a := range apps {
			if seen[a.AppID] == i {
				seen[a.AppID] = i + 1
			}
		}
	}
	for _, a := range listings[0] {
		if seen[a.AppID] == len(listings) {
			sample.Listings = append(sample.Listings, Listing{AppID: a.AppID, Name: a.Name, Popularity: a.Popularity()})
		}
	}
	sample.TotalCount = len(sample.Listings)
	return sample
}

func (s *Service) normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	dup := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || dup[key] {
			continue
		}
		dup[key] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", ErrInvalidTags)
	}
	if s.maxTags > 0 && len(out) > s.maxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidTags, s.maxTags)
	}
	return out, nil
}
