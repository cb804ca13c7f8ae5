package storedoctor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/extract"
	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/telemetry"
	"steam-insights-backend/internal/steam"
)

var (
	// ErrInvalidDraft is returned for drafts that cannot be scored.
	ErrInvalidDraft = errors.New("invalid draft listing")
	// ErrInvalidAppID is returned for non-numeric app IDs.
	ErrInvalidAppID = errors.New("invalid app id")
)

// ListingSource provides live store data.
type ListingSource interface {
	AppDetails(ctx context.Context, appID, lang string) (steam.AppDetails, error)
	Tags(ctx context.Context, appID string) ([]string, error)
}

// Service diagnoses live and draft store listings.
type Service struct {
	source ListingSource
	cache  *cache.Cache
	scorer *Scorer
}

func NewService(source ListingSource, c *cache.Cache, evaluator TextEvaluator) *Service {
	return &Service{source: source, cache: c, scorer: NewScorer(evaluator)}
}

type listingOptions struct {
	lang string
}

func (o listingOptions) CacheFields() []cache.Field {
	return cache.Fields{}.String("lang", o.lang)
}

// Diagnose scores the live store page of appID. Listing metadata is cached
// under the static-game-metadata namespace.
func (s *Service) Diagnose(ctx context.Context, appID, lang string) (Diagnosis, error) {
	if !isNumeric(appID) {
		return Diagnosis{}, ErrInvalidAppID
	}
	lang = normalizeLang(lang)
	start := time.Now()

	listing, cached, err := cache.Fetch(ctx, s.cache, cache.OpGameMetadata, appID, listingOptions{lang: lang}, func(ctx context.Context) (Listing, error) {
		return s.fetchListing(ctx, appID, lang)
	})
	if err != nil {
		return Diagnosis{}, err
	}

	d := s.scorer.Score(ctx, listing, lang)
	metrics.IncStoreDoctorRun()
	telemetry.Info("storedoctor.diagnosed", map[string]any{
		"app_id":         appID,
		"lang":           lang,
		"listing_cached": cached,
		"total_score":    d.TotalScore,
		"grade":          d.Grade,
		"text_source":    d.Categories.Text.Detail.ContentSource,
		"duration_ms":    time.Since(start).Milliseconds(),
	})
	return d, nil
}

func (s *Service) fetchListing(ctx context.Context, appID, lang string) (Listing, error) {
	var (
		details steam.AppDetails
		tags    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = s.source.AppDetails(gctx, appID, lang)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = s.source.Tags(gctx, appID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Listing{}, fmt.Errorf("fetch listing %s: %w", appID, err)
	}
	return ListingFromDetails(details, tags), nil
}

// ListingFromDetails maps store data onto the scored attributes.
func ListingFromDetails(d steam.AppDetails, tags []string) Listing {
	return Listing{
		AppID:                   d.AppID,
		Name:                    d.Name,
		Tags:                    tags,
		TrailerCount:            len(d.Movies),
		ScreenshotCount:         len(d.Screenshots),
		HasHeaderImage:          strings.TrimSpace(d.HeaderImage) != "",
		ShortDescription:        d.ShortDescription,
		DetailedDescriptionHTML: d.DetailedDescription,
		LanguageCount:           len(d.Languages),
		GenreCount:              len(d.Genres),
		CategoryCount:           len(d.Categories),
	}
}

// Draft is an unpublished listing. When Description is set it replaces
// Listing.DetailedDescriptionHTML.
type Draft struct {
	Listing     Listing
	Language    string
	Description []byte
	MimeType    string
	FileName    string
}

// DiagnoseDraft scores a listing that is not on the store yet.
func (s *Service) DiagnoseDraft(ctx context.Context, draft Draft) (Diagnosis, error) {
	listing := draft.Listing
	if strings.TrimSpace(listing.Name) == "" {
		return Diagnosis{}, fmt.Errorf("%w: name is required", ErrInvalidDraft)
	}
	if len(draft.Description) > 0 {
		text, err := extract.ExtractTextFromBytes(ctx, draft.Description, draft.MimeType, draft.FileName)
		if err != nil {
			return Diagnosis{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
		}
		if extract.DetectMimeType(draft.MimeType, draft.FileName, draft.Description) == extract.MimeHTML {
			listing.DetailedDescriptionHTML = text
		} else {
			listing.DetailedDescriptionHTML = TextToHTML(text)
		}
	}

	lang := normalizeLang(draft.Language)
	d := s.scorer.Score(ctx, listing, lang)
	metrics.IncStoreDoctorRun()
	telemetry.Info("storedoctor.draft_diagnosed", map[string]any{
		"name":        listing.Name,
		"file_name":   draft.FileName,
		"total_score": d.TotalScore,
		"grade":       d.Grade,
	})
	return d, nil
}

// TextToHTML renders plain or markdown text as description markup: blank
// line separated blocks become paragraphs and "#" lines become headings.
func TextToHTML(text string) string {
	var b strings.Builder
	var para []string
	flush := func() {
		if len(para) == 0 {
			return
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(strings.Join(para, " ")))
		b.WriteString("</p>")
		para = para[:0]
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			flush()
			b.WriteString("<h2>")
			b.WriteString(html.EscapeString(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))))
			b.WriteString("</h2>")
		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return b.String()
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "english"
	}
	return lang
}

func isNumeric(s string) bool {
	if s == "" || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
