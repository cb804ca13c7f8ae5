package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	maxReviewsPerPage = 100
	maxReviewPages    = 20
)

// ReviewQuery selects reviews from the appreviews endpoint.
type ReviewQuery struct {
	Count    int
	Language string

	// Filter is "recent", "updated" or "all" (helpfulness order).
	Filter string
}

// Review is one user review.
type Review struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	VotedUp       bool   `json:"votedUp"`
	VotesUp       int    `json:"votesUp"`
	Language      string `json:"language"`
	PlaytimeHours int    `json:"playtimeHours"`
	CreatedAt     int64  `json:"createdAt"`
}

// ReviewSummary is the query_summary block of the first page.
type ReviewSummary struct {
	ScoreDesc     string `json:"scoreDesc"`
	TotalPositive int    `json:"totalPositive"`
	TotalNegative int    `json:"totalNegative"`
	TotalReviews  int    `json:"totalReviews"`
}

type reviewsPage struct {
	Success      int `json:"success"`
	QuerySummary struct {
		ReviewScoreDesc string `json:"review_score_desc"`
		TotalPositive   int    `json:"total_positive"`
		TotalNegative   int    `json:"total_negative"`
		TotalReviews    int    `json:"total_reviews"`
	} `json:"query_summary"`
	Reviews []struct {
		RecommendationID string `json:"recommendationid"`
		Author           struct {
			PlaytimeForever int `json:"playtime_forever"`
		} `json:"author"`
		Language         string `json:"language"`
		Review           string `json:"review"`
		VotedUp          bool   `json:"voted_up"`
		VotesUp          int    `json:"votes_up"`
		TimestampCreated int64  `json:"timestamp_created"`
	} `json:"reviews"`
	Cursor string `json:"cursor"`
}

// Reviews pages through the appreviews endpoint until q.Count reviews are
// collected or Steam runs out.
func (c *StoreClient) Reviews(ctx context.Context, appID string, q ReviewQuery) ([]Review, ReviewSummary, error) {
	want := q.Count
	if want <= 0 {
		want = maxReviewsPerPage
	}
	filter := q.Filter
	if filter == "" {
		filter = "recent"
	}
	lang := q.Language
	if lang == "" {
		lang = "all"
	}

	var (
		out     []Review
		summary ReviewSummary
		seen    = make(map[string]bool)
		cursor  = "*"
	)
	for page := 0; page < maxReviewPages && len(out) < want; page++ {
		params := url.Values{}
		params.Set("json", "1")
		params.Set("filter", filter)
		params.Set("language", lang)
		params.Set("purchase_type", "all")
		params.Set("num_per_page", strconv.Itoa(min(maxReviewsPerPage, want-len(out))))
		params.Set("cursor", cursor)

		body, err := get(ctx, c.client, c.baseURL+"/appreviews/"+url.PathEscape(appID)+"?"+params.Encode(), "")
		if err != nil {
			return nil, ReviewSummary{}, err
		}
		var parsed reviewsPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, ReviewSummary{}, fmt.Errorf("%w: decode reviews: %v", ErrUpstream, err)
		}
		if parsed.Success != 1 {
			return nil, ReviewSummary{}, fmt.Errorf("%w: appreviews success=%d", ErrUpstream, parsed.Success)
		}
		if page == 0 {
			summary = ReviewSummary{
				ScoreDesc:     parsed.QuerySummary.ReviewScoreDesc,
				TotalPositive: parsed.QuerySummary.TotalPositive,
				TotalNegative: parsed.QuerySummary.TotalNegative,
				TotalReviews:  parsed.QuerySummary.TotalReviews,
			}
		}

		added := 0
		for _, r := range parsed.Reviews {
			if seen[r.RecommendationID] || len(out) >= want {
				continue
			}
			seen[r.RecommendationID] = true
			out = append(out, Review{
				ID:            r.RecommendationID,
				Text:          r.Review,
				VotedUp:       r.VotedUp,
				VotesUp:       r.VotesUp,
				Language:      r.Language,
				PlaytimeHours: r.Author.PlaytimeForever / 60,
				CreatedAt:     r.TimestampCreated,
			})
			added++
		}
		if added == 0 || parsed.Cursor == "" || parsed.Cursor == cursor {
			break
		}
		cursor = parsed.Cursor
	}
	return out, summary, nil
}
