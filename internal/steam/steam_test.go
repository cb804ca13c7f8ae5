package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const appDetailsFixture = `{"413150":{"success":true,"data":{
	"name":"Stardew Valley",
	"short_description":"You've inherited your grandfather's old farm plot.",
	"detailed_description":"<h2 class=\"bb_tag\">Features</h2><p>Farm</p><img src=\"a.gif\">",
	"header_image":"https://cdn/header.jpg",
	"supported_languages":"English<strong>*</strong>, German, French, Japanese<strong>*</strong><br><strong>*</strong>languages with full audio support",
	"is_free":false,
	"developers":["ConcernedApe"],
	"screenshots":[{"path_full":"s1"},{"path_full":"s2"}],
	"movies":[{"name":"Trailer"}],
	"genres":[{"description":"Indie"},{"description":"RPG"}],
	"categories":[{"description":"Single-player"}],
	"release_date":{"coming_soon":false,"date":"26 Feb, 2016"}
}}}`

func TestAppDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appdetails" || r.URL.Query().Get("appids") != "413150" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.URL.Query().Get("l") != "german" {
			t.Errorf("expected language param, got %q", r.URL.Query().Get("l"))
		}
		_, _ = w.Write([]byte(appDetailsFixture))
	}))
	defer server.Close()

	c := NewStoreClient(WithBaseURL(server.URL))
	d, err := c.AppDetails(context.Background(), "413150", "german")
	if err != nil {
		t.Fatalf("AppDetails: %v", err)
	}
	if d.Name != "Stardew Valley" || len(d.Screenshots) != 2 || len(d.Movies) != 1 {
		t.Fatalf("unexpected details %+v", d)
	}
	if len(d.Genres) != 2 || len(d.Categories) != 1 || d.ReleaseDate != "26 Feb, 2016" {
		t.Fatalf("unexpected details %+v", d)
	}
	if got := strings.Join(d.Languages, ","); got != "English,German,French,Japanese" {
		t.Fatalf("unexpected languages %q", got)
	}
}

func TestAppDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"1":{"success":false}}`))
	}))
	defer server.Close()

	_, err := NewStoreClient(WithBaseURL(server.URL)).AppDetails(context.Background(), "1", "")
	if !errors.Is(err, ErrAppNotFound) {
		t.Fatalf("expected ErrAppNotFound, got %v", err)
	}
}

func TestAppDetailsUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewStoreClient(WithBaseURL(server.URL)).AppDetails(context.Background(), "1", "")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestTagsScrapesAppTagsInOrder(t *testing.T) {
	page := `<html><body><div class="glance_tags popular_tags">
		<a href="/tags/Farming" class="app_tag" style="">
			Farming Sim	</a>
		<a href="/tags/Pixel" class="app_tag">Pixel Graphics</a>
		<a href="/tags/Cozy" class="app_tag" style="display: none;">Cozy</a>
		<div class="app_tag add_button">+</div>
		<a class="app_tag add_button">+</a>
	</div></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Cookie"), "birthtime=0") {
			t.Errorf("expected age gate cookies")
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	tags, err := NewStoreClient(WithBaseURL(server.URL)).Tags(context.Background(), "413150")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if got := strings.Join(tags, "|"); got != "Farming Sim|Pixel Graphics|Cozy" {
		t.Fatalf("unexpected tags %q", got)
	}
}

func TestReviewsPagesUntilCount(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		cursor := r.URL.Query().Get("cursor")
		next := "c2"
		start := 0
		if cursor == "c2" {
			next = "c3"
			start = 2
		}
		fmt.Fprintf(w, `{"success":1,"query_summary":{"review_score_desc":"Very Positive","total_positive":90,"total_negative":10,"total_reviews":100},
			"reviews":[
				{"recommendationid":"r%d","author":{"playtime_forever":600},"language":"english","review":"good","voted_up":true,"votes_up":3,"timestamp_created":1},
				{"recommendationid":"r%d","author":{"playtime_forever":30},"language":"english","review":"bad","voted_up":false,"votes_up":0,"timestamp_created":2}
			],"cursor":"%s"}`, start, start+1, next)
	}))
	defer server.Close()

	reviews, summary, err := NewStoreClient(WithBaseURL(server.URL)).Reviews(context.Background(), "10", ReviewQuery{Count: 3})
	if err != nil {
		t.Fatalf("Reviews: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(reviews))
	}
	if calls != 2 {
		t.Fatalf("expected 2 pages, got %d", calls)
	}
	if reviews[0].PlaytimeHours != 10 || !reviews[0].VotedUp || reviews[1].VotedUp {
		t.Fatalf("unexpected review mapping %+v", reviews[:2])
	}
	if summary.TotalReviews != 100 || summary.ScoreDesc != "Very Positive" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReviewsStopsWhenCursorRepeats(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"success":1,"query_summary":{},"reviews":[{"recommendationid":"only","review":"x","voted_up":true}],"cursor":"*"}`))
	}))
	defer server.Close()

	reviews, _, err := NewStoreClient(WithBaseURL(server.URL)).Reviews(context.Background(), "10", ReviewQuery{Count: 50})
	if err != nil {
		t.Fatalf("Reviews: %v", err)
	}
	if len(reviews) != 1 || calls != 1 {
		t.Fatalf("expected a single page, got %d reviews in %d calls", len(reviews), calls)
	}
}

func TestSpyTagListingSortsByPopularity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("request") != "tag" || r.URL.Query().Get("tag") != "Roguelike Deckbuilder" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"646570":{"appid":646570,"name":"Slay the Spire","positive":150000,"negative":3000},
			"1102190":{"appid":1102190,"name":"Monster Train","positive":20000,"negative":1000},
			"5":{"appid":5,"name":"Tiny","positive":3,"negative":1}
		}`))
	}))
	defer server.Close()

	apps, err := NewSpyClient(WithBaseURL(server.URL)).TagListing(context.Background(), "Roguelike Deckbuilder")
	if err != nil {
		t.Fatalf("TagListing: %v", err)
	}
	if len(apps) != 3 || apps[0].AppID != "646570" || apps[2].Popularity() != 4 {
		t.Fatalf("unexpected listing %+v", apps)
	}
}

func TestSpyTagListingEmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	apps, err := NewSpyClient(WithBaseURL(server.URL)).TagListing(context.Background(), "Nope")
	if err != nil || len(apps) != 0 {
		t.Fatalf("expected empty listing, got %v %v", apps, err)
	}
}
