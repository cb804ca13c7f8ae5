package storedoctor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/steam"
)

type fakeSource struct {
	mu          sync.Mutex
	details     steam.AppDetails
	tags        []string
	err         error
	detailCalls int
}

func (f *fakeSource) AppDetails(ctx context.Context, appID, lang string) (steam.AppDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.err != nil {
		return steam.AppDetails{}, f.err
	}
	d := f.details
	d.AppID = appID
	return d, nil
}

func (f *fakeSource) Tags(ctx context.Context, appID string) ([]string, error) {
	return f.tags, nil
}

func sampleDetails() steam.AppDetails {
	return steam.AppDetails{
		Name:                "Rail Frontier",
		ShortDescription:    strings.Repeat("s", 120),
		DetailedDescription: structured70(),
		HeaderImage:         "https://cdn/header.jpg",
		Screenshots:         make([]string, 12),
		Movies:              []string{"Launch", "Gameplay"},
		Genres:              []string{"Simulation", "Strategy", "Indie"},
		Categories:          []string{"Single-player", "Steam Achievements", "Steam Cloud", "Full controller support", "Steam Trading Cards", "Family Sharing"},
		Languages:           []string{"English", "German", "French", "Japanese", "Simplified Chinese"},
	}
}

func TestDiagnoseCachesListing(t *testing.T) {
	src := &fakeSource{details: sampleDetails(), tags: specificTags(25)}
	c := cache.New()
	svc := NewService(src, c, &fixedEvaluator{eval: Evaluation{OverallScore: 80}})

	d, err := svc.Diagnose(context.Background(), "10", "")
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if d.TotalScore != 91 || d.Grade != "S" {
		t.Fatalf("expected 91/S, got %d/%s", d.TotalScore, d.Grade)
	}
	if _, err := svc.Diagnose(context.Background(), "10", "english"); err != nil {
		t.Fatalf("second Diagnose: %v", err)
	}
	if src.detailCalls != 1 {
		t.Fatalf("expected listing to be fetched once, got %d", src.detailCalls)
	}
	if stats := c.Stats(); stats.Hits != 1 || stats.Entries[0].Type != cache.OpGameMetadata {
		t.Fatalf("unexpected cache stats %+v", stats)
	}
}

func TestDiagnoseRejectsNonNumericAppID(t *testing.T) {
	svc := NewService(&fakeSource{}, cache.New(), nil)
	if _, err := svc.Diagnose(context.Background(), "abc", ""); !errors.Is(err, ErrInvalidAppID) {
		t.Fatalf("expected ErrInvalidAppID, got %v", err)
	}
}

func TestDiagnoseDoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{err: steam.ErrUpstream}
	c := cache.New()
	svc := NewService(src, c, nil)
	if _, err := svc.Diagnose(context.Background(), "10", ""); !errors.Is(err, steam.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestDiagnoseDraftUsesUploadedText(t *testing.T) {
	svc := NewService(&fakeSource{}, cache.New(), &fixedEvaluator{eval: Evaluation{OverallScore: 60}})
	text := "# Features\n\n" + longText() + "\n\nSecond paragraph.\n\nThird paragraph."
	d, err := svc.DiagnoseDraft(context.Background(), Draft{
		Listing:     Listing{Name: "Draft Game", Tags: specificTags(5)},
		Description: []byte(text),
		FileName:    "pitch.md",
	})
	if err != nil {
		t.Fatalf("DiagnoseDraft: %v", err)
	}
	if d.Facts.HeadingCount != 1 || d.Facts.ParagraphCount != 3 {
		t.Fatalf("expected markdown structure to be measured, got %+v", d.Facts)
	}
	if d.Categories.Text.Detail.ContentSource != ContentSourceAI {
		t.Fatalf("expected AI content score, got %q", d.Categories.Text.Detail.ContentSource)
	}
}

func TestDiagnoseDraftRequiresName(t *testing.T) {
	svc := NewService(&fakeSource{}, cache.New(), nil)
	if _, err := svc.DiagnoseDraft(context.Background(), Draft{}); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
}

func TestTextToHTML(t *testing.T) {
	got := TextToHTML("## Hook\nLine one\nline two\n\n<b>bold</b>")
	want := "<h2>Hook</h2><p>Line one line two</p><p>&lt;b&gt;bold&lt;/b&gt;</p>"
	if got != want {
		t.Fatalf("TextToHTML = %q, want %q", got, want)
	}
}

func TestHandlerDiagnose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := &fakeSource{details: sampleDetails(), tags: specificTags(25)}
	r := gin.New()
	NewHandler(NewService(src, cache.New(), nil)).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/apps/10/store-doctor?lang=english", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body Diagnosis
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Grade == "" || body.Categories.Tags.Weight != WeightTags {
		t.Fatalf("unexpected body %+v", body)
	}

	src.err = steam.ErrAppNotFound
	req = httptest.NewRequest(http.MethodGet, "/api/v1/apps/20/store-doctor", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandlerDraftMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(&fakeSource{}, cache.New(), nil)).RegisterRoutes(r.Group("/api/v1"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("listing", `{"name":"Draft Game","tags":["Roguelike","Deckbuilder","Indie"],"trailerCount":1}`)
	fw, err := mw.CreateFormFile("description", "pitch.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte(longText()))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/store-doctor/draft", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body Diagnosis
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Facts.TagCount != 3 || body.Facts.TrailerCount != 1 || body.Facts.ParagraphCount != 1 {
		t.Fatalf("unexpected facts %+v", body.Facts)
	}
}

func TestHandlerDraftRejectsBadListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(&fakeSource{}, cache.New(), nil)).RegisterRoutes(r.Group("/api/v1"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("listing", `{not json`)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/store-doctor/draft", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
