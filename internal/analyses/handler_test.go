package analyses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestId", "req-test")
		c.Next()
	})
	h := NewHandler(svc, 0)
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterLLMRoutes(api)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %s: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func TestHandlerStartAcceptsAndCompletesFromCache(t *testing.T) {
	svc, _, _, q := newTestService(t, &fakeLLM{text: summaryJSON})
	r := newTestRouter(t, svc)

	w := doRequest(r, http.MethodPost, "/api/v1/apps/620/analyses/summary", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var accepted struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Cached bool   `json:"cached"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.ID == "" || accepted.Status != StatusQueued || accepted.Cached {
		t.Fatalf("unexpected body %+v", accepted)
	}
	if q.Messages()[0].RequestID != "req-test" {
		t.Fatalf("request id not propagated: %+v", q.Messages()[0])
	}

	if err := svc.ProcessAnalysis(context.Background(), accepted.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	w = doRequest(r, http.MethodPost, "/api/v1/apps/620/analyses/summary", `{"reviewCount":100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for cached run, got %d: %s", w.Code, w.Body.String())
	}
	var run Run
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if !run.Cached || run.Status != StatusCompleted || !strings.Contains(string(run.Result), "Loved by planners") {
		t.Fatalf("unexpected cached run %+v", run)
	}
}

func TestHandlerStartErrors(t *testing.T) {
	svc, _, _, _ := newTestService(t, &fakeLLM{})
	r := newTestRouter(t, svc)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "bad app", path: "/api/v1/apps/abc/analyses/summary", status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "unknown kind", path: "/api/v1/apps/620/analyses/horoscope", status: http.StatusNotFound, code: "UNKNOWN_KIND"},
		{name: "bad json", path: "/api/v1/apps/620/analyses/summary", body: `{"reviewCount":`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "too many reviews", path: "/api/v1/apps/620/analyses/summary", body: `{"reviewCount":9000}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if got := errorCode(t, w); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestHandlerGetAnalysisThrottlesPolling(t *testing.T) {
	svc, _, _, _ := newTestService(t, &fakeLLM{})
	r := newTestRouter(t, svc)

	run, err := svc.Start(context.Background(), "620", "summary", RunOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+run.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodGet, "/api/v1/analyses/"+run.ID, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", w.Header().Get("Retry-After"))
	}

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/missing", "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlerListAndKinds(t *testing.T) {
	svc, _, _, _ := newTestService(t, &fakeLLM{})
	r := newTestRouter(t, svc)
	ctx := context.Background()
	for _, kind := range []string{"summary", "keywords"} {
		if _, err := svc.Start(ctx, "620", kind, RunOptions{}); err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	w := doRequest(r, http.MethodGet, "/api/v1/apps/620/analyses?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}

	w = doRequest(r, http.MethodGet, "/api/v1/apps/nope/analyses", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/kinds", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var kindsBody []struct {
		Kind        string `json:"kind"`
		UsesReviews bool   `json:"usesReviews"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &kindsBody); err != nil {
		t.Fatalf("decode kinds: %v", err)
	}
	if len(kindsBody) != 6 || kindsBody[0].Kind != "community" || !kindsBody[0].UsesReviews {
		t.Fatalf("unexpected kinds %+v", kindsBody)
	}
}

func TestPollLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newPollLimiter(2*time.Second, func() time.Time { return now })

	if !l.Allow("1.2.3.4", "run") {
		t.Fatalf("first poll should pass")
	}
	if l.Allow("1.2.3.4", "run") {
		t.Fatalf("second poll inside window should be refused")
	}
	if !l.Allow("5.6.7.8", "run") || !l.Allow("1.2.3.4", "other") {
		t.Fatalf("other clients and runs are independent")
	}
	now = now.Add(2 * time.Second)
	if !l.Allow("1.2.3.4", "run") {
		t.Fatalf("poll after window should pass")
	}
	if l.RetryAfterSeconds() != 2 {
		t.Fatalf("unexpected retry-after %d", l.RetryAfterSeconds())
	}
}
