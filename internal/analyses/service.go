package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/llm"
	"steam-insights-backend/internal/queue"
	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/storage/object"
	"steam-insights-backend/internal/shared/telemetry"
	"steam-insights-backend/internal/shared/util"
	"steam-insights-backend/internal/steam"
)

const (
	maxReviewRunes  = 1500
	maxErrorMessage = 500
)

// SteamSource is the Steam data an analysis reads.
type SteamSource interface {
	AppDetails(ctx context.Context, appID, lang string) (steam.AppDetails, error)
	Tags(ctx context.Context, appID string) ([]string, error)
	Reviews(ctx context.Context, appID string, q steam.ReviewQuery) ([]steam.Review, steam.ReviewSummary, error)
}

// Service runs review analyses. Store and Queue are optional: without a
// store review snapshots are skipped, without a queue runs are processed in
// a goroutine.
type Service struct {
	Repo  Repo
	Cache *cache.Cache
	Steam SteamSource
	LLM   llm.Client
	Store object.ObjectStore
	Queue queue.Client
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Start creates a run. A cached result completes the run immediately;
// otherwise the run is queued.
func (s *Service) Start(ctx context.Context, appID, rawKind string, opts RunOptions) (Run, error) {
	appID = strings.TrimSpace(appID)
	if !isNumeric(appID) {
		return Run{}, ErrInvalidAppID
	}
	kind, err := ParseKind(rawKind)
	if err != nil {
		return Run{}, err
	}
	opts, err = opts.Normalize(kind)
	if err != nil {
		return Run{}, err
	}

	now := s.now()
	run := Run{
		ID:        uuid.NewString(),
		AppID:     appID,
		Kind:      kind,
		Options:   opts,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if hit, ok := cache.GetAs[cachedResult](s.Cache, kind.CacheOp(), appID, opts); ok {
		run.Status = StatusCompleted
		run.Cached = true
		run.Result = hit.Result
		run.Fingerprint = hit.Fingerprint
		run.Model = hit.Model
		run.StartedAt = &now
		run.CompletedAt = &now
		if err := s.Repo.Create(ctx, run); err != nil {
			return Run{}, err
		}
		telemetry.Info("analysis.cache_hit", s.runFields(ctx, run))
		return run, nil
	}

	if err := s.Repo.Create(ctx, run); err != nil {
		return Run{}, err
	}
	telemetry.Info("analysis.queued", s.runFields(ctx, run))

	if s.Queue == nil {
		go func(ctx context.Context) {
			_ = s.ProcessAnalysis(ctx, run.ID)
		}(backgroundWithRequestID(ctx))
		return run, nil
	}

	msg := queue.Message{
		RunID:      run.ID,
		AppID:      run.AppID,
		Kind:       string(run.Kind),
		RequestID:  requestIDFromContext(ctx),
		EnqueuedAt: now.Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		s.fail(ctx, run, fmt.Errorf("enqueue: %w", err), nil)
		return Run{}, err
	}
	return run, nil
}

// Get returns a run by ID.
func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	if strings.TrimSpace(id) == "" {
		return Run{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns runs for appID, newest first.
func (s *Service) List(ctx context.Context, appID string, limit, offset int) ([]Run, error) {
	if !isNumeric(appID) {
		return nil, ErrInvalidAppID
	}
	return s.Repo.ListByApp(ctx, appID, limit, offset)
}

// ProcessAnalysis executes a queued run. Completed runs are left alone so
// queue redelivery is harmless. The returned error is non-nil only for
// failures worth retrying.
func (s *Service) ProcessAnalysis(ctx context.Context, runID string) (err error) {
	run, err := s.Repo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("run lookup: %w", err)
	}
	if run.Status == StatusCompleted {
		return nil
	}
	if done, err := s.completeFromCache(ctx, run); done || err != nil {
		return err
	}

	startedAt := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, run, fmt.Errorf("panic: %v", r), &startedAt)
			err = nil
		}
	}()

	if err := s.Repo.Update(ctx, run.ID, Update{Status: StatusProcessing, StartedAt: &startedAt}); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}
	metrics.IncAnalysisStarted()
	fields := s.runFields(ctx, run)
	fields["status_transition"] = run.Status + "->" + StatusProcessing
	telemetry.Info("analysis.status", fields)

	out, err := s.execute(ctx, run)
	if err != nil {
		if _, retryable := s.fail(ctx, run, err, &startedAt); retryable {
			return err
		}
		return nil
	}

	s.Cache.Set(run.Kind.CacheOp(), run.AppID, run.Options, out.cachedResult)

	completedAt := s.now()
	if err := s.Repo.Update(ctx, run.ID, Update{
		Status:      StatusCompleted,
		Result:      out.Result,
		Fingerprint: out.Fingerprint,
		SnapshotKey: out.snapshotKey,
		Model:       out.Model,
		CompletedAt: &completedAt,
	}); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}

	durationMs := float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs)
	fields = s.runFields(ctx, run)
	fields["status_transition"] = StatusProcessing + "->" + StatusCompleted
	fields["duration_ms"] = durationMs
	fields["fingerprint"] = out.Fingerprint
	telemetry.Info("analysis.status", fields)
	return nil
}

// completeFromCache finishes run with a result another run already paid
// for. Start only sees the cache of the process it runs in, so the worker
// checks again before calling the model.
func (s *Service) completeFromCache(ctx context.Context, run Run) (bool, error) {
	hit, ok := cache.GetAs[cachedResult](s.Cache, run.Kind.CacheOp(), run.AppID, run.Options)
	if !ok {
		return false, nil
	}
	now := s.now()
	if err := s.Repo.Update(ctx, run.ID, Update{
		Status:      StatusCompleted,
		Cached:      true,
		Result:      hit.Result,
		Fingerprint: hit.Fingerprint,
		Model:       hit.Model,
		StartedAt:   &now,
		CompletedAt: &now,
	}); err != nil {
		return true, fmt.Errorf("set completed from cache: %w", err)
	}
	fields := s.runFields(ctx, run)
	fields["status_transition"] = run.Status + "->" + StatusCompleted
	telemetry.Info("analysis.cache_hit", fields)
	return true, nil
}

type execution struct {
	cachedResult
	snapshotKey string
}

func (s *Service) execute(ctx context.Context, run Run) (execution, error) {
	if s.LLM == nil {
		return execution{}, llm.ErrNotConfigured
	}
	def := kinds[run.Kind]
	if def.normalize == nil {
		return execution{}, fmt.Errorf("%w: %q", ErrUnknownKind, run.Kind)
	}

	var (
		prompt string
		exec   execution
		err    error
	)
	if def.reviews {
		prompt, exec, err = s.reviewPrompt(ctx, run, def.prompt)
	} else {
		prompt, err = s.metadataPrompt(ctx, run, def.prompt)
	}
	if err != nil {
		return execution{}, err
	}

	resp, err := s.LLM.Generate(ctx, llm.Request{
		System:      "You analyse Steam games for their developers. Respond with JSON only.",
		Prompt:      prompt,
		JSON:        true,
		Temperature: llm.Float(0.3),
		Purpose:     string(run.Kind),
	})
	if err != nil {
		return execution{}, fmt.Errorf("llm generate: %w", err)
	}

	normalized, err := def.normalize([]byte(resp.Text))
	if err != nil {
		return execution{}, err
	}
	result, err := json.Marshal(normalized)
	if err != nil {
		return execution{}, fmt.Errorf("marshal result: %w", err)
	}
	exec.Result = result
	exec.Model = resp.Model
	return exec, nil
}

type promptReview struct {
	Positive      bool
	PlaytimeHours int
	Text          string
}

type reviewPromptData struct {
	AppName         string
	Reviews         []promptReview
	MentalGuardMode bool
	Language        string
}

func (s *Service) reviewPrompt(ctx context.Context, run Run, tmpl string) (string, execution, error) {
	var (
		details steam.AppDetails
		reviews []steam.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = s.Steam.AppDetails(gctx, run.AppID, run.Options.Language)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, _, err = s.Steam.Reviews(gctx, run.AppID, steam.ReviewQuery{
			Count:    run.Options.ReviewCount,
			Language: run.Options.Language,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return "", execution{}, fmt.Errorf("fetch steam data: %w", err)
	}
	if len(reviews) == 0 {
		return "", execution{}, ErrNoReviews
	}

	ids := make([]string, len(reviews))
	data := reviewPromptData{
		AppName:         details.Name,
		Reviews:         make([]promptReview, len(reviews)),
		MentalGuardMode: run.Options.MentalGuardMode,
		Language:        run.Options.Language,
	}
	for i, r := range reviews {
		ids[i] = r.ID
		data.Reviews[i] = promptReview{
			Positive:      r.VotedUp,
			PlaytimeHours: r.PlaytimeHours,
			Text:          truncateRunes(strings.TrimSpace(r.Text), maxReviewRunes),
		}
	}

	var exec execution
	exec.Fingerprint = util.Fingerprint(ids)
	exec.snapshotKey = s.snapshotReviews(ctx, run, exec.Fingerprint, reviews)

	prompt, err := llm.RenderPrompt(tmpl, data)
	if err != nil {
		return "", execution{}, err
	}
	return prompt, exec, nil
}

type metadataPromptData struct {
	AppName          string
	Genres           []string
	Tags             []string
	ScreenshotCount  int
	TrailerCount     int
	ShortDescription string
	ReleaseDate      string
	Language         string
}

func (s *Service) metadataPrompt(ctx context.Context, run Run, tmpl string) (string, error) {
	var (
		details steam.AppDetails
		tags    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = s.Steam.AppDetails(gctx, run.AppID, run.Options.Language)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = s.Steam.Tags(gctx, run.AppID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("fetch steam data: %w", err)
	}

	releaseDate := details.ReleaseDate
	if details.ComingSoon && releaseDate == "" {
		releaseDate = "coming soon"
	}
	return llm.RenderPrompt(tmpl, metadataPromptData{
		AppName:          details.Name,
		Genres:           details.Genres,
		Tags:             tags,
		ScreenshotCount:  len(details.Screenshots),
		TrailerCount:     len(details.Movies),
		ShortDescription: details.ShortDescription,
		ReleaseDate:      releaseDate,
		Language:         run.Options.Language,
	})
}

// snapshotReviews stores the analysed reviews so a result can be traced back
// to its input. Failures are logged and do not fail the run.
func (s *Service) snapshotReviews(ctx context.Context, run Run, fingerprint string, reviews []steam.Review) string {
	if s.Store == nil {
		return ""
	}
	appSegment, err := util.SanitizeKeySegment(run.AppID)
	if err != nil {
		return ""
	}
	key := "reviews/" + appSegment + "/" + fingerprint + ".json"
	payload, err := json.Marshal(reviews)
	if err == nil {
		_, err = s.Store.Put(ctx, key, "application/json", bytes.NewReader(payload))
	}
	if err != nil {
		fields := s.runFields(ctx, run)
		fields["error"] = err.Error()
		telemetry.Warn("analysis.snapshot_failed", fields)
		return ""
	}
	return key
}

func (s *Service) fail(ctx context.Context, run Run, cause error, startedAt *time.Time) (string, bool) {
	code, retryable := classifyFailure(cause)
	completedAt := s.now()
	if err := s.Repo.Update(context.Background(), run.ID, Update{
		Status:         StatusFailed,
		ErrorCode:      code,
		ErrorMessage:   sanitizeError(cause),
		ErrorRetryable: retryable,
		CompletedAt:    &completedAt,
	}); err != nil {
		telemetry.Error("analysis.fail_update_failed", map[string]any{
			"run_id": run.ID,
			"error":  err.Error(),
		})
	}
	metrics.IncAnalysisFailed()

	fields := s.runFields(ctx, run)
	fields["status_transition"] = "->" + StatusFailed
	fields["error_code"] = code
	fields["retryable"] = retryable
	fields["error"] = sanitizeError(cause)
	if startedAt != nil {
		ms := float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
		metrics.ObserveAnalysisDurationMs(ms)
		fields["duration_ms"] = ms
	}
	telemetry.Error("analysis.status", fields)
	return code, retryable
}

func (s *Service) runFields(ctx context.Context, run Run) map[string]any {
	return map[string]any{
		"request_id": requestIDFromContext(ctx),
		"run_id":     run.ID,
		"app_id":     run.AppID,
		"kind":       string(run.Kind),
		"cached":     run.Cached,
	}
}

// classifyFailure maps an error to a failure code and whether retrying the
// run could help.
func classifyFailure(err error) (string, bool) {
	switch {
	case err == nil:
		return ErrorCodeInternal, false
	case errors.Is(err, ErrSchemaMismatch):
		return ErrorCodeLLMSchemaMismatch, false
	case errors.Is(err, ErrNoReviews):
		return ErrorCodeNoReviews, false
	case errors.Is(err, llm.ErrNotConfigured):
		return ErrorCodeInternal, false
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeLLMTimeout, true
	case errors.Is(err, steam.ErrAppNotFound):
		return ErrorCodeUpstream, false
	case errors.Is(err, steam.ErrUpstream):
		return ErrorCodeUpstream, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout, true
	}
	if llm.ShouldRetry(err) {
		return ErrorCodeUpstream, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
