package analyses

import (
	"encoding/json"
	"time"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Run is one requested analysis of a game.
type Run struct {
	ID             string          `json:"id"`
	AppID          string          `json:"appId"`
	Kind           Kind            `json:"kind"`
	Options        RunOptions      `json:"options"`
	Status         string          `json:"status"`
	Cached         bool            `json:"cached"`
	Fingerprint    string          `json:"fingerprint,omitempty"`
	SnapshotKey    string          `json:"snapshotKey,omitempty"`
	Model          string          `json:"model,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	ErrorCode      string          `json:"errorCode,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	ErrorRetryable bool            `json:"errorRetryable,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Update is a status transition. Empty strings and nil values leave the
// stored field unchanged, except the error fields which are always written.
// Cached only ever turns the flag on.
type Update struct {
	Status         string
	Cached         bool
	Result         json.RawMessage
	Fingerprint    string
	SnapshotKey    string
	Model          string
	ErrorCode      string
	ErrorMessage   string
	ErrorRetryable bool
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

func (u Update) apply(r *Run, now time.Time) {
	r.Status = u.Status
	if u.Cached {
		r.Cached = true
	}
	if u.Result != nil {
		r.Result = u.Result
	}
	if u.Fingerprint != "" {
		r.Fingerprint = u.Fingerprint
	}
	if u.SnapshotKey != "" {
		r.SnapshotKey = u.SnapshotKey
	}
	if u.Model != "" {
		r.Model = u.Model
	}
	r.ErrorCode = u.ErrorCode
	r.ErrorMessage = u.ErrorMessage
	r.ErrorRetryable = u.ErrorRetryable
	if u.StartedAt != nil {
		r.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		r.CompletedAt = u.CompletedAt
	}
	r.UpdatedAt = now
}

// cachedResult is what the response cache holds for a completed analysis.
type cachedResult struct {
	Result      json.RawMessage
	Fingerprint string
	Model       string
}
