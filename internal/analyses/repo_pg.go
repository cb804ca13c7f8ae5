package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, app_id, kind, options, status, cached, fingerprint, snapshot_key, model, result,
       error_code, error_message, error_retryable, created_at, started_at, completed_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, run Run) error {
	const query = `
INSERT INTO analysis_runs (
	id, app_id, kind, options, status, cached, fingerprint, snapshot_key, model, result,
	error_code, error_message, error_retryable, created_at, started_at, completed_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		run.ID,
		run.AppID,
		string(run.Kind),
		string(options),
		run.Status,
		run.Cached,
		nullString(run.Fingerprint),
		nullString(run.SnapshotKey),
		nullString(run.Model),
		nullJSON(run.Result),
		nullString(run.ErrorCode),
		nullString(run.ErrorMessage),
		run.ErrorRetryable,
		run.CreatedAt,
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Run, error) {
	query := `SELECT ` + runColumns + `
FROM analysis_runs
WHERE id = $1
LIMIT 1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

func (r *PGRepo) Update(ctx context.Context, id string, u Update) error {
	const query = `
UPDATE analysis_runs SET
	status = $2,
	result = COALESCE($3::jsonb, result),
	fingerprint = COALESCE(NULLIF($4, ''), fingerprint),
	snapshot_key = COALESCE(NULLIF($5, ''), snapshot_key),
	model = COALESCE(NULLIF($6, ''), model),
	error_code = NULLIF($7, ''),
	error_message = NULLIF($8, ''),
	error_retryable = $9,
	started_at = COALESCE($10, started_at),
	completed_at = COALESCE($11, completed_at),
	updated_at = $12,
	cached = cached OR $13
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		id,
		u.Status,
		nullJSON(u.Result),
		u.Fingerprint,
		u.SnapshotKey,
		u.Model,
		u.ErrorCode,
		u.ErrorMessage,
		u.ErrorRetryable,
		nullTime(u.StartedAt),
		nullTime(u.CompletedAt),
		time.Now().UTC(),
		u.Cached,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByApp(ctx context.Context, appID string, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + `
FROM analysis_runs
WHERE app_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, appID, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		kind        string
		options     []byte
		fingerprint sql.NullString
		snapshotKey sql.NullString
		model       sql.NullString
		result      []byte
		errorCode   sql.NullString
		errorMsg    sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&run.AppID,
		&kind,
		&options,
		&run.Status,
		&run.Cached,
		&fingerprint,
		&snapshotKey,
		&model,
		&result,
		&errorCode,
		&errorMsg,
		&run.ErrorRetryable,
		&run.CreatedAt,
		&startedAt,
		&completedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return Run{}, err
	}
	run.Kind = Kind(kind)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &run.Options); err != nil {
			return Run{}, fmt.Errorf("decode options for run %s: %w", run.ID, err)
		}
	}
	if len(result) > 0 {
		run.Result = json.RawMessage(result)
	}
	run.Fingerprint = fingerprint.String
	run.SnapshotKey = snapshotKey.String
	run.Model = model.String
	run.ErrorCode = errorCode.String
	run.ErrorMessage = errorMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		run.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
