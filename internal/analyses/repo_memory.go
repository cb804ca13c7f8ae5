package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores runs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Run
	byApp map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]Run),
		byApp: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[run.ID] = run
	r.byApp[run.AppID] = append(r.byApp[run.AppID], run.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.apply(&run, time.Now().UTC())
	r.byID[id] = run
	return nil
}

// ListByApp returns runs for appID, newest first.
func (r *MemoryRepo) ListByApp(ctx context.Context, appID string, limit, offset int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	offset = max(offset, 0)

	r.mu.RLock()
	runs := make([]Run, 0, len(r.byApp[appID]))
	for _, id := range r.byApp[appID] {
		runs = append(runs, r.byID[id])
	}
	r.mu.RUnlock()

	if offset >= len(runs) {
		return []Run{}, nil
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	end := len(runs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return runs[offset:end], nil
}
