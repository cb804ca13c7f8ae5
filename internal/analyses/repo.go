package analyses

import "context"

// Repo persists analysis runs.
type Repo interface {
	Create(ctx context.Context, run Run) error
	GetByID(ctx context.Context, id string) (Run, error)
	Update(ctx context.Context, id string, u Update) error
	ListByApp(ctx context.Context, appID string, limit, offset int) ([]Run, error)
}
