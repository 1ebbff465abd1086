package setting

import "context"

type Repository interface {
	// Get returns the persisted override; found is false when none exists.
	Get(ctx context.Context, key Key) (value string, found bool, err error)
	GetAll(ctx context.Context) ([]*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, key Key) error
}
