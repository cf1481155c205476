package ports

import "context"

// IdempotencyStore reserves request keys so replays can be rejected.
type IdempotencyStore interface {
	// Reserve returns false when key is already held.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
