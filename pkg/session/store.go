package session

import "context"

// Store keeps at most one dialog state per user
type Store interface {
	// Get returns ErrNoSession when the user has no live dialog
	Get(ctx context.Context, userID int64) (State, error)
	// Set replaces any existing state for the user
	Set(ctx context.Context, userID int64, st State) error
	Clear(ctx context.Context, userID int64) error
}
