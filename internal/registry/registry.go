// Package registry tracks the most recent card activity sent for each
// entity so stale cards can be deleted before a replacement goes out.
package registry

import (
	"context"
	"errors"
)

// ErrNotTracked is returned when no activity has been recorded for an
// entity.
var ErrNotTracked = errors.New("registry: entity not tracked")

// Registry maps an entity to the platform activity ID of the last card
// sent for it. Writes are last-write-wins and must happen only after the
// send is confirmed.
type Registry interface {
	// RecordActivity stores activityID as the latest card for entityID,
	// replacing any previous value.
	RecordActivity(ctx context.Context, entityID, activityID string) error

	// GetActivity returns the latest recorded activity ID for entityID,
	// or ErrNotTracked.
	GetActivity(ctx context.Context, entityID string) (string, error)

	// Forget removes the entry for entityID. Forgetting an untracked
	// entity is not an error.
	Forget(ctx context.Context, entityID string) error
}
