package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no tree is stored for a submission.
var ErrNotFound = errors.New("forest not found")

// Repository stores serialized forests keyed by submission id. The stored
// value is the JSON of a forest.Snapshot; repositories treat it as opaque.
type Repository interface {
	Save(ctx context.Context, rootID string, comments []byte) error
	Load(ctx context.Context, rootID string) ([]byte, error)
	Exists(ctx context.Context, rootID string) (bool, error)
	Delete(ctx context.Context, rootID string) (bool, error)
}
