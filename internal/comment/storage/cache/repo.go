// Package cache keeps recently used trees in process memory in front of a
// slower repository.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

type Repo struct {
	next storage.Repository
	lru  *expirable.LRU[string, []byte]
}

var _ storage.Repository = (*Repo)(nil)

func New(next storage.Repository, capacity int, ttl time.Duration) *Repo {
	return &Repo{
		next: next,
		lru:  expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

func (r *Repo) Exists(ctx context.Context, rootID string) (bool, error) {
	if r.lru.Contains(rootID) {
		return true, nil
	}
	return r.next.Exists(ctx, rootID)
}

// Save writes through; the cache is only filled once the backend accepted the tree.
func (r *Repo) Save(ctx context.Context, rootID string, comments []byte) error {
	if err := r.next.Save(ctx, rootID, comments); err != nil {
		r.lru.Remove(rootID)
		return err
	}
	r.lru.Add(rootID, append([]byte(nil), comments...))
	return nil
}

func (r *Repo) Load(ctx context.Context, rootID string) ([]byte, error) {
	if b, ok := r.lru.Get(rootID); ok {
		return append([]byte(nil), b...), nil
	}
	b, err := r.next.Load(ctx, rootID)
	if err != nil {
		return nil, err
	}
	r.lru.Add(rootID, append([]byte(nil), b...))
	return b, nil
}

func (r *Repo) Delete(ctx context.Context, rootID string) (bool, error) {
	r.lru.Remove(rootID)
	return r.next.Delete(ctx, rootID)
}
