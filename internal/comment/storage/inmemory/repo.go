package inmemory

import (
	"context"
	"sync"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

type Repo struct {
	mu sync.RWMutex

	byRoot map[string][]byte
}

var _ storage.Repository = (*Repo)(nil)

func New() *Repo {
	return &Repo{
		byRoot: make(map[string][]byte),
	}
}

func (r *Repo) Exists(ctx context.Context, rootID string) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byRoot[rootID]
	return ok, nil
}

func (r *Repo) Save(ctx context.Context, rootID string, comments []byte) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRoot[rootID] = append([]byte(nil), comments...)
	return nil
}

func (r *Repo) Load(ctx context.Context, rootID string) ([]byte, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byRoot[rootID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (r *Repo) Delete(ctx context.Context, rootID string) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byRoot[rootID]; !ok {
		return false, nil
	}
	delete(r.byRoot, rootID)
	return true, nil
}
