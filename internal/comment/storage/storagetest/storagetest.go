// Package storagetest holds the behaviour every storage.Repository must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

// Run exercises repo with the submission id rootID, which must not be stored yet.
func Run(t *testing.T, repo storage.Repository, rootID string) {
	t.Helper()
	ctx := context.Background()

	ok, err := repo.Exists(ctx, rootID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Load(ctx, rootID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	first := []byte(`{"root_id":"r","comments":[{"parent":-1,"comment":{"id":"c1"}}]}`)
	require.NoError(t, repo.Save(ctx, rootID, first))

	ok, err = repo.Exists(ctx, rootID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Load(ctx, rootID)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(got))

	second := []byte(`{"root_id":"r","comments":[{"parent":-1,"comment":{"id":"c1"}},{"parent":0,"comment":{"id":"c2"}}]}`)
	require.NoError(t, repo.Save(ctx, rootID, second))
	got, err = repo.Load(ctx, rootID)
	require.NoError(t, err)
	assert.JSONEq(t, string(second), string(got))

	deleted, err := repo.Delete(ctx, rootID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, rootID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Load(ctx, rootID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
