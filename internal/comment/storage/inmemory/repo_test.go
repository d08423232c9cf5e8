package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/storagetest"
)

func TestRepository(t *testing.T) {
	storagetest.Run(t, New(), "abc123")
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := New()

	in := []byte(`[]`)
	require.NoError(t, r.Save(ctx, "abc123", in))
	in[0] = '{'

	out, err := r.Load(ctx, "abc123")
	require.NoError(t, err)
	out[1] = '}'

	again, err := r.Load(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(again))
}
