package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/storagetest"
)

func TestRepository(t *testing.T) {
	url := os.Getenv("COMMENTFOREST_TEST_REDIS_URL")
	if url == "" {
		t.Skip("COMMENTFOREST_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	rdb, err := Open(ctx, url, retry.Strategy{Attempts: 3, Delay: 200 * time.Millisecond, Backoff: 2})
	require.NoError(t, err)
	defer rdb.Close()

	storagetest.Run(t, New(rdb, time.Minute), "test-"+uuid.NewString())
}

func TestForestKey(t *testing.T) {
	require.Equal(t, "forest/abc123", forestKey("abc123"))
}
